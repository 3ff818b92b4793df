package handler

import (
	"errors"
	"net/http"

	"github.com/reqimple/reqimple/internal/apperror"
	"github.com/reqimple/reqimple/internal/auth"
	"github.com/reqimple/reqimple/internal/form"
	"github.com/reqimple/reqimple/internal/model"
	"github.com/reqimple/reqimple/internal/service"
	"github.com/reqimple/reqimple/internal/view"
)

// CommentHandler adds and deletes comments on both parent kinds. An
// invalid comment re-renders the parent's page with the error under the
// comment box.
type CommentHandler struct {
	web
	comments *service.CommentService
	ideas    *service.IdeaService
	impls    *service.ImplementationService
}

func NewCommentHandler(comments *service.CommentService, ideas *service.IdeaService, impls *service.ImplementationService, opts Options) *CommentHandler {
	return &CommentHandler{web: newWeb(opts), comments: comments, ideas: ideas, impls: impls}
}

// AddToIdea handles POST /ideas/{id}/comment.
func (h *CommentHandler) AddToIdea(w http.ResponseWriter, r *http.Request) {
	h.add(w, r, model.IdeaParent(r.PathValue("id")))
}

// AddToImplementation handles POST /implementation/{id}/comment.
func (h *CommentHandler) AddToImplementation(w http.ResponseWriter, r *http.Request) {
	h.add(w, r, model.ImplementationParent(r.PathValue("id")))
}

func (h *CommentHandler) add(w http.ResponseWriter, r *http.Request, parent model.CommentParent) {
	var f form.Comment
	form.Bind(parseForm(w, r), &f)
	p := auth.PrincipalFromContext(r.Context())
	back := parentURL(parent)

	_, err := h.comments.Add(r.Context(), p, parent, f)
	if err == nil {
		h.redirect(w, r, back, success("Comment added."))
		return
	}
	if !errors.Is(err, apperror.ErrValidation) || apperror.FieldErrors(err)["content"] == "" {
		h.fail(w, r, err, back)
		return
	}

	// Re-render the parent page with the rejected comment.
	var (
		name  string
		title string
		data  any
		perr  error
	)
	switch parent.Kind {
	case model.ParentIdea:
		var page *service.IdeaPage
		page, perr = h.ideas.Page(r.Context(), p, parent.ID)
		if perr == nil {
			name, title, data = view.IdeaDetail, page.Idea.Title, page
		}
	default:
		var page *service.ImplementationPage
		page, perr = h.impls.Page(r.Context(), parent.ID)
		if perr == nil {
			name, title, data = view.ImplementationDetail, page.Implementation.Title, page
		}
	}
	if perr != nil {
		h.fail(w, r, perr, "/")
		return
	}
	h.invalid(w, r, name, view.Page{Title: title, Form: f, Data: data}, err)
}

// DeleteFromIdea handles POST /comments/{id}/delete. Only the comment's
// author may delete through this route.
func (h *CommentHandler) DeleteFromIdea(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, model.ParentIdea)
}

// DeleteFromImplementation handles POST /implementation/comments/{id}/delete.
// The author or an admin may delete, and only implementation comments.
func (h *CommentHandler) DeleteFromImplementation(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, model.ParentImplementation)
}

func (h *CommentHandler) delete(w http.ResponseWriter, r *http.Request, route model.ParentKind) {
	p := auth.PrincipalFromContext(r.Context())
	comment, err := h.comments.Delete(r.Context(), p, r.PathValue("id"), route)
	if err != nil {
		back := "/"
		if comment != nil && comment.Parent.Kind == route {
			back = parentURL(comment.Parent)
		}
		h.fail(w, r, err, back)
		return
	}
	h.redirect(w, r, parentURL(comment.Parent), success("Comment deleted."))
}

func parentURL(parent model.CommentParent) string {
	if parent.Kind == model.ParentImplementation {
		return "/implementation/" + parent.ID
	}
	return "/ideas/" + parent.ID
}
