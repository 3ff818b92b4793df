package handler

import (
	"errors"
	"net/http"

	"github.com/reqimple/reqimple/internal/apperror"
	"github.com/reqimple/reqimple/internal/auth"
	"github.com/reqimple/reqimple/internal/form"
	"github.com/reqimple/reqimple/internal/service"
	"github.com/reqimple/reqimple/internal/view"
)

// IdeaHandler serves the feed and the idea pages.
type IdeaHandler struct {
	web
	ideas *service.IdeaService
}

func NewIdeaHandler(ideas *service.IdeaService, opts Options) *IdeaHandler {
	return &IdeaHandler{web: newWeb(opts), ideas: ideas}
}

// Index is the public feed of active ideas.
//
// HTTP: GET /
func (h *IdeaHandler) Index(w http.ResponseWriter, r *http.Request) {
	ideas, err := h.ideas.ListActive(r.Context(), 0)
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, view.Index, view.Page{Title: "Ideas", Data: ideas})
}

// Detail shows an idea with its comments and the implementations the
// viewer may see.
//
// HTTP: GET /ideas/{id}
func (h *IdeaHandler) Detail(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	page, err := h.ideas.Page(r.Context(), p, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, view.IdeaDetail, view.Page{
		Title: page.Idea.Title,
		Form:  form.Comment{},
		Data:  page,
	})
}

func (h *IdeaHandler) ShowCreate(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.CreateIdea, view.Page{Title: "Post an idea", Form: form.Idea{}})
}

// Create posts an idea.
//
// HTTP: POST /create/idea
func (h *IdeaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var f form.Idea
	form.Bind(parseForm(w, r), &f)

	_, err := h.ideas.Create(r.Context(), auth.PrincipalFromContext(r.Context()), f, service.SourceWeb)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			h.invalid(w, r, view.CreateIdea, view.Page{Title: "Post an idea", Form: f}, err)
			return
		}
		h.fail(w, r, err, "/")
		return
	}
	h.redirect(w, r, "/", success("Idea created!"))
}

// ShowEdit renders the edit form pre-filled with the stored idea.
//
// HTTP: GET /ideas/{id}/edit
func (h *IdeaHandler) ShowEdit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	idea, err := h.ideas.Authorize(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, r, err, "/ideas/"+id)
		return
	}
	h.render(w, r, http.StatusOK, view.EditIdea, view.Page{
		Title: "Edit idea",
		Form:  form.EditIdea{Title: idea.Title, Description: idea.Description, Status: string(idea.Status)},
		Data:  idea,
	})
}

// Edit saves the edit form. Non-authors are sent back to the idea with a
// notice and the idea is left unchanged.
//
// HTTP: POST /ideas/{id}/edit
func (h *IdeaHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var f form.EditIdea
	form.Bind(parseForm(w, r), &f)

	_, err := h.ideas.Edit(r.Context(), auth.PrincipalFromContext(r.Context()), id, f)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			idea, getErr := h.ideas.Get(r.Context(), id)
			if getErr != nil {
				h.fail(w, r, getErr, "/")
				return
			}
			h.invalid(w, r, view.EditIdea, view.Page{Title: "Edit idea", Form: f, Data: idea}, err)
			return
		}
		h.fail(w, r, err, "/ideas/"+id)
		return
	}
	h.redirect(w, r, "/ideas/"+id, success("Idea updated!"))
}

// Delete removes an idea with everything attached to it.
//
// HTTP: POST /ideas/{id}/delete
func (h *IdeaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.ideas.Delete(r.Context(), auth.PrincipalFromContext(r.Context()), id); err != nil {
		h.fail(w, r, err, "/ideas/"+id)
		return
	}
	h.redirect(w, r, "/", success("Idea deleted."))
}
