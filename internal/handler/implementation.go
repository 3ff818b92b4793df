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

// ImplementationHandler serves submissions, implementation pages and the
// admin moderation queue.
type ImplementationHandler struct {
	web
	impls *service.ImplementationService
	ideas *service.IdeaService
}

func NewImplementationHandler(impls *service.ImplementationService, ideas *service.IdeaService, opts Options) *ImplementationHandler {
	return &ImplementationHandler{web: newWeb(opts), impls: impls, ideas: ideas}
}

// ShowCreate handles GET /ideas/{id}/create-implementation.
func (h *ImplementationHandler) ShowCreate(w http.ResponseWriter, r *http.Request) {
	idea, err := h.ideas.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, view.CreateImplementation, view.Page{
		Title: "Submit an implementation",
		Form:  form.Implementation{Type: string(model.TypeGitHubRepo)},
		Data:  idea,
	})
}

// Create handles POST /ideas/{id}/create-implementation. New submissions
// wait for moderation.
func (h *ImplementationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ideaID := r.PathValue("id")
	var f form.Implementation
	form.Bind(parseForm(w, r), &f)

	_, err := h.impls.Create(r.Context(), auth.PrincipalFromContext(r.Context()), ideaID, f)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			idea, getErr := h.ideas.Get(r.Context(), ideaID)
			if getErr != nil {
				h.fail(w, r, getErr, "/")
				return
			}
			h.invalid(w, r, view.CreateImplementation, view.Page{Title: "Submit an implementation", Form: f, Data: idea}, err)
			return
		}
		h.fail(w, r, err, "/ideas/"+ideaID)
		return
	}
	h.redirect(w, r, "/ideas/"+ideaID, success("Implementation submitted for moderation!"))
}

// Detail handles GET /implementation/{id}.
func (h *ImplementationHandler) Detail(w http.ResponseWriter, r *http.Request) {
	page, err := h.impls.Page(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, view.ImplementationDetail, view.Page{
		Title: page.Implementation.Title,
		Form:  form.Comment{},
		Data:  page,
	})
}

// Moderation handles GET /admin/moderation. Non-admins are sent home.
func (h *ImplementationHandler) Moderation(w http.ResponseWriter, r *http.Request) {
	pending, err := h.impls.ListPending(r.Context(), auth.PrincipalFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, view.AdminModeration, view.Page{Title: "Moderation", Data: pending})
}

// Verify handles GET /admin/verify/{id}, flipping pending and verified.
func (h *ImplementationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	impl, err := h.impls.ToggleVerified(r.Context(), auth.PrincipalFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		back := "/admin/moderation"
		if errors.Is(err, apperror.ErrForbidden) {
			back = "/"
		}
		h.fail(w, r, err, back)
		return
	}

	msg := "Implementation verified."
	if impl.Status == model.ImplementationPending {
		msg = "Verification revoked."
	}
	h.redirect(w, r, "/admin/moderation", success(msg))
}
