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

// ProfileHandler serves public profiles and the account settings.
type ProfileHandler struct {
	web
	profiles      *service.ProfileService
	githubEnabled bool
}

func NewProfileHandler(profiles *service.ProfileService, githubEnabled bool, opts Options) *ProfileHandler {
	return &ProfileHandler{web: newWeb(opts), profiles: profiles, githubEnabled: githubEnabled}
}

// Show handles GET /@{username}.
func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.Context(), r.PathValue("username"))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, view.Profile, view.Page{Title: profile.User.DisplayName, Data: profile})
}

// ShowEdit handles GET /profile/edit.
func (h *ProfileHandler) ShowEdit(w http.ResponseWriter, r *http.Request) {
	user, err := h.profiles.Me(r.Context(), auth.PrincipalFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, view.EditProfile, view.Page{
		Title: "Edit profile",
		Form: form.Profile{
			DisplayName:    user.DisplayName,
			Bio:            user.Bio,
			WebsiteURL:     user.WebsiteURL,
			GitHubUsername: user.GitHubUsername,
		},
		Data: h.githubEnabled,
	})
}

// Edit handles POST /profile/edit.
func (h *ProfileHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var f form.Profile
	form.Bind(parseForm(w, r), &f)
	p := auth.PrincipalFromContext(r.Context())

	if _, err := h.profiles.Update(r.Context(), p, f); err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			h.invalid(w, r, view.EditProfile, view.Page{Title: "Edit profile", Form: f, Data: h.githubEnabled}, err)
			return
		}
		h.fail(w, r, err, "/profile/edit")
		return
	}
	h.redirect(w, r, "/@"+p.Username, success("Profile updated."))
}

// Delete handles POST /profile/delete: the account and everything it
// authored are removed and the session is dropped.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.DeleteAccount(r.Context(), auth.PrincipalFromContext(r.Context())); err != nil {
		h.fail(w, r, err, "/profile/edit")
		return
	}
	http.SetCookie(w, auth.ClearSessionCookie(h.secure))
	h.redirect(w, r, "/", success("Your account was deleted."))
}
