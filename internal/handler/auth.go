package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/reqimple/reqimple/internal/apperror"
	"github.com/reqimple/reqimple/internal/auth"
	"github.com/reqimple/reqimple/internal/form"
	"github.com/reqimple/reqimple/internal/service"
	"github.com/reqimple/reqimple/internal/view"
)

const oauthStateCookie = "oauth_state"

// AuthHandler serves registration, login, logout and the optional GitHub
// account link.
//
//   - ShowRegister / Register  → GET/POST /register
//   - ShowLogin / Login        → GET/POST /login
//   - Logout                   → GET /logout
//   - GitHubConnect            → GET /profile/github/connect
//   - GitHubCallback           → GET /profile/github/callback
type AuthHandler struct {
	web
	auth     *service.AuthService
	profiles *service.ProfileService
	github   *auth.GitHubProvider // nil when GitHub is not configured
}

func NewAuthHandler(authService *service.AuthService, profiles *service.ProfileService, github *auth.GitHubProvider, opts Options) *AuthHandler {
	return &AuthHandler{web: newWeb(opts), auth: authService, profiles: profiles, github: github}
}

func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.Register, view.Page{Title: "Register", Form: form.Register{}})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var f form.Register
	form.Bind(parseForm(w, r), &f)

	user, err := h.auth.Register(r.Context(), f)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			f.Password = ""
			h.invalid(w, r, view.Register, view.Page{Title: "Register", Form: f}, err)
			return
		}
		h.fail(w, r, err, "/register")
		return
	}

	h.logger.Info("user registered via web", slog.String("username", user.Username))
	h.redirect(w, r, "/login", success("Registration successful!"))
}

func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.Login, view.Page{
		Title: "Log in",
		Form:  form.Login{},
		Data:  safeNext(r.URL.Query().Get("next")),
	})
}

// Login checks the credentials and stores a session token in a cookie.
// Bad credentials re-render the form with a notice.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	values := parseForm(w, r)
	var f form.Login
	form.Bind(values, &f)
	next := safeNext(values.Get("next"))

	session, err := h.auth.Login(r.Context(), f)
	if err != nil {
		f.Password = ""
		page := view.Page{Title: "Log in", Form: f, Data: next}
		switch {
		case errors.Is(err, apperror.ErrValidation):
			h.invalid(w, r, view.Login, page, err)
		case errors.Is(err, apperror.ErrUnauthorized):
			page.Flash = danger(apperror.Message(err, "Invalid credentials"))
			h.render(w, r, http.StatusUnauthorized, view.Login, page)
		default:
			h.fail(w, r, err, "/login")
		}
		return
	}

	http.SetCookie(w, auth.NewSessionCookie(session.Token, session.TTL, h.secure))
	h.redirect(w, r, next, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearSessionCookie(h.secure))
	h.redirect(w, r, "/", nil)
}

// GitHubConnect starts the OAuth flow that confirms the user's GitHub
// account. A random state is kept in a short-lived cookie and checked on
// the callback.
func (h *AuthHandler) GitHubConnect(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		h.render(w, r, http.StatusNotFound, view.NotFound, view.Page{Title: "Not found"})
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// GitHubCallback verifies the state, exchanges the code and stores the
// confirmed GitHub login on the user's profile.
func (h *AuthHandler) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		h.render(w, r, http.StatusNotFound, view.NotFound, view.Page{Title: "Not found"})
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: state mismatch")
		h.redirect(w, r, "/profile/edit", danger("GitHub connection failed. Please try again."))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", errParam))
		h.redirect(w, r, "/profile/edit", &view.Flash{Kind: view.FlashInfo, Message: "GitHub connection cancelled."})
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		h.redirect(w, r, "/profile/edit", danger("GitHub connection failed. Please try again."))
		return
	}

	p := auth.PrincipalFromContext(r.Context())
	if err := h.profiles.LinkGitHub(r.Context(), p, ghUser.Login); err != nil {
		h.fail(w, r, err, "/profile/edit")
		return
	}
	h.redirect(w, r, "/@"+p.Username, success("GitHub account connected."))
}
