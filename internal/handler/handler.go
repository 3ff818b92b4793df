// Package handler contains the HTTP handlers for the web pages and the
// JSON API.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the request (path values, form body, JSON body)
//  2. Call the service with the request's principal
//  3. Translate the outcome into a page, a redirect or a JSON body
//
// Handlers hold no business rules. Permission checks live in the services;
// the handlers only decide how a refusal is shown (redirect with a flash
// notice for pages, a status code for the API).
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/reqimple/reqimple/internal/apperror"
	"github.com/reqimple/reqimple/internal/auth"
	"github.com/reqimple/reqimple/internal/view"
)

// Options are shared by every page handler.
type Options struct {
	Views  view.Renderer
	Logger *slog.Logger
	// SecureCookies marks session and flash cookies Secure. Enable behind
	// HTTPS.
	SecureCookies bool
}

// web is the page-rendering plumbing embedded by every page handler.
type web struct {
	views  view.Renderer
	logger *slog.Logger
	secure bool
}

func newWeb(opts Options) web {
	return web{views: opts.Views, logger: opts.Logger, secure: opts.SecureCookies}
}

// render fills in the principal and any pending flash notice, then writes
// the page.
func (h *web) render(w http.ResponseWriter, r *http.Request, status int, name string, page view.Page) {
	page.Principal = auth.PrincipalFromContext(r.Context())
	if page.Flash == nil {
		page.Flash = popFlash(w, r, h.secure)
	}
	h.views.Render(w, status, name, page)
}

// redirect sends the browser to target with an optional notice for the
// next page.
func (h *web) redirect(w http.ResponseWriter, r *http.Request, target string, flash *view.Flash) {
	if flash != nil {
		setFlash(w, h.secure, *flash)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// invalid re-renders a form page with the submitted input and the field
// messages carried by err.
func (h *web) invalid(w http.ResponseWriter, r *http.Request, name string, page view.Page, err error) {
	page.Errors = apperror.FieldErrors(err)
	h.render(w, r, http.StatusUnprocessableEntity, name, page)
}

// fail maps a service error onto a page response:
//
//	ErrNotFound     → 404 page
//	ErrForbidden    → redirect to back with the refusal as a notice
//	ErrValidation   → redirect to back with the message as a notice
//	ErrUnauthorized → redirect to the login page
//	anything else   → logged, 500 page
func (h *web) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		h.render(w, r, http.StatusNotFound, view.NotFound, view.Page{Title: "Not found"})
	case errors.Is(err, apperror.ErrForbidden), errors.Is(err, apperror.ErrValidation):
		h.redirect(w, r, back, danger(apperror.Message(err, "That is not allowed.")))
	case errors.Is(err, apperror.ErrUnauthorized):
		h.redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), nil)
	default:
		h.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		h.render(w, r, http.StatusInternalServerError, view.Error, view.Page{Title: "Error"})
	}
}

// NotFound renders the 404 page for unmatched routes.
func NotFound(opts Options) http.HandlerFunc {
	h := newWeb(opts)
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusNotFound, view.NotFound, view.Page{Title: "Not found"})
	}
}

func success(msg string) *view.Flash { return &view.Flash{Kind: view.FlashSuccess, Message: msg} }
func danger(msg string) *view.Flash  { return &view.Flash{Kind: view.FlashDanger, Message: msg} }

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// parseForm reads the urlencoded body. Oversized or malformed bodies are
// treated as empty, which the form validation then reports.
func parseForm(w http.ResponseWriter, r *http.Request) url.Values {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := r.ParseForm(); err != nil {
		return url.Values{}
	}
	return r.PostForm
}
