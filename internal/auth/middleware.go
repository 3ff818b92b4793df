package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reqimple/reqimple/internal/model"
)

// SessionCookie is the name of the HttpOnly cookie that carries the
// browser session token.
const SessionCookie = "session"

// PrincipalResolver turns a validated token into the acting principal.
// The service layer implements it by re-reading the user, so a deleted
// account or a changed admin flag takes effect on the next request.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (model.Principal, error)
}

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of type contextKey, so no other package
// can read or shadow the principal stored under it.
type contextKey string

const principalKey contextKey = "principal"

// Authenticate resolves the request's token, if any, into a principal and
// stores it in the request context. It never blocks: a missing, expired or
// unknown token simply leaves the request anonymous.
//
// Token sources, in order:
//  1. the "session" cookie (browsers)
//  2. "Authorization: Bearer <token>" (API clients)
func Authenticate(resolver PrincipalResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			p, err := resolver.ResolvePrincipal(r.Context(), token)
			if err != nil {
				logger.Debug("ignoring unusable token",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireLogin redirects anonymous browser requests to the login page,
// remembering where they were headed in the "next" query parameter.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()).IsAnonymous() {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireToken is the API flavour of RequireLogin: anonymous requests get
// a 401 JSON body instead of a redirect.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()).IsAnonymous() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Authentication required"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal stored by Authenticate, or
// model.Anonymous when there is none.
func PrincipalFromContext(ctx context.Context) model.Principal {
	p, ok := ctx.Value(principalKey).(model.Principal)
	if !ok {
		return model.Anonymous
	}
	return p
}

// NewSessionCookie builds the cookie that stores a session token.
//
// HttpOnly keeps it away from JavaScript; SameSite=Lax keeps it off
// cross-site POSTs. secure should be true whenever the site is served
// over HTTPS.
func NewSessionCookie(token string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie builds a cookie that tells the browser to drop the
// session. The token itself stays valid until it expires; without the
// cookie the browser just stops sending it.
func ClearSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return ""
}
