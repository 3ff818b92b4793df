package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/reqimple/reqimple/internal/apperror"
	"github.com/reqimple/reqimple/internal/auth"
	"github.com/reqimple/reqimple/internal/form"
	"github.com/reqimple/reqimple/internal/model"
	"github.com/reqimple/reqimple/internal/service"
)

// APIHandler serves the JSON API under /api/v1.
//
//	GET  /api/v1/ideas       → [{"id","title","author"}]
//	POST /api/v1/ideas       → 201 {"id","title","author"}  (Bearer token)
//	POST /api/v1/auth/login  → {"token"} or 401 {"error"}
type APIHandler struct {
	auth   *service.AuthService
	ideas  *service.IdeaService
	logger *slog.Logger
}

func NewAPIHandler(authService *service.AuthService, ideas *service.IdeaService, logger *slog.Logger) *APIHandler {
	return &APIHandler{auth: authService, ideas: ideas, logger: logger}
}

// IdeaSummary is the API representation of an idea.
type IdeaSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// TokenResponse is the body of a successful API login.
type TokenResponse struct {
	Token string `json:"token"`
}

func summarize(idea model.Idea) IdeaSummary {
	return IdeaSummary{ID: idea.ID, Title: idea.Title, Author: idea.AuthorUsername}
}

func (h *APIHandler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	ideas, err := h.ideas.ListActive(r.Context(), 0)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]IdeaSummary, 0, len(ideas))
	for _, idea := range ideas {
		out = append(out, summarize(idea))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *APIHandler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	var f form.Idea
	if !decodeJSON(w, r, &f, true) {
		return
	}

	idea, err := h.ideas.Create(r.Context(), auth.PrincipalFromContext(r.Context()), f, service.SourceAPI)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, summarize(*idea))
}

// Login exchanges email and password for a one-hour bearer token.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var f form.Login
	if !decodeJSON(w, r, &f, false) {
		return
	}

	token, err := h.auth.IssueAPIToken(r.Context(), f)
	if err != nil {
		// A malformed or missing credential is just a failed login.
		if errors.Is(err, apperror.ErrValidation) {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
			return
		}
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// decodeJSON reads a single JSON object into dst, answering 400 itself on
// failure. With strict set, keys dst does not declare are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, strict bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return false
	}
	return true
}
