package handler

// RESPONSE HELPERS:
// Every JSON response goes through writeJSON, every JSON error through
// writeError, so all API errors share one shape:
//
//	{"error": "Invalid credentials"}
//	{"error": "This field is required.", "fields": {"title": "This field is required."}}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/reqimple/reqimple/internal/apperror"
)

// ErrorResponse is the body of every API error.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// writeJSON sends data with the given status. Headers must be set before
// the status is written, and the status before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status:
//
//	ErrValidation   → 400 (with per-field messages)
//	ErrUnauthorized → 401
//	ErrForbidden    → 403
//	ErrNotFound     → 404
//	anything else   → 500, details logged and never sent
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		logger.Error("api request failed", slog.String("error", err.Error()))
		writeJSON(w, status, ErrorResponse{Error: "An internal error occurred"})
		return
	}

	writeJSON(w, status, ErrorResponse{
		Error:  apperror.Message(err, http.StatusText(status)),
		Fields: apperror.FieldErrors(err),
	})
}
