// Package apperror defines the application's error taxonomy.
//
// Every error that crosses a layer boundary is either one of the sentinel
// kinds below (wrapped in an *AppError carrying a human-readable message) or an
// unexpected failure. Transports map the sentinel to their own vocabulary:
// the HTTP layer to status codes and flash notices, the chat bot to a single
// generic reply.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrPersistence  = errors.New("persistence error")
)

type AppError struct {
	Err     error             // sentinel kind
	Message string            // Human-readable error message
	Field   string            // Optional: first field causing the error
	Fields  map[string]string // Optional: every invalid field -> message
	Cause   error             // Optional: underlying failure, never shown to users
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause so errors.Is matches either.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
		Fields:  map[string]string{field: message},
	}
}

// InvalidFields builds a validation error from a field -> message map.
// first names the field whose message becomes the error's Message.
func InvalidFields(first string, fields map[string]string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: fields[first],
		Field:   first,
		Fields:  fields,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers turn this into a redirect with a flash notice.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized reports failed authentication (bad credentials, bad token).
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Persistence wraps a storage failure. The transaction that produced it has
// already been rolled back.
func Persistence(cause error) *AppError {
	return &AppError{
		Err:     ErrPersistence,
		Message: "the operation could not be saved",
		Cause:   cause,
	}
}

// FieldErrors returns the per-field messages carried by err, or nil.
func FieldErrors(err error) map[string]string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

// Message returns the user-facing message of err, falling back to fallback
// for errors that are not *AppError or that only carry a cause.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && !errors.Is(appErr.Err, ErrPersistence) {
		return appErr.Message
	}
	return fallback
}
