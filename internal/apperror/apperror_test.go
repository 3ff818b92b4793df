package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// TABLE-DRIVEN TESTS:
// Each case names the error under test and the sentinel it should (or should
// not) match through errors.Is.
func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("idea", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("you can only edit your own ideas"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid credentials"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Persistence wraps ErrPersistence",
			err:       Persistence(errors.New("disk I/O error")),
			target:    ErrPersistence,
			wantMatch: true,
		},
		{
			name:      "wrapped with fmt.Errorf still matches",
			err:       fmt.Errorf("service: %w", NotFound("comment", "c1")),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("idea", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Forbidden does NOT match ErrUnauthorized",
			err:       Forbidden("nope"),
			target:    ErrUnauthorized,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("idea", "abc123"),
			wantMessage: "idea not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("title", "title is required"),
			wantMessage: "title is required",
		},
		{
			name:        "Persistence includes the cause for logs",
			err:         Persistence(errors.New("database is locked")),
			wantMessage: "the operation could not be saved: database is locked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestPersistenceMatchesCause(t *testing.T) {
	cause := errors.New("constraint failed")
	err := Persistence(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is(Persistence(cause), cause) = false, want true")
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("email", "invalid email format")

	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
	if err.Fields["email"] != "invalid email format" {
		t.Errorf("Fields[email] = %q, want %q", err.Fields["email"], "invalid email format")
	}
}

func TestFieldErrors(t *testing.T) {
	err := fmt.Errorf("register: %w", InvalidFields("username", map[string]string{
		"username": "username is already taken",
		"email":    "email is already registered",
	}))

	fields := FieldErrors(err)
	if len(fields) != 2 {
		t.Fatalf("FieldErrors() returned %d fields, want 2", len(fields))
	}
	if got := Message(err, "fallback"); got != "username is already taken" {
		t.Errorf("Message() = %q, want %q", got, "username is already taken")
	}
}

func TestMessage_HidesPersistenceDetails(t *testing.T) {
	err := Persistence(errors.New("SQL logic error near SELECT"))

	if got := Message(err, "Something went wrong"); got != "Something went wrong" {
		t.Errorf("Message() = %q, want fallback", got)
	}
	if got := Message(errors.New("raw"), "fallback"); got != "fallback" {
		t.Errorf("Message() on plain error = %q, want fallback", got)
	}
}
