package service

import (
	"context"
	"testing"

	"github.com/reqimple/reqimple/internal/apperror"
	"github.com/reqimple/reqimple/internal/form"
	"github.com/reqimple/reqimple/internal/model"
)

func TestImplementationCreate_StartsPending(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "user_a")
	b := env.register(t, "user_b")
	idea := env.postIdea(t, a, "Idea1")

	impl := env.submitImplementation(t, b, idea.ID)

	if impl.Status != model.ImplementationPending {
		t.Errorf("Status = %q, want pending", impl.Status)
	}
	if impl.IdeaTitle != "Idea1" || impl.AuthorUsername != "user_b" {
		t.Errorf("joined fields = %q/%q", impl.IdeaTitle, impl.AuthorUsername)
	}
}

func TestImplementationCreate_Validation(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "user_a")
	idea := env.postIdea(t, a, "Idea1")

	tests := []struct {
		name      string
		mutate    func(f *form.Implementation)
		wantField string
		wantMsg   string
	}{
		{
			name:      "short description",
			mutate:    func(f *form.Implementation) { f.Description = "too short" },
			wantField: "description",
			wantMsg:   "Description must be at least 30 characters long.",
		},
		{
			name:      "unknown type",
			mutate:    func(f *form.Implementation) { f.Type = "video" },
			wantField: "type",
			wantMsg:   "Not a valid choice.",
		},
		{
			name:      "missing url",
			mutate:    func(f *form.Implementation) { f.ExternalURL = "" },
			wantField: "external_url",
			wantMsg:   "This field is required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validImplementationForm()
			tt.mutate(&f)

			_, err := env.impls.Create(context.Background(), a, idea.ID, f)

			assertKind(t, err, apperror.ErrValidation)
			if got := apperror.FieldErrors(err)[tt.wantField]; got != tt.wantMsg {
				t.Errorf("FieldErrors[%s] = %q, want %q", tt.wantField, got, tt.wantMsg)
			}
		})
	}
}

func TestImplementationCreate_UnknownIdea(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "user_a")

	_, err := env.impls.Create(context.Background(), a, "missing", validImplementationForm())

	assertKind(t, err, apperror.ErrNotFound)
}

// =========================================================================
// MODERATION TESTS
// =========================================================================

func TestToggleVerified_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.register(t, "user_a")
	admin := env.registerAdmin(t, "root")
	idea := env.postIdea(t, a, "Idea1")
	impl := env.submitImplementation(t, a, idea.ID)

	got, err := env.impls.ToggleVerified(ctx, admin, impl.ID)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if got.Status != model.ImplementationVerified {
		t.Errorf("after first toggle Status = %q, want verified", got.Status)
	}

	got, err = env.impls.ToggleVerified(ctx, admin, impl.ID)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if got.Status != model.ImplementationPending {
		t.Errorf("after second toggle Status = %q, want pending", got.Status)
	}
}

func TestToggleVerified_NonAdminForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.register(t, "user_a")
	idea := env.postIdea(t, a, "Idea1")
	impl := env.submitImplementation(t, a, idea.ID)

	_, err := env.impls.ToggleVerified(ctx, a, impl.ID)
	assertKind(t, err, apperror.ErrForbidden)

	page, _ := env.impls.Page(ctx, impl.ID)
	if page.Implementation.Status != model.ImplementationPending {
		t.Errorf("Status = %q after a forbidden toggle", page.Implementation.Status)
	}
}

func TestToggleVerified_HiddenIsRefused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.register(t, "user_a")
	admin := env.registerAdmin(t, "root")
	idea := env.postIdea(t, a, "Idea1")
	impl := env.submitImplementation(t, a, idea.ID)
	if err := env.store.UpdateImplementationStatus(ctx, impl.ID, model.ImplementationHidden); err != nil {
		t.Fatalf("UpdateImplementationStatus() error = %v", err)
	}

	_, err := env.impls.ToggleVerified(ctx, admin, impl.ID)

	assertKind(t, err, apperror.ErrValidation)
	page, _ := env.impls.Page(ctx, impl.ID)
	if page.Implementation.Status != model.ImplementationHidden {
		t.Errorf("Status = %q, hidden must be left alone", page.Implementation.Status)
	}
}

func TestListPending_AdminOnlyOldestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.register(t, "user_a")
	admin := env.registerAdmin(t, "root")
	idea := env.postIdea(t, a, "Idea1")
	first := env.submitImplementation(t, a, idea.ID)
	second := env.submitImplementation(t, a, idea.ID)

	_, err := env.impls.ListPending(ctx, a)
	assertKind(t, err, apperror.ErrForbidden)

	queue, err := env.impls.ListPending(ctx, admin)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(queue) != 2 || queue[0].ID != first.ID || queue[1].ID != second.ID {
		t.Errorf("queue = %+v, want [%s %s]", queue, first.ID, second.ID)
	}
}

func TestListVerifiedByAuthor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.register(t, "user_a")
	b := env.register(t, "user_b")
	admin := env.registerAdmin(t, "root")
	idea := env.postIdea(t, a, "Idea1")
	impl := env.submitImplementation(t, b, idea.ID)
	env.submitImplementation(t, b, idea.ID)

	list, _ := env.impls.ListVerifiedByAuthor(ctx, b.UserID)
	if len(list) != 0 {
		t.Fatalf("pending implementations listed as verified: %+v", list)
	}

	if _, err := env.impls.ToggleVerified(ctx, admin, impl.ID); err != nil {
		t.Fatalf("ToggleVerified() error = %v", err)
	}
	list, err := env.impls.ListVerifiedByAuthor(ctx, b.UserID)
	if err != nil {
		t.Fatalf("ListVerifiedByAuthor() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != impl.ID {
		t.Errorf("verified = %+v, want only %s", list, impl.ID)
	}
}
