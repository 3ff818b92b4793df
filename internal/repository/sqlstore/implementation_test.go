package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/reqimple/reqimple/internal/apperror"
	"github.com/reqimple/reqimple/internal/model"
)

func TestImplementationCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	builder := createTestUser(t, db, "builder")
	idea := createTestIdea(t, db, owner, "Recipe scaler")

	impl := createTestImplementation(t, db, idea, builder)

	got, err := db.GetImplementationByID(ctx, impl.ID)
	if err != nil {
		t.Fatalf("GetImplementationByID() error = %v", err)
	}
	if got.Status != model.ImplementationPending {
		t.Errorf("Status = %q, want pending", got.Status)
	}
	if got.IdeaTitle != "Recipe scaler" {
		t.Errorf("IdeaTitle = %q, want %q", got.IdeaTitle, "Recipe scaler")
	}
	if got.AuthorUsername != "builder" {
		t.Errorf("AuthorUsername = %q, want %q", got.AuthorUsername, "builder")
	}
	if got.Type != model.TypePrototype || got.ExternalURL != "http://x.com" {
		t.Errorf("type/url not persisted: %+v", got)
	}
}

func TestImplementationCreate_RejectsUnknownType(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	idea := createTestIdea(t, db, owner, "idea")

	err := db.CreateImplementation(context.Background(), &model.Implementation{
		Title:       "bad",
		Description: "bad type",
		ExternalURL: "http://x.com",
		Type:        "mixtape",
		Status:      model.ImplementationPending,
		IdeaID:      idea.ID,
		AuthorID:    owner.ID,
	})

	if err == nil {
		t.Fatal("CreateImplementation() should reject a type outside the CHECK list")
	}
}

func TestImplementationUpdateStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	idea := createTestIdea(t, db, owner, "idea")
	impl := createTestImplementation(t, db, idea, owner)

	if err := db.UpdateImplementationStatus(ctx, impl.ID, model.ImplementationVerified); err != nil {
		t.Fatalf("UpdateImplementationStatus() error = %v", err)
	}
	got, _ := db.GetImplementationByID(ctx, impl.ID)
	if got.Status != model.ImplementationVerified {
		t.Errorf("Status = %q, want verified", got.Status)
	}

	err := db.UpdateImplementationStatus(ctx, "missing", model.ImplementationVerified)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateImplementationStatus(missing) error = %v, want ErrNotFound", err)
	}
}

func TestImplementationListings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	builder := createTestUser(t, db, "builder")
	ideaA := createTestIdea(t, db, owner, "A")
	ideaB := createTestIdea(t, db, owner, "B")

	oldest := createTestImplementation(t, db, ideaA, builder)
	middle := createTestImplementation(t, db, ideaB, builder)
	newest := createTestImplementation(t, db, ideaA, owner)

	if err := db.UpdateImplementationStatus(ctx, middle.ID, model.ImplementationVerified); err != nil {
		t.Fatalf("UpdateImplementationStatus() error = %v", err)
	}

	t.Run("pending queue is oldest first", func(t *testing.T) {
		pending, err := db.ListImplementationsByStatus(ctx, model.ImplementationPending)
		if err != nil {
			t.Fatalf("ListImplementationsByStatus() error = %v", err)
		}
		if len(pending) != 2 {
			t.Fatalf("got %d pending, want 2", len(pending))
		}
		if pending[0].ID != oldest.ID || pending[1].ID != newest.ID {
			t.Errorf("order = [%s %s], want [%s %s]", pending[0].ID, pending[1].ID, oldest.ID, newest.ID)
		}
	})

	t.Run("by author filters on status", func(t *testing.T) {
		verified, err := db.ListImplementationsByAuthor(ctx, builder.ID, model.ImplementationVerified)
		if err != nil {
			t.Fatalf("ListImplementationsByAuthor() error = %v", err)
		}
		if len(verified) != 1 || verified[0].ID != middle.ID {
			t.Errorf("verified = %+v, want only %q", verified, middle.ID)
		}
	})

	t.Run("by idea returns every status", func(t *testing.T) {
		impls, err := db.ListImplementationsByIdea(ctx, ideaA.ID)
		if err != nil {
			t.Fatalf("ListImplementationsByIdea() error = %v", err)
		}
		if len(impls) != 2 {
			t.Fatalf("got %d, want 2", len(impls))
		}
		if impls[0].ID != newest.ID {
			t.Errorf("first = %q, want newest %q", impls[0].ID, newest.ID)
		}
	})
}

func TestImplementationDelete_CascadesComments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	idea := createTestIdea(t, db, owner, "idea")
	impl := createTestImplementation(t, db, idea, owner)
	comment := createTestComment(t, db, model.ImplementationParent(impl.ID), owner)
	ideaComment := createTestComment(t, db, model.IdeaParent(idea.ID), owner)

	if err := db.DeleteImplementation(ctx, impl.ID); err != nil {
		t.Fatalf("DeleteImplementation() error = %v", err)
	}

	if _, err := db.GetCommentByID(ctx, comment.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("comment survived: %v", err)
	}
	if _, err := db.GetCommentByID(ctx, ideaComment.ID); err != nil {
		t.Errorf("idea comment should stay: %v", err)
	}
	if _, err := db.GetIdeaByID(ctx, idea.ID); err != nil {
		t.Errorf("idea should stay: %v", err)
	}
}
