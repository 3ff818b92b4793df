package service

import (
	"context"
	"testing"

	"github.com/reqimple/reqimple/internal/form"
	"github.com/reqimple/reqimple/internal/model"
)

// TestScenario_IdeaToVerifiedImplementation walks the main flow end to end:
// A posts an idea, B implements it, an admin verifies the implementation.
func TestScenario_IdeaToVerifiedImplementation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userA, err := env.auth.Register(ctx, form.Register{Email: "a@x.com", Username: "user_a", DisplayName: "A", Password: "pa"})
	if err != nil {
		t.Fatalf("register A: %v", err)
	}
	a := userA.Principal()

	idea, err := env.ideas.Create(ctx, a, form.Idea{Title: "Idea1", Description: "desc"}, SourceWeb)
	if err != nil {
		t.Fatalf("create idea: %v", err)
	}
	if idea.Status != model.IdeaActive {
		t.Fatalf("idea status = %q, want active", idea.Status)
	}

	userB, err := env.auth.Register(ctx, form.Register{Email: "b@x.com", Username: "user_b", DisplayName: "B", Password: "pb"})
	if err != nil {
		t.Fatalf("register B: %v", err)
	}
	b := userB.Principal()

	impl, err := env.impls.Create(ctx, b, idea.ID, form.Implementation{
		Title:       "B's take",
		Description: "A thirty-plus character description of the build.",
		ExternalURL: "http://x.com",
		Type:        "prototype",
	})
	if err != nil {
		t.Fatalf("create implementation: %v", err)
	}
	if impl.Status != model.ImplementationPending {
		t.Fatalf("implementation status = %q, want pending", impl.Status)
	}

	if page, _ := env.ideas.Page(ctx, model.Anonymous, idea.ID); len(page.Implementations) != 0 {
		t.Errorf("pending implementation visible to anonymous viewers")
	}

	admin := env.registerAdmin(t, "root")
	queue, _ := env.impls.ListPending(ctx, admin)
	if len(queue) != 1 || queue[0].ID != impl.ID {
		t.Fatalf("moderation queue = %+v", queue)
	}

	verified, err := env.impls.ToggleVerified(ctx, admin, impl.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.Status != model.ImplementationVerified {
		t.Fatalf("status after toggle = %q, want verified", verified.Status)
	}

	list, _ := env.impls.ListVerifiedByAuthor(ctx, b.UserID)
	if len(list) != 1 || list[0].ID != impl.ID {
		t.Errorf("B's verified list = %+v", list)
	}
	profile, err := env.profiles.Get(ctx, "user_b")
	if err != nil {
		t.Fatalf("profile B: %v", err)
	}
	if len(profile.Implementations) != 1 || profile.Stats.ImplementationsCount != 1 {
		t.Errorf("B's profile shows %d implementations", len(profile.Implementations))
	}
	if page, _ := env.ideas.Page(ctx, model.Anonymous, idea.ID); len(page.Implementations) != 1 {
		t.Errorf("verified implementation not visible on the idea page")
	}
}
