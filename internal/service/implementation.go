package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reqimple/reqimple/internal/apperror"
	"github.com/reqimple/reqimple/internal/form"
	"github.com/reqimple/reqimple/internal/metrics"
	"github.com/reqimple/reqimple/internal/model"
	"github.com/reqimple/reqimple/internal/repository"
)

// ImplementationService handles submissions and the moderation workflow.
//
// MODERATION WORKFLOW:
//
//	create ──► pending ◄──toggle──► verified
//
// Only admins toggle. hidden is a valid stored status that nothing in the
// application produces; a hidden implementation is refused by the toggle
// rather than silently moved.
type ImplementationService struct {
	store   repository.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewImplementationService(store repository.Store, m *metrics.Metrics, logger *slog.Logger) *ImplementationService {
	return &ImplementationService{store: store, metrics: m, logger: logger}
}

// ImplementationPage is what the implementation detail page shows.
type ImplementationPage struct {
	Implementation *model.Implementation
	Comments       []model.Comment
}

// Create submits an implementation of ideaID. It always starts pending,
// whatever the caller passes.
func (s *ImplementationService) Create(ctx context.Context, p model.Principal, ideaID string, f form.Implementation) (*model.Implementation, error) {
	if err := requireLogin(p); err != nil {
		return nil, err
	}

	var impl *model.Implementation
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		idea, err := q.GetIdeaByID(ctx, ideaID)
		if err != nil {
			return err
		}
		if err := form.Validate(&f); err != nil {
			return err
		}

		impl = &model.Implementation{
			Title:       f.Title,
			Description: f.Description,
			ExternalURL: f.ExternalURL,
			Type:        model.ImplementationType(f.Type),
			Status:      model.ImplementationPending,
			IdeaID:      idea.ID,
			IdeaTitle:   idea.Title,
			AuthorID:    p.UserID,
		}
		return q.CreateImplementation(ctx, impl)
	})
	if err != nil {
		return nil, err
	}
	impl.AuthorUsername = p.Username

	s.metrics.ImplementationSubmitted()
	s.logger.Info("implementation submitted",
		slog.String("id", impl.ID),
		slog.String("ideaID", ideaID),
		slog.String("author", p.Username),
	)
	return impl, nil
}

// Page loads an implementation and its comments (newest first).
func (s *ImplementationService) Page(ctx context.Context, id string) (*ImplementationPage, error) {
	impl, err := s.store.GetImplementationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.ListCommentsByParent(ctx, model.ImplementationParent(id))
	if err != nil {
		return nil, fmt.Errorf("loading comments of implementation %s: %w", id, err)
	}
	return &ImplementationPage{Implementation: impl, Comments: comments}, nil
}

// ToggleVerified flips pending ⇄ verified. Admin only.
func (s *ImplementationService) ToggleVerified(ctx context.Context, p model.Principal, id string) (*model.Implementation, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	var impl *model.Implementation
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		var err error
		impl, err = q.GetImplementationByID(ctx, id)
		if err != nil {
			return err
		}
		next, ok := impl.Status.Toggled()
		if !ok {
			return apperror.ValidationFailed("status",
				fmt.Sprintf("A %s implementation cannot be toggled.", impl.Status))
		}
		if err := q.UpdateImplementationStatus(ctx, id, next); err != nil {
			return err
		}
		impl.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ImplementationModerated(string(impl.Status))
	s.logger.Info("implementation moderated",
		slog.String("id", id),
		slog.String("status", string(impl.Status)),
		slog.String("admin", p.Username),
	)
	return impl, nil
}

// ListPending is the moderation queue, oldest first. Admin only.
func (s *ImplementationService) ListPending(ctx context.Context, p model.Principal) ([]model.Implementation, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.store.ListImplementationsByStatus(ctx, model.ImplementationPending)
}

// ListVerifiedByAuthor returns a user's verified implementations, newest
// first. Public.
func (s *ImplementationService) ListVerifiedByAuthor(ctx context.Context, authorID string) ([]model.Implementation, error) {
	return s.store.ListImplementationsByAuthor(ctx, authorID, model.ImplementationVerified)
}
