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

// IdeaService handles the idea lifecycle: posting, editing, deleting and
// the public feed.
type IdeaService struct {
	store   repository.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewIdeaService(store repository.Store, m *metrics.Metrics, logger *slog.Logger) *IdeaService {
	return &IdeaService{store: store, metrics: m, logger: logger}
}

// IdeaPage is everything the idea detail page shows.
type IdeaPage struct {
	Idea            *model.Idea
	Comments        []model.Comment
	Implementations []model.Implementation
	CanEdit         bool
}

// Create posts a new idea. Ideas go live immediately (status active).
// source labels the transport for metrics.
func (s *IdeaService) Create(ctx context.Context, p model.Principal, f form.Idea, source string) (*model.Idea, error) {
	if err := requireLogin(p); err != nil {
		return nil, err
	}
	if err := form.Validate(&f); err != nil {
		return nil, err
	}

	idea := &model.Idea{
		Title:       f.Title,
		Description: f.Description,
		Status:      model.IdeaActive,
		AuthorID:    p.UserID,
	}
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		return q.CreateIdea(ctx, idea)
	})
	if err != nil {
		return nil, err
	}
	idea.AuthorUsername = p.Username

	s.metrics.IdeaCreated(source)
	s.logger.Info("idea created",
		slog.String("id", idea.ID),
		slog.String("author", p.Username),
		slog.String("source", source),
	)
	return idea, nil
}

// Get returns an idea by id regardless of status.
func (s *IdeaService) Get(ctx context.Context, id string) (*model.Idea, error) {
	return s.store.GetIdeaByID(ctx, id)
}

// Page loads an idea with its comments and the implementations p may see:
// verified ones for everybody, plus p's own pending ones, plus everything
// for admins.
func (s *IdeaService) Page(ctx context.Context, p model.Principal, id string) (*IdeaPage, error) {
	idea, err := s.store.GetIdeaByID(ctx, id)
	if err != nil {
		return nil, err
	}

	comments, err := s.store.ListCommentsByParent(ctx, model.IdeaParent(id))
	if err != nil {
		return nil, fmt.Errorf("loading comments of idea %s: %w", id, err)
	}

	all, err := s.store.ListImplementationsByIdea(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading implementations of idea %s: %w", id, err)
	}
	visible := make([]model.Implementation, 0, len(all))
	for _, impl := range all {
		if impl.Status == model.ImplementationVerified || p.IsAdmin || p.Owns(impl.AuthorID) {
			visible = append(visible, impl)
		}
	}

	return &IdeaPage{
		Idea:            idea,
		Comments:        comments,
		Implementations: visible,
		CanEdit:         canManageIdea(p, idea),
	}, nil
}

// ListActive returns the public feed, newest first. limit ≤ 0 returns
// every active idea.
func (s *IdeaService) ListActive(ctx context.Context, limit int) ([]model.Idea, error) {
	ideas, err := s.store.ListIdeasByStatus(ctx, model.IdeaActive, repository.ListOptions{Limit: limit})
	if err != nil {
		s.logger.Error("failed to list active ideas", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing active ideas: %w", err)
	}
	return ideas, nil
}

// Edit updates title, description and status. Only the author or an
// admin may edit; anyone else gets apperror.ErrForbidden and the idea is
// left untouched.
func (s *IdeaService) Edit(ctx context.Context, p model.Principal, id string, f form.EditIdea) (*model.Idea, error) {
	if err := requireLogin(p); err != nil {
		return nil, err
	}

	var idea *model.Idea
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		var err error
		idea, err = q.GetIdeaByID(ctx, id)
		if err != nil {
			return err
		}
		if !canManageIdea(p, idea) {
			return apperror.Forbidden("You can only edit your own ideas.")
		}
		if err := form.Validate(&f); err != nil {
			return err
		}

		idea.Title = f.Title
		idea.Description = f.Description
		idea.Status = model.IdeaStatus(f.Status)
		return q.UpdateIdea(ctx, idea)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("idea updated",
		slog.String("id", id),
		slog.String("editor", p.Username),
		slog.String("status", string(idea.Status)),
	)
	return idea, nil
}

// Authorize checks that p may edit or delete the idea without changing it.
// The edit page uses it before rendering the form.
func (s *IdeaService) Authorize(ctx context.Context, p model.Principal, id string) (*model.Idea, error) {
	if err := requireLogin(p); err != nil {
		return nil, err
	}
	idea, err := s.store.GetIdeaByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageIdea(p, idea) {
		return nil, apperror.Forbidden("You can only edit your own ideas.")
	}
	return idea, nil
}

// Delete removes an idea together with its implementations and comments.
// Same permission rule as Edit.
func (s *IdeaService) Delete(ctx context.Context, p model.Principal, id string) error {
	if err := requireLogin(p); err != nil {
		return err
	}

	err := s.store.InTx(ctx, func(q repository.Queries) error {
		idea, err := q.GetIdeaByID(ctx, id)
		if err != nil {
			return err
		}
		if !canManageIdea(p, idea) {
			return apperror.Forbidden("You can only delete your own ideas.")
		}
		return q.DeleteIdea(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("idea deleted", slog.String("id", id), slog.String("by", p.Username))
	return nil
}

func canManageIdea(p model.Principal, idea *model.Idea) bool {
	return p.IsAdmin || p.Owns(idea.AuthorID)
}
