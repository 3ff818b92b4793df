package service

import (
	"context"
	"log/slog"

	"github.com/reqimple/reqimple/internal/apperror"
	"github.com/reqimple/reqimple/internal/form"
	"github.com/reqimple/reqimple/internal/metrics"
	"github.com/reqimple/reqimple/internal/model"
	"github.com/reqimple/reqimple/internal/repository"
)

// CommentService attaches comments to ideas and implementations.
type CommentService struct {
	store   repository.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewCommentService(store repository.Store, m *metrics.Metrics, logger *slog.Logger) *CommentService {
	return &CommentService{store: store, metrics: m, logger: logger}
}

// Add posts a comment on parent. The parent must exist.
func (s *CommentService) Add(ctx context.Context, p model.Principal, parent model.CommentParent, f form.Comment) (*model.Comment, error) {
	if err := requireLogin(p); err != nil {
		return nil, err
	}
	if !parent.Valid() {
		return nil, apperror.ValidationFailed("parent", "Unknown comment target.")
	}

	comment := &model.Comment{Parent: parent, AuthorID: p.UserID}
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		if err := parentExists(ctx, q, parent); err != nil {
			return err
		}
		if err := form.Validate(&f); err != nil {
			return err
		}
		comment.Content = f.Content
		return q.CreateComment(ctx, comment)
	})
	if err != nil {
		return nil, err
	}
	comment.AuthorUsername = p.Username

	s.metrics.CommentPosted(string(parent.Kind))
	s.logger.Info("comment added",
		slog.String("id", comment.ID),
		slog.String("parent", string(parent.Kind)),
		slog.String("parentID", parent.ID),
		slog.String("author", p.Username),
	)
	return comment, nil
}

// Delete removes a comment on behalf of p. route is the parent kind of the
// URL the request came through, which decides the rules:
//
//   - idea route: only the comment's author
//   - implementation route: the author or an admin, and the comment must
//     belong to an implementation
//
// The deleted comment is returned so the caller can redirect to its parent.
func (s *CommentService) Delete(ctx context.Context, p model.Principal, id string, route model.ParentKind) (*model.Comment, error) {
	if err := requireLogin(p); err != nil {
		return nil, err
	}

	var comment *model.Comment
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		var err error
		comment, err = q.GetCommentByID(ctx, id)
		if err != nil {
			return err
		}
		if !canDeleteComment(p, comment, route) {
			if route == model.ParentImplementation && comment.Parent.Kind != model.ParentImplementation {
				return apperror.ValidationFailed("comment", "This comment does not belong to an implementation.")
			}
			return apperror.Forbidden("You can only delete your own comments.")
		}
		return q.DeleteComment(ctx, id)
	})
	if err != nil {
		return comment, err
	}

	s.logger.Info("comment deleted",
		slog.String("id", id),
		slog.String("route", string(route)),
		slog.String("by", p.Username),
	)
	return comment, nil
}

func canDeleteComment(p model.Principal, c *model.Comment, route model.ParentKind) bool {
	switch route {
	case model.ParentImplementation:
		if c.Parent.Kind != model.ParentImplementation {
			return false
		}
		return p.Owns(c.AuthorID) || p.IsAdmin
	default:
		return p.Owns(c.AuthorID)
	}
}

func parentExists(ctx context.Context, q repository.Queries, parent model.CommentParent) error {
	var err error
	switch parent.Kind {
	case model.ParentIdea:
		_, err = q.GetIdeaByID(ctx, parent.ID)
	case model.ParentImplementation:
		_, err = q.GetImplementationByID(ctx, parent.ID)
	}
	return err
}
