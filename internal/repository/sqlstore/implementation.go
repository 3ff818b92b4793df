package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"

	"github.com/reqimple/reqimple/internal/apperror"
	"github.com/reqimple/reqimple/internal/model"
)

const implementationSelect = `SELECT m.id, m.title, m.description, m.external_url, m.type, m.status,
	m.idea_id, i.title AS idea_title, m.author_id, u.username AS author_username, m.created_at
	FROM implementations m
	JOIN ideas i ON i.id = m.idea_id
	JOIN users u ON u.id = m.author_id`

// CreateImplementation inserts an implementation with the status it carries.
// The service decides the initial status; the schema defaults to pending.
func (q *queries) CreateImplementation(ctx context.Context, impl *model.Implementation) error {
	impl.ID = xid.New().String()
	impl.CreatedAt = time.Now().UTC()

	_, err := q.ext.ExecContext(ctx, q.ext.Rebind(
		`INSERT INTO implementations
		 (id, title, description, external_url, type, status, idea_id, author_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		impl.ID,
		impl.Title,
		impl.Description,
		impl.ExternalURL,
		impl.Type,
		impl.Status,
		impl.IdeaID,
		impl.AuthorID,
		impl.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: creating implementation for idea %s: %w", impl.IdeaID, err)
	}
	return nil
}

func (q *queries) GetImplementationByID(ctx context.Context, id string) (*model.Implementation, error) {
	var impl model.Implementation
	err := sqlx.GetContext(ctx, q.ext, &impl, q.ext.Rebind(implementationSelect+` WHERE m.id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("implementation", id)
		}
		return nil, fmt.Errorf("sqlstore: getting implementation %s: %w", id, err)
	}
	return &impl, nil
}

func (q *queries) UpdateImplementationStatus(ctx context.Context, id string, status model.ImplementationStatus) error {
	result, err := q.ext.ExecContext(ctx, q.ext.Rebind(
		`UPDATE implementations SET status = ? WHERE id = ?`), status, id)
	if err != nil {
		return fmt.Errorf("sqlstore: setting implementation %s status: %w", id, err)
	}
	return expectAffected(result, "implementation", id)
}

// DeleteImplementation removes an implementation; its comments cascade.
func (q *queries) DeleteImplementation(ctx context.Context, id string) error {
	result, err := q.ext.ExecContext(ctx, q.ext.Rebind(`DELETE FROM implementations WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting implementation %s: %w", id, err)
	}
	return expectAffected(result, "implementation", id)
}

// ListImplementationsByStatus backs the moderation queue (oldest first, so
// the longest-waiting submission is reviewed first).
func (q *queries) ListImplementationsByStatus(ctx context.Context, status model.ImplementationStatus) ([]model.Implementation, error) {
	impls := []model.Implementation{}
	err := sqlx.SelectContext(ctx, q.ext, &impls, q.ext.Rebind(
		implementationSelect+` WHERE m.status = ? ORDER BY m.created_at ASC, m.id ASC`), status)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing %s implementations: %w", status, err)
	}
	return impls, nil
}

// ListImplementationsByAuthor returns one author's implementations in
// status, newest first.
func (q *queries) ListImplementationsByAuthor(ctx context.Context, authorID string, status model.ImplementationStatus) ([]model.Implementation, error) {
	impls := []model.Implementation{}
	err := sqlx.SelectContext(ctx, q.ext, &impls, q.ext.Rebind(
		implementationSelect+` WHERE m.author_id = ? AND m.status = ? ORDER BY m.created_at DESC, m.id DESC`),
		authorID, status)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing implementations by author %s: %w", authorID, err)
	}
	return impls, nil
}

// ListImplementationsByIdea returns every implementation of an idea
// regardless of status; callers decide what to show.
func (q *queries) ListImplementationsByIdea(ctx context.Context, ideaID string) ([]model.Implementation, error) {
	impls := []model.Implementation{}
	err := sqlx.SelectContext(ctx, q.ext, &impls, q.ext.Rebind(
		implementationSelect+` WHERE m.idea_id = ? ORDER BY m.created_at DESC, m.id DESC`), ideaID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing implementations of idea %s: %w", ideaID, err)
	}
	return impls, nil
}
