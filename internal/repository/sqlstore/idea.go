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
	"github.com/reqimple/reqimple/internal/repository"
)

// ideaSelect joins the author so every idea comes back with a username.
const ideaSelect = `SELECT i.id, i.title, i.description, i.status, i.author_id,
	u.username AS author_username, i.created_at, i.updated_at
	FROM ideas i
	JOIN users u ON u.id = i.author_id`

// CreateIdea inserts an idea, setting its ID and both timestamps.
func (q *queries) CreateIdea(ctx context.Context, idea *model.Idea) error {
	now := time.Now().UTC()
	idea.ID = xid.New().String()
	idea.CreatedAt = now
	idea.UpdatedAt = now

	_, err := q.ext.ExecContext(ctx, q.ext.Rebind(
		`INSERT INTO ideas (id, title, description, status, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		idea.ID,
		idea.Title,
		idea.Description,
		idea.Status,
		idea.AuthorID,
		idea.CreatedAt,
		idea.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: creating idea: %w", err)
	}
	return nil
}

// GetIdeaByID returns apperror.ErrNotFound if the idea doesn't exist.
func (q *queries) GetIdeaByID(ctx context.Context, id string) (*model.Idea, error) {
	var idea model.Idea
	err := sqlx.GetContext(ctx, q.ext, &idea, q.ext.Rebind(ideaSelect+` WHERE i.id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("idea", id)
		}
		return nil, fmt.Errorf("sqlstore: getting idea %s: %w", id, err)
	}
	return &idea, nil
}

// UpdateIdea writes title, description and status, and always refreshes
// updated_at.
func (q *queries) UpdateIdea(ctx context.Context, idea *model.Idea) error {
	idea.UpdatedAt = time.Now().UTC()

	result, err := q.ext.ExecContext(ctx, q.ext.Rebind(
		`UPDATE ideas
		 SET title = ?, description = ?, status = ?, updated_at = ?
		 WHERE id = ?`),
		idea.Title,
		idea.Description,
		idea.Status,
		idea.UpdatedAt,
		idea.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: updating idea %s: %w", idea.ID, err)
	}
	return expectAffected(result, "idea", idea.ID)
}

// DeleteIdea removes an idea; its implementations and comments cascade.
func (q *queries) DeleteIdea(ctx context.Context, id string) error {
	result, err := q.ext.ExecContext(ctx, q.ext.Rebind(`DELETE FROM ideas WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting idea %s: %w", id, err)
	}
	return expectAffected(result, "idea", id)
}

// ListIdeasByStatus returns ideas in status, newest first.
func (q *queries) ListIdeasByStatus(ctx context.Context, status model.IdeaStatus, opts repository.ListOptions) ([]model.Idea, error) {
	query := ideaSelect + ` WHERE i.status = ? ORDER BY i.created_at DESC, i.id DESC`
	args := []any{status}
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, max(opts.Offset, 0))
	}

	ideas := []model.Idea{}
	if err := sqlx.SelectContext(ctx, q.ext, &ideas, q.ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sqlstore: listing %s ideas: %w", status, err)
	}
	return ideas, nil
}

// ListIdeasByAuthor returns one author's ideas in status, newest first.
func (q *queries) ListIdeasByAuthor(ctx context.Context, authorID string, status model.IdeaStatus) ([]model.Idea, error) {
	ideas := []model.Idea{}
	err := sqlx.SelectContext(ctx, q.ext, &ideas, q.ext.Rebind(
		ideaSelect+` WHERE i.author_id = ? AND i.status = ? ORDER BY i.created_at DESC, i.id DESC`),
		authorID, status)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing ideas by author %s: %w", authorID, err)
	}
	return ideas, nil
}
