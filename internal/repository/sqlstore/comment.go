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

// commentRow is the storage shape of a comment. The parent id comes back as
// whichever of idea_id / implementation_id is set; the CHECK constraint on
// the table guarantees it is exactly one, matching parent_type.
type commentRow struct {
	ID             string    `db:"id"`
	Content        string    `db:"content"`
	ParentType     string    `db:"parent_type"`
	ParentID       string    `db:"parent_id"`
	AuthorID       string    `db:"author_id"`
	AuthorUsername string    `db:"author_username"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r commentRow) toModel() model.Comment {
	return model.Comment{
		ID:             r.ID,
		Content:        r.Content,
		Parent:         model.CommentParent{Kind: model.ParentKind(r.ParentType), ID: r.ParentID},
		AuthorID:       r.AuthorID,
		AuthorUsername: r.AuthorUsername,
		CreatedAt:      r.CreatedAt,
	}
}

const commentSelect = `SELECT c.id, c.content, c.parent_type,
	COALESCE(c.idea_id, c.implementation_id) AS parent_id,
	c.author_id, u.username AS author_username, c.created_at
	FROM comments c
	JOIN users u ON u.id = c.author_id`

// parentColumns maps the tagged parent onto the two concrete foreign key
// columns. Exactly one of the returned values is non-nil.
func parentColumns(p model.CommentParent) (ideaID, implementationID any, err error) {
	switch p.Kind {
	case model.ParentIdea:
		return p.ID, nil, nil
	case model.ParentImplementation:
		return nil, p.ID, nil
	}
	return nil, nil, apperror.ValidationFailed("parent", fmt.Sprintf("unknown comment parent %q", p.Kind))
}

// parentColumn names the foreign key column to filter on for kind.
func parentColumn(kind model.ParentKind) (string, error) {
	switch kind {
	case model.ParentIdea:
		return "c.idea_id", nil
	case model.ParentImplementation:
		return "c.implementation_id", nil
	}
	return "", apperror.ValidationFailed("parent", fmt.Sprintf("unknown comment parent %q", kind))
}

// CreateComment inserts a comment, deriving the concrete foreign key from
// comment.Parent.
func (q *queries) CreateComment(ctx context.Context, comment *model.Comment) error {
	ideaID, implementationID, err := parentColumns(comment.Parent)
	if err != nil {
		return err
	}

	comment.ID = xid.New().String()
	comment.CreatedAt = time.Now().UTC()

	_, err = q.ext.ExecContext(ctx, q.ext.Rebind(
		`INSERT INTO comments
		 (id, content, parent_type, idea_id, implementation_id, author_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		comment.ID,
		comment.Content,
		string(comment.Parent.Kind),
		ideaID,
		implementationID,
		comment.AuthorID,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: creating comment on %s %s: %w",
			comment.Parent.Kind, comment.Parent.ID, err)
	}
	return nil
}

func (q *queries) GetCommentByID(ctx context.Context, id string) (*model.Comment, error) {
	var row commentRow
	err := sqlx.GetContext(ctx, q.ext, &row, q.ext.Rebind(commentSelect+` WHERE c.id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("comment", id)
		}
		return nil, fmt.Errorf("sqlstore: getting comment %s: %w", id, err)
	}
	c := row.toModel()
	return &c, nil
}

func (q *queries) DeleteComment(ctx context.Context, id string) error {
	result, err := q.ext.ExecContext(ctx, q.ext.Rebind(`DELETE FROM comments WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting comment %s: %w", id, err)
	}
	return expectAffected(result, "comment", id)
}

// ListCommentsByParent returns a parent's comments. Idea threads read
// top-down (oldest first); implementation threads show the newest first.
func (q *queries) ListCommentsByParent(ctx context.Context, parent model.CommentParent) ([]model.Comment, error) {
	column, err := parentColumn(parent.Kind)
	if err != nil {
		return nil, err
	}
	order := "ASC"
	if parent.Kind == model.ParentImplementation {
		order = "DESC"
	}

	rows := []commentRow{}
	err = sqlx.SelectContext(ctx, q.ext, &rows, q.ext.Rebind(
		commentSelect+` WHERE c.parent_type = ? AND `+column+` = ?
		 ORDER BY c.created_at `+order+`, c.id `+order),
		string(parent.Kind), parent.ID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing comments of %s %s: %w", parent.Kind, parent.ID, err)
	}

	comments := make([]model.Comment, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, r.toModel())
	}
	return comments, nil
}

// CountCommentsByAuthor feeds the profile statistics.
func (q *queries) CountCommentsByAuthor(ctx context.Context, authorID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, q.ext, &n, q.ext.Rebind(
		`SELECT COUNT(*) FROM comments WHERE author_id = ?`), authorID)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: counting comments by %s: %w", authorID, err)
	}
	return n, nil
}
