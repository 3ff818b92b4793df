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

// compile-time check that *queries implements repository.Queries
var _ repository.Queries = (*queries)(nil)

const userColumns = `id, email, username, display_name, password_hash, is_admin,
	bio, website_url, github_username, created_at`

// CreateUser inserts a new user, generating its ID and creation time.
//
// A duplicate email or username is reported as a validation error naming
// the offending field, so a registration race that slips past the service's
// pre-check still surfaces as an inline form message.
func (q *queries) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := q.ext.ExecContext(ctx, q.ext.Rebind(
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		user.ID,
		user.Email,
		user.Username,
		user.DisplayName,
		user.PasswordHash,
		user.IsAdmin,
		user.Bio,
		user.WebsiteURL,
		user.GitHubUsername,
		user.CreatedAt,
	)
	if err != nil {
		if column, ok := uniqueViolation(err); ok {
			switch column {
			case "email":
				return apperror.ValidationFailed("email", "email is already registered")
			case "username":
				return apperror.ValidationFailed("username", "username is already taken")
			}
		}
		return fmt.Errorf("sqlstore: creating user %q: %w", user.Username, err)
	}
	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (q *queries) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return q.getUser(ctx, "id", id)
}

// GetUserByEmail is used by login; emails are stored as entered (trimmed,
// lower-cased by the form layer).
func (q *queries) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return q.getUser(ctx, "email", email)
}

func (q *queries) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return q.getUser(ctx, "username", username)
}

// getUser looks a user up by one unique column. column is always a constant
// from this file, never user input.
func (q *queries) getUser(ctx context.Context, column, value string) (*model.User, error) {
	var u model.User
	err := sqlx.GetContext(ctx, q.ext, &u, q.ext.Rebind(
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`), value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlstore: getting user by %s: %w", column, err)
	}
	return &u, nil
}

// UpdateUserProfile writes the editable profile fields. Email, username,
// password and admin flag are not touched.
func (q *queries) UpdateUserProfile(ctx context.Context, user *model.User) error {
	result, err := q.ext.ExecContext(ctx, q.ext.Rebind(
		`UPDATE users
		 SET display_name = ?, bio = ?, website_url = ?, github_username = ?
		 WHERE id = ?`),
		user.DisplayName,
		user.Bio,
		user.WebsiteURL,
		user.GitHubUsername,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: updating user %s: %w", user.ID, err)
	}
	return expectAffected(result, "user", user.ID)
}

// SetUserAdmin grants or revokes the admin flag.
func (q *queries) SetUserAdmin(ctx context.Context, id string, admin bool) error {
	result, err := q.ext.ExecContext(ctx, q.ext.Rebind(
		`UPDATE users SET is_admin = ? WHERE id = ?`), admin, id)
	if err != nil {
		return fmt.Errorf("sqlstore: setting admin flag on user %s: %w", id, err)
	}
	return expectAffected(result, "user", id)
}

// DeleteUser removes a user. Foreign keys cascade the delete to the user's
// ideas, implementations and comments (and everything hanging off them).
func (q *queries) DeleteUser(ctx context.Context, id string) error {
	result, err := q.ext.ExecContext(ctx, q.ext.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting user %s: %w", id, err)
	}
	return expectAffected(result, "user", id)
}

// expectAffected turns "no rows changed" into a NotFound error.
func expectAffected(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
