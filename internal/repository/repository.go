// Package repository declares the persistence contracts the service layer
// depends on. Implementations live in sub-packages (see repository/sqlstore).
//
// Services never see SQL: they receive a Store, run reads directly against
// it, and wrap every write in Store.InTx so it commits or rolls back as one
// unit.
package repository

import (
	"context"

	"github.com/reqimple/reqimple/internal/model"
)

// ListOptions bounds a listing. A Limit of zero or less means "no limit".
type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateUserProfile(ctx context.Context, user *model.User) error
	SetUserAdmin(ctx context.Context, id string, admin bool) error
	DeleteUser(ctx context.Context, id string) error
}

type IdeaRepository interface {
	CreateIdea(ctx context.Context, idea *model.Idea) error
	GetIdeaByID(ctx context.Context, id string) (*model.Idea, error)
	UpdateIdea(ctx context.Context, idea *model.Idea) error
	DeleteIdea(ctx context.Context, id string) error
	ListIdeasByStatus(ctx context.Context, status model.IdeaStatus, opts ListOptions) ([]model.Idea, error)
	ListIdeasByAuthor(ctx context.Context, authorID string, status model.IdeaStatus) ([]model.Idea, error)
}

type ImplementationRepository interface {
	CreateImplementation(ctx context.Context, impl *model.Implementation) error
	GetImplementationByID(ctx context.Context, id string) (*model.Implementation, error)
	UpdateImplementationStatus(ctx context.Context, id string, status model.ImplementationStatus) error
	DeleteImplementation(ctx context.Context, id string) error
	ListImplementationsByStatus(ctx context.Context, status model.ImplementationStatus) ([]model.Implementation, error)
	ListImplementationsByAuthor(ctx context.Context, authorID string, status model.ImplementationStatus) ([]model.Implementation, error)
	ListImplementationsByIdea(ctx context.Context, ideaID string) ([]model.Implementation, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetCommentByID(ctx context.Context, id string) (*model.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	ListCommentsByParent(ctx context.Context, parent model.CommentParent) ([]model.Comment, error)
	CountCommentsByAuthor(ctx context.Context, authorID string) (int, error)
}

// Queries is every repository operation, runnable either directly against
// the store or inside a transaction.
type Queries interface {
	UserRepository
	IdeaRepository
	ImplementationRepository
	CommentRepository
}

// Store is the persistence handle injected into services and the bot.
type Store interface {
	Queries

	// InTx runs fn inside a single transaction. If fn returns an error the
	// transaction is rolled back and the error is returned; unexpected
	// (non-domain) failures come back wrapped as apperror.ErrPersistence.
	InTx(ctx context.Context, fn func(q Queries) error) error

	Ping(ctx context.Context) error
}
