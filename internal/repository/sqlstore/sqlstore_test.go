package sqlstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/reqimple/reqimple/internal/apperror"
	"github.com/reqimple/reqimple/internal/model"
	"github.com/reqimple/reqimple/internal/repository"
)

// TESTING WITH IN-MEMORY SQLITE:
// ":memory:" creates a fresh database that lives only as long as the
// connection. Each test gets its own, with migrations applied by Open.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	u := &model.User{
		Email:        username + "@example.com",
		Username:     username,
		DisplayName:  username,
		PasswordHash: "$2a$04$placeholderhashplaceholderhashplaceholderhashpla",
	}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

func createTestIdea(t *testing.T, db *DB, author *model.User, title string) *model.Idea {
	t.Helper()
	idea := &model.Idea{
		Title:       title,
		Description: "description of " + title,
		Status:      model.IdeaActive,
		AuthorID:    author.ID,
	}
	if err := db.CreateIdea(context.Background(), idea); err != nil {
		t.Fatalf("failed to create test idea: %v", err)
	}
	return idea
}

func createTestImplementation(t *testing.T, db *DB, idea *model.Idea, author *model.User) *model.Implementation {
	t.Helper()
	impl := &model.Implementation{
		Title:       "impl of " + idea.Title,
		Description: "a working prototype that does what the idea asks for",
		ExternalURL: "http://x.com",
		Type:        model.TypePrototype,
		Status:      model.ImplementationPending,
		IdeaID:      idea.ID,
		AuthorID:    author.ID,
	}
	if err := db.CreateImplementation(context.Background(), impl); err != nil {
		t.Fatalf("failed to create test implementation: %v", err)
	}
	return impl
}

func createTestComment(t *testing.T, db *DB, parent model.CommentParent, author *model.User) *model.Comment {
	t.Helper()
	c := &model.Comment{Content: "nice", Parent: parent, AuthorID: author.ID}
	if err := db.CreateComment(context.Background(), c); err != nil {
		t.Fatalf("failed to create test comment: %v", err)
	}
	return c
}

// =========================================================================
// URL PARSING
// =========================================================================

func TestParseURL(t *testing.T) {
	tests := []struct {
		url         string
		wantDialect Dialect
		wantDSN     string
	}{
		{"postgres://u:p@localhost/reqimple?sslmode=disable", DialectPostgres, "postgres://u:p@localhost/reqimple?sslmode=disable"},
		{"postgresql://localhost/reqimple", DialectPostgres, "postgresql://localhost/reqimple"},
		{"sqlite://data/reqimple.db", DialectSQLite, "data/reqimple.db"},
		{"sqlite::memory:", DialectSQLite, ":memory:"},
		{"data/app.db", DialectSQLite, "data/app.db"},
		{":memory:", DialectSQLite, ":memory:"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			dialect, dsn := ParseURL(tt.url)
			if dialect != tt.wantDialect {
				t.Errorf("dialect = %q, want %q", dialect, tt.wantDialect)
			}
			if dsn != tt.wantDSN {
				t.Errorf("dsn = %q, want %q", dsn, tt.wantDSN)
			}
		})
	}
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)

	// Running the migrations again on an up-to-date schema is a no-op.
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestOpen_CreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "reqimple.db")

	db, err := Open(context.Background(), "sqlite://"+path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

// =========================================================================
// TRANSACTIONS
// =========================================================================

func TestInTx_CommitsOnSuccess(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var created *model.User
	err := db.InTx(ctx, func(q repository.Queries) error {
		created = &model.User{Email: "tx@example.com", Username: "txuser", DisplayName: "Tx", PasswordHash: "h"}
		return q.CreateUser(ctx, created)
	})
	if err != nil {
		t.Fatalf("InTx() error = %v", err)
	}

	if _, err := db.GetUserByID(ctx, created.ID); err != nil {
		t.Fatalf("user not visible after commit: %v", err)
	}
}

func TestInTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var userID string
	boom := errors.New("boom")
	err := db.InTx(ctx, func(q repository.Queries) error {
		u := &model.User{Email: "gone@example.com", Username: "gone", DisplayName: "Gone", PasswordHash: "h"}
		if err := q.CreateUser(ctx, u); err != nil {
			return err
		}
		userID = u.ID
		return boom
	})

	if !errors.Is(err, apperror.ErrPersistence) {
		t.Errorf("InTx() error = %v, want ErrPersistence", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("InTx() error = %v, want it to wrap the cause", err)
	}
	if _, err := db.GetUserByID(ctx, userID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("user survived rollback: GetUserByID() error = %v", err)
	}
}

func TestInTx_DomainErrorsPassThrough(t *testing.T) {
	db := newTestDB(t)

	err := db.InTx(context.Background(), func(q repository.Queries) error {
		return apperror.Forbidden("not yours")
	})

	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("InTx() error = %v, want ErrForbidden", err)
	}
	if errors.Is(err, apperror.ErrPersistence) {
		t.Error("domain error should not be re-wrapped as ErrPersistence")
	}
}

// TestInTx_RollbackOnFailedStatement uses sqlmock to check the exact
// transaction protocol: BEGIN, the failing INSERT, then ROLLBACK and no COMMIT.
func TestInTx_RollbackOnFailedStatement(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer mockDB.Close()

	db := NewWithDB(sqlx.NewDb(mockDB, "sqlmock"), DialectSQLite)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ideas").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = db.InTx(context.Background(), func(q repository.Queries) error {
		return q.CreateIdea(context.Background(), &model.Idea{
			Title: "t", Description: "d", Status: model.IdeaActive, AuthorID: "u1",
		})
	})

	if !errors.Is(err, apperror.ErrPersistence) {
		t.Errorf("InTx() error = %v, want ErrPersistence", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInTx_CommitFailureIsPersistenceError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer mockDB.Close()

	db := NewWithDB(sqlx.NewDb(mockDB, "sqlmock"), DialectSQLite)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE implementations SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	err = db.InTx(context.Background(), func(q repository.Queries) error {
		return q.UpdateImplementationStatus(context.Background(), "m1", model.ImplementationVerified)
	})

	if !errors.Is(err, apperror.ErrPersistence) {
		t.Errorf("InTx() error = %v, want ErrPersistence", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
