package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/reqimple/reqimple/internal/apperror"
	"github.com/reqimple/reqimple/internal/auth"
	"github.com/reqimple/reqimple/internal/form"
	"github.com/reqimple/reqimple/internal/metrics"
	"github.com/reqimple/reqimple/internal/model"
	"github.com/reqimple/reqimple/internal/repository"
)

// errInvalidCredentials covers both an unknown email and a wrong password.
const errInvalidCredentials = "Invalid credentials"

// AuthService handles registration, login and token resolution.
//
//	AuthHandler (HTTP) → AuthService → Store (users)
//	                               ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	store      repository.Store
	tokens     *auth.TokenService
	passwords  *auth.PasswordService
	metrics    *metrics.Metrics
	logger     *slog.Logger
	sessionTTL time.Duration
}

// NewAuthService creates an AuthService. sessionTTL is the lifetime of the
// browser session token.
func NewAuthService(
	store repository.Store,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	m *metrics.Metrics,
	logger *slog.Logger,
	sessionTTL time.Duration,
) *AuthService {
	return &AuthService{
		store:      store,
		tokens:     tokens,
		passwords:  passwords,
		metrics:    m,
		logger:     logger,
		sessionTTL: sessionTTL,
	}
}

// Session is the result of a successful web login.
type Session struct {
	User  *model.User
	Token string
	TTL   time.Duration
}

// Register creates an account.
//
// Duplicates are checked inside the transaction so the form can name the
// offending field; the unique indexes catch anything that slips between
// the check and the insert, and the store maps those to the same errors.
func (s *AuthService) Register(ctx context.Context, f form.Register) (*model.User, error) {
	if err := form.Validate(&f); err != nil {
		return nil, err
	}

	// Hash outside the transaction so bcrypt does not hold the connection.
	hash, err := s.passwords.Hash(f.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "Password must be 72 bytes or fewer.")
	}

	user := &model.User{
		Email:        f.Email,
		Username:     f.Username,
		DisplayName:  f.DisplayName,
		PasswordHash: hash,
	}

	err = s.store.InTx(ctx, func(q repository.Queries) error {
		if _, err := q.GetUserByEmail(ctx, f.Email); err == nil {
			return apperror.ValidationFailed("email", "This email is already registered.")
		} else if !errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		if _, err := q.GetUserByUsername(ctx, f.Username); err == nil {
			return apperror.ValidationFailed("username", "This username is already taken.")
		} else if !errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return q.CreateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.UserRegistered(SourceWeb)
	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Authenticate checks an email/password pair. Any mismatch is reported as
// apperror.ErrUnauthorized with the same message.
func (s *AuthService) Authenticate(ctx context.Context, f form.Login) (*model.User, error) {
	if err := form.Validate(&f); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, f.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(errInvalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", f.Email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, f.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("stored password hash is unusable",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.Unauthorized(errInvalidCredentials)
	}
	return user, nil
}

// Login authenticates and issues a session token for the cookie.
func (s *AuthService) Login(ctx context.Context, f form.Login) (*Session, error) {
	user, err := s.Authenticate(ctx, f)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing session for %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &Session{User: user, Token: token, TTL: s.sessionTTL}, nil
}

// IssueAPIToken authenticates and returns a one-hour bearer token.
func (s *AuthService) IssueAPIToken(ctx context.Context, f form.Login) (string, error) {
	user, err := s.Authenticate(ctx, f)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Generate(user.ID, auth.APITokenTTL)
	if err != nil {
		return "", fmt.Errorf("service/auth: issuing API token for %s: %w", user.ID, err)
	}
	return token, nil
}

// ResolvePrincipal validates a token and loads the user it names. It
// implements auth.PrincipalResolver.
func (s *AuthService) ResolvePrincipal(ctx context.Context, token string) (model.Principal, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return model.Anonymous, apperror.Unauthorized(err.Error())
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return model.Anonymous, fmt.Errorf("service/auth: resolving token subject: %w", err)
	}
	return user.Principal(), nil
}

// SetAdmin grants or revokes the admin flag by username. It is not exposed
// over HTTP; the admin CLI calls it.
func (s *AuthService) SetAdmin(ctx context.Context, username string, admin bool) (*model.User, error) {
	var user *model.User
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		u, err := q.GetUserByUsername(ctx, username)
		if err != nil {
			return err
		}
		if err := q.SetUserAdmin(ctx, u.ID, admin); err != nil {
			return err
		}
		u.IsAdmin = admin
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin flag changed",
		slog.String("username", username),
		slog.Bool("admin", admin),
	)
	return user, nil
}
