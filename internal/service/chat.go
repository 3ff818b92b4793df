package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/reqimple/reqimple/internal/apperror"
	"github.com/reqimple/reqimple/internal/auth"
	"github.com/reqimple/reqimple/internal/form"
	"github.com/reqimple/reqimple/internal/metrics"
	"github.com/reqimple/reqimple/internal/model"
	"github.com/reqimple/reqimple/internal/repository"
)

// chatPassword is the fixed credential of every placeholder chat account.
// Those accounts are not meant to log in on the web.
const chatPassword = "telegram"

// ChatUser identifies the sender of a chat message by the platform's
// numeric id.
type ChatUser struct {
	PlatformID int64
	FirstName  string
}

// Username is the placeholder account name for u: "bot_<id>".
func (u ChatUser) Username() string {
	return "bot_" + strconv.FormatInt(u.PlatformID, 10)
}

// Email is the placeholder address: "bot_<id>@telegram".
func (u ChatUser) Email() string {
	return u.Username() + "@telegram"
}

// DisplayName falls back to "User" when the platform sent no first name.
func (u ChatUser) DisplayName() string {
	if u.FirstName == "" {
		return "User"
	}
	return u.FirstName
}

// ChatService is what the chat bot needs from the domain: the feed and
// posting ideas on behalf of a chat sender. Placeholder accounts do not go
// through the registration form; they are keyed by platform id only.
type ChatService struct {
	store     repository.Store
	passwords *auth.PasswordService
	metrics   *metrics.Metrics
	logger    *slog.Logger

	hashOnce sync.Once
	hash     string
	hashErr  error
}

func NewChatService(store repository.Store, passwords *auth.PasswordService, m *metrics.Metrics, logger *slog.Logger) *ChatService {
	return &ChatService{store: store, passwords: passwords, metrics: m, logger: logger}
}

// LatestIdeas returns up to n active ideas, newest first.
func (s *ChatService) LatestIdeas(ctx context.Context, n int) ([]model.Idea, error) {
	return s.store.ListIdeasByStatus(ctx, model.IdeaActive, repository.ListOptions{Limit: n})
}

// PostIdea creates an active idea authored by the placeholder account of
// sender. The account is created on first contact, in the same transaction
// as the idea.
func (s *ChatService) PostIdea(ctx context.Context, sender ChatUser, title, description string) (*model.Idea, error) {
	f := form.Idea{Title: title, Description: description}
	if err := form.Validate(&f); err != nil {
		return nil, err
	}

	hash, err := s.placeholderHash()
	if err != nil {
		return nil, err
	}

	var (
		idea        *model.Idea
		provisioned bool
	)
	err = s.store.InTx(ctx, func(q repository.Queries) error {
		user, err := q.GetUserByUsername(ctx, sender.Username())
		if errors.Is(err, apperror.ErrNotFound) {
			user = &model.User{
				Email:        sender.Email(),
				Username:     sender.Username(),
				DisplayName:  sender.DisplayName(),
				PasswordHash: hash,
			}
			if err := q.CreateUser(ctx, user); err != nil {
				return err
			}
			provisioned = true
		} else if err != nil {
			return err
		}

		idea = &model.Idea{
			Title:          f.Title,
			Description:    f.Description,
			Status:         model.IdeaActive,
			AuthorID:       user.ID,
			AuthorUsername: user.Username,
		}
		return q.CreateIdea(ctx, idea)
	})
	if err != nil {
		return nil, err
	}

	if provisioned {
		s.metrics.UserRegistered(SourceBot)
		s.logger.Info("placeholder user provisioned",
			slog.String("username", sender.Username()),
		)
	}
	s.metrics.IdeaCreated(SourceBot)
	s.logger.Info("idea created",
		slog.String("id", idea.ID),
		slog.String("author", idea.AuthorUsername),
		slog.String("source", SourceBot),
	)
	return idea, nil
}

// placeholderHash hashes chatPassword once per process and reuses it for
// every placeholder account.
func (s *ChatService) placeholderHash() (string, error) {
	s.hashOnce.Do(func() {
		s.hash, s.hashErr = s.passwords.Hash(chatPassword)
		if s.hashErr != nil {
			s.hashErr = fmt.Errorf("service/chat: hashing placeholder credential: %w", s.hashErr)
		}
	})
	return s.hash, s.hashErr
}
