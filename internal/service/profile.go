package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reqimple/reqimple/internal/form"
	"github.com/reqimple/reqimple/internal/model"
	"github.com/reqimple/reqimple/internal/repository"
)

// ProfileService serves public profiles and lets users manage their own.
type ProfileService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewProfileService(store repository.Store, logger *slog.Logger) *ProfileService {
	return &ProfileService{store: store, logger: logger}
}

// ProfileStats are the counters shown on a profile.
type ProfileStats struct {
	IdeasCount           int
	ImplementationsCount int
	CommentsCount        int
	MemberSince          string // e.g. "March 2024"
}

// Profile is a user's public page.
type Profile struct {
	User            *model.User
	Ideas           []model.Idea           // active only, newest first
	Implementations []model.Implementation // verified only, newest first
	Stats           ProfileStats
}

// Get loads the public profile for username.
func (s *ProfileService) Get(ctx context.Context, username string) (*Profile, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	ideas, err := s.store.ListIdeasByAuthor(ctx, user.ID, model.IdeaActive)
	if err != nil {
		return nil, fmt.Errorf("loading ideas of %s: %w", username, err)
	}
	impls, err := s.store.ListImplementationsByAuthor(ctx, user.ID, model.ImplementationVerified)
	if err != nil {
		return nil, fmt.Errorf("loading implementations of %s: %w", username, err)
	}
	comments, err := s.store.CountCommentsByAuthor(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("counting comments of %s: %w", username, err)
	}

	return &Profile{
		User:            user,
		Ideas:           ideas,
		Implementations: impls,
		Stats: ProfileStats{
			IdeasCount:           len(ideas),
			ImplementationsCount: len(impls),
			CommentsCount:        comments,
			MemberSince:          user.CreatedAt.Format("January 2006"),
		},
	}, nil
}

// Me loads p's own account, for pre-filling the edit form.
func (s *ProfileService) Me(ctx context.Context, p model.Principal) (*model.User, error) {
	if err := requireLogin(p); err != nil {
		return nil, err
	}
	return s.store.GetUserByID(ctx, p.UserID)
}

// Update saves p's editable profile fields.
func (s *ProfileService) Update(ctx context.Context, p model.Principal, f form.Profile) (*model.User, error) {
	if err := requireLogin(p); err != nil {
		return nil, err
	}
	if err := form.Validate(&f); err != nil {
		return nil, err
	}

	var user *model.User
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		var err error
		user, err = q.GetUserByID(ctx, p.UserID)
		if err != nil {
			return err
		}
		user.DisplayName = f.DisplayName
		user.Bio = f.Bio
		user.WebsiteURL = f.WebsiteURL
		user.GitHubUsername = f.GitHubUsername
		return q.UpdateUserProfile(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("userID", p.UserID))
	return user, nil
}

// LinkGitHub records the GitHub login confirmed through OAuth.
func (s *ProfileService) LinkGitHub(ctx context.Context, p model.Principal, login string) error {
	if err := requireLogin(p); err != nil {
		return err
	}

	err := s.store.InTx(ctx, func(q repository.Queries) error {
		user, err := q.GetUserByID(ctx, p.UserID)
		if err != nil {
			return err
		}
		user.GitHubUsername = login
		return q.UpdateUserProfile(ctx, user)
	})
	if err != nil {
		return err
	}

	s.logger.Info("github account linked",
		slog.String("userID", p.UserID),
		slog.String("github", login),
	)
	return nil
}

// DeleteAccount removes p's account and, through the cascading foreign
// keys, every idea, implementation and comment p authored.
func (s *ProfileService) DeleteAccount(ctx context.Context, p model.Principal) error {
	if err := requireLogin(p); err != nil {
		return err
	}

	err := s.store.InTx(ctx, func(q repository.Queries) error {
		return q.DeleteUser(ctx, p.UserID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("account deleted", slog.String("userID", p.UserID))
	return nil
}
