package service

import (
	"context"
	"strings"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/bubelovv/bounty-board/internal/repository"
	"github.com/jackc/pgx/v5"
)

func (s *Service) GetUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, mapNotFound(err, ErrUserNotFound, repository.ErrUserNotFound)
	}
	return user, nil
}

// RegisterUser creates the record for a verified subject on first login.
func (s *Service) RegisterUser(ctx context.Context, subject string, reg domain.Registration) (domain.User, error) {
	if !reg.Role.Valid() {
		return domain.User{}, domain.ErrInvalidRole
	}

	var stored domain.User
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		user, err := s.repo.UpsertUser(ctx, tx, domain.User{
			ID:             subject,
			Email:          strings.TrimSpace(reg.Email),
			GithubUsername: strings.TrimSpace(reg.GithubUsername),
			GithubAvatar:   strings.TrimSpace(reg.GithubAvatar),
			WalletAddress:  strings.TrimSpace(reg.WalletAddress),
			Role:           reg.Role,
		})
		if err != nil {
			return err
		}
		stored = user
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	return stored, nil
}

func (s *Service) UpdateProfile(ctx context.Context, actor domain.User, upd domain.ProfileUpdate) (domain.User, error) {
	user, err := s.repo.UpdateUserProfile(ctx, actor.ID, upd)
	if err != nil {
		return domain.User{}, mapNotFound(err, ErrUserNotFound, repository.ErrUserNotFound)
	}
	return user, nil
}

func (s *Service) ListBadges(ctx context.Context, actor domain.User) ([]domain.Badge, error) {
	return s.repo.ListBadges(ctx, actor.ID)
}
