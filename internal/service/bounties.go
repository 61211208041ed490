package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/bubelovv/bounty-board/internal/metrics"
	"github.com/bubelovv/bounty-board/internal/repository"
	"github.com/jackc/pgx/v5"
)

func (s *Service) CreateBounty(ctx context.Context, actor domain.User, in domain.NewBounty) (domain.Bounty, error) {
	bounty, err := domain.NewBountyFor(actor, in, s.newID(), s.timestamp())
	if err != nil {
		return domain.Bounty{}, err
	}

	if err := s.funding.VerifyFunding(ctx, bounty.FundingTxID, bounty.Amount); err != nil {
		if domain.Kind(err) != nil {
			return domain.Bounty{}, err
		}
		return domain.Bounty{}, fmt.Errorf("verify funding: %w", err)
	}

	var created domain.Bounty
	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		stored, err := s.repo.InsertBounty(ctx, tx, bounty)
		if err != nil {
			if errors.Is(err, repository.ErrFundingTxExists) {
				return ErrFundingTxUsed
			}
			return err
		}
		created = stored

		return s.repo.Notify(ctx, tx, domain.Event{
			Type:     domain.EventBountyCreated,
			BountyID: stored.ID,
			UserIDs:  participants(actor.ID),
		})
	})
	if err != nil {
		return domain.Bounty{}, err
	}

	metrics.LifecycleTransitions.WithLabelValues("bounty", string(domain.BountyStatusOpen)).Inc()
	return created, nil
}

func (s *Service) GetBounty(ctx context.Context, bountyID string) (domain.Bounty, error) {
	b, err := s.repo.GetBounty(ctx, bountyID)
	if err != nil {
		return domain.Bounty{}, mapNotFound(err, ErrBountyNotFound, repository.ErrBountyNotFound)
	}
	return b, nil
}

func (s *Service) ListOpenBounties(ctx context.Context) ([]domain.Bounty, error) {
	return s.repo.ListOpenBounties(ctx, openBountiesLimit)
}

func (s *Service) ListClaimedBounties(ctx context.Context, actor domain.User) ([]domain.Bounty, error) {
	return s.repo.ListBountiesByClaimant(ctx, actor.ID)
}

// ClaimBounty commits actor to deliver prLink. Of two concurrent claims on the
// same open bounty exactly one succeeds; the other gets domain.ErrBountyNotOpen.
func (s *Service) ClaimBounty(ctx context.Context, actor domain.User, bountyID, prLink string) (domain.Bounty, error) {
	var claimed domain.Bounty
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		current, err := s.repo.GetBountyForUpdate(ctx, tx, bountyID)
		if err != nil {
			return mapNotFound(err, ErrBountyNotFound, repository.ErrBountyNotFound)
		}

		next, err := current.Claim(actor.ID, prLink, s.timestamp())
		if err != nil {
			return err
		}

		if err := s.repo.UpdateBountyStatus(ctx, tx, next, domain.BountyStatusOpen); err != nil {
			if errors.Is(err, repository.ErrBountyConflict) {
				return domain.ErrBountyNotOpen
			}
			return err
		}
		claimed = next

		return s.repo.Notify(ctx, tx, domain.Event{
			Type:     domain.EventBountyClaimed,
			BountyID: next.ID,
			UserIDs:  participants(next.CreatorID, actor.ID),
		})
	})
	if err != nil {
		return domain.Bounty{}, err
	}

	metrics.LifecycleTransitions.WithLabelValues("bounty", string(domain.BountyStatusClaimed)).Inc()
	return claimed, nil
}

func (s *Service) ApproveBounty(ctx context.Context, actor domain.User, bountyID string) (domain.Bounty, error) {
	var approved domain.Bounty
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		current, err := s.repo.GetBountyForUpdate(ctx, tx, bountyID)
		if err != nil {
			return mapNotFound(err, ErrBountyNotFound, repository.ErrBountyNotFound)
		}

		next, err := current.Approve(actor.ID, s.timestamp())
		if err != nil {
			return err
		}

		if err := s.repo.UpdateBountyStatus(ctx, tx, next, domain.BountyStatusClaimed); err != nil {
			if errors.Is(err, repository.ErrBountyConflict) {
				return domain.ErrBountyNotClaimed
			}
			return err
		}
		approved = next

		return s.repo.Notify(ctx, tx, domain.Event{
			Type:     domain.EventBountyApproved,
			BountyID: next.ID,
			UserIDs:  participants(next.CreatorID, next.ClaimedBy),
		})
	})
	if err != nil {
		return domain.Bounty{}, err
	}

	metrics.LifecycleTransitions.WithLabelValues("bounty", string(domain.BountyStatusApproved)).Inc()
	return approved, nil
}

// ListCreatorBounties returns the actor's bounties, newest first, each with all
// of its submissions.
func (s *Service) ListCreatorBounties(ctx context.Context, actor domain.User) ([]domain.BountyWithSubmissions, error) {
	bounties, err := s.repo.ListBountiesByCreator(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(bounties))
	for _, b := range bounties {
		ids = append(ids, b.ID)
	}

	submissions, err := s.repo.ListSubmissionsByBounties(ctx, ids)
	if err != nil {
		return nil, err
	}

	byBounty := make(map[string][]domain.Submission, len(bounties))
	for _, sub := range submissions {
		byBounty[sub.BountyID] = append(byBounty[sub.BountyID], sub)
	}

	result := make([]domain.BountyWithSubmissions, 0, len(bounties))
	for _, b := range bounties {
		result = append(result, domain.BountyWithSubmissions{
			Bounty:      b,
			Submissions: byBounty[b.ID],
		})
	}
	return result, nil
}
