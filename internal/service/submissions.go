package service

import (
	"context"
	"errors"
	"time"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/bubelovv/bounty-board/internal/metrics"
	"github.com/bubelovv/bounty-board/internal/repository"
	"github.com/jackc/pgx/v5"
)

func (s *Service) CreateSubmission(ctx context.Context, actor domain.User, bountyID string, in domain.NewSubmission) (domain.Submission, error) {
	var created domain.Submission
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		bounty, err := s.repo.GetBountyForUpdate(ctx, tx, bountyID)
		if err != nil {
			return mapNotFound(err, ErrBountyNotFound, repository.ErrBountyNotFound)
		}

		sub, err := domain.NewSubmissionFor(bounty, actor, in, s.newID(), s.timestamp())
		if err != nil {
			return err
		}

		stored, err := s.repo.InsertSubmission(ctx, tx, sub)
		if err != nil {
			return err
		}
		created = stored

		return s.repo.Notify(ctx, tx, domain.Event{
			Type:         domain.EventSubmissionCreated,
			BountyID:     bounty.ID,
			SubmissionID: stored.ID,
			UserIDs:      participants(bounty.CreatorID, actor.ID),
		})
	})
	if err != nil {
		return domain.Submission{}, err
	}

	metrics.LifecycleTransitions.WithLabelValues("submission", string(domain.SubmissionStatusPending)).Inc()
	return created, nil
}

// ApproveSubmission approves a pending submission and closes its bounty in favour
// of the submitter. Badge awards commit together with the approval or not at all.
func (s *Service) ApproveSubmission(ctx context.Context, actor domain.User, submissionID string) (domain.Submission, error) {
	var (
		approved domain.Submission
		awarded  []string
	)

	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		awarded = nil

		sub, bounty, err := s.lockForReview(ctx, tx, actor, submissionID)
		if err != nil {
			return err
		}

		now := s.timestamp()
		nextSub, err := sub.Approve(now)
		if err != nil {
			return err
		}
		nextBounty, err := bounty.AwardTo(actor.ID, sub, now)
		if err != nil {
			return err
		}

		if err := s.repo.UpdateSubmissionReview(ctx, tx, nextSub); err != nil {
			switch {
			case errors.Is(err, repository.ErrSubmissionConflict):
				return domain.ErrSubmissionReviewed
			case errors.Is(err, repository.ErrSubmissionDuplicate):
				return domain.ErrBountyClosed
			}
			return err
		}

		if err := s.repo.UpdateBountyStatus(ctx, tx, nextBounty, bounty.Status); err != nil {
			if errors.Is(err, repository.ErrBountyConflict) {
				return ErrConcurrentUpdate
			}
			return err
		}

		awarded, err = s.awardBadges(ctx, tx, sub.SubmitterID, now)
		if err != nil {
			return err
		}
		approved = nextSub

		users := participants(bounty.CreatorID, sub.SubmitterID, bounty.ClaimedBy)
		if err := s.repo.Notify(ctx, tx, domain.Event{
			Type:         domain.EventSubmissionApproved,
			BountyID:     bounty.ID,
			SubmissionID: sub.ID,
			UserIDs:      users,
		}); err != nil {
			return err
		}
		return s.repo.Notify(ctx, tx, domain.Event{
			Type:     domain.EventBountyApproved,
			BountyID: bounty.ID,
			UserIDs:  users,
		})
	})
	if err != nil {
		return domain.Submission{}, err
	}

	metrics.LifecycleTransitions.WithLabelValues("submission", string(domain.SubmissionStatusApproved)).Inc()
	metrics.LifecycleTransitions.WithLabelValues("bounty", string(domain.BountyStatusApproved)).Inc()
	for _, code := range awarded {
		metrics.BadgesAwarded.WithLabelValues(code).Inc()
	}
	return approved, nil
}

func (s *Service) RejectSubmission(ctx context.Context, actor domain.User, submissionID, comments string) (domain.Submission, error) {
	var rejected domain.Submission
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		sub, bounty, err := s.lockForReview(ctx, tx, actor, submissionID)
		if err != nil {
			return err
		}

		next, err := sub.Reject(comments, s.timestamp())
		if err != nil {
			return err
		}

		if err := s.repo.UpdateSubmissionReview(ctx, tx, next); err != nil {
			if errors.Is(err, repository.ErrSubmissionConflict) {
				return domain.ErrSubmissionReviewed
			}
			return err
		}
		rejected = next

		return s.repo.Notify(ctx, tx, domain.Event{
			Type:         domain.EventSubmissionRejected,
			BountyID:     bounty.ID,
			SubmissionID: sub.ID,
			UserIDs:      participants(bounty.CreatorID, sub.SubmitterID),
		})
	})
	if err != nil {
		return domain.Submission{}, err
	}

	metrics.LifecycleTransitions.WithLabelValues("submission", string(domain.SubmissionStatusRejected)).Inc()
	return rejected, nil
}

func (s *Service) ListUserSubmissions(ctx context.Context, actor domain.User) ([]domain.Submission, error) {
	return s.repo.ListSubmissionsBySubmitter(ctx, actor.ID)
}

// lockForReview locks the submission and then its bounty, and checks that actor
// created the bounty.
func (s *Service) lockForReview(ctx context.Context, tx pgx.Tx, actor domain.User, submissionID string) (domain.Submission, domain.Bounty, error) {
	sub, err := s.repo.GetSubmissionForUpdate(ctx, tx, submissionID)
	if err != nil {
		return domain.Submission{}, domain.Bounty{}, mapNotFound(err, ErrSubmissionNotFound, repository.ErrSubmissionNotFound)
	}

	bounty, err := s.repo.GetBountyForUpdate(ctx, tx, sub.BountyID)
	if err != nil {
		return domain.Submission{}, domain.Bounty{}, mapNotFound(err, ErrBountyNotFound, repository.ErrBountyNotFound)
	}

	if bounty.CreatorID != actor.ID {
		return domain.Submission{}, domain.Bounty{}, domain.ErrNotBountyCreator
	}
	return sub, bounty, nil
}

func (s *Service) awardBadges(ctx context.Context, tx pgx.Tx, userID string, now time.Time) ([]string, error) {
	count, err := s.repo.CountApprovedSubmissions(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	var awarded []string
	for _, rule := range domain.EarnedBadges(count) {
		inserted, err := s.repo.AwardBadge(ctx, tx, domain.Badge{
			ID:          s.newID(),
			UserID:      userID,
			Code:        rule.Code,
			Name:        rule.Name,
			Description: rule.Description,
			Image:       rule.Image,
			EarnedAt:    now,
		})
		if err != nil {
			return nil, err
		}
		if inserted {
			awarded = append(awarded, rule.Code)
		}
	}
	return awarded, nil
}
