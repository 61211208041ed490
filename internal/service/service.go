package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound       = fmt.Errorf("%w: user not found", domain.ErrNotFound)
	ErrBountyNotFound     = fmt.Errorf("%w: bounty not found", domain.ErrNotFound)
	ErrSubmissionNotFound = fmt.Errorf("%w: submission not found", domain.ErrNotFound)
	ErrFundingTxUsed      = fmt.Errorf("%w: funding transaction already backs a bounty", domain.ErrInvalidState)
	ErrConcurrentUpdate   = fmt.Errorf("%w: record changed concurrently, reload and retry", domain.ErrInvalidState)
)

const openBountiesLimit = 100

type Repository interface {
	RunInTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error

	UpsertUser(ctx context.Context, tx pgx.Tx, user domain.User) (domain.User, error)
	GetUser(ctx context.Context, userID string) (domain.User, error)
	UpdateUserProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.User, error)

	InsertBounty(ctx context.Context, tx pgx.Tx, b domain.Bounty) (domain.Bounty, error)
	GetBounty(ctx context.Context, bountyID string) (domain.Bounty, error)
	GetBountyForUpdate(ctx context.Context, tx pgx.Tx, bountyID string) (domain.Bounty, error)
	UpdateBountyStatus(ctx context.Context, tx pgx.Tx, b domain.Bounty, expected domain.BountyStatus) error
	ListOpenBounties(ctx context.Context, limit int) ([]domain.Bounty, error)
	ListBountiesByCreator(ctx context.Context, creatorID string) ([]domain.Bounty, error)
	ListBountiesByClaimant(ctx context.Context, userID string) ([]domain.Bounty, error)

	InsertSubmission(ctx context.Context, tx pgx.Tx, s domain.Submission) (domain.Submission, error)
	GetSubmissionForUpdate(ctx context.Context, tx pgx.Tx, submissionID string) (domain.Submission, error)
	UpdateSubmissionReview(ctx context.Context, tx pgx.Tx, s domain.Submission) error
	ListSubmissionsBySubmitter(ctx context.Context, userID string) ([]domain.Submission, error)
	ListSubmissionsByBounties(ctx context.Context, bountyIDs []string) ([]domain.Submission, error)
	CountApprovedSubmissions(ctx context.Context, tx pgx.Tx, userID string) (int, error)

	AwardBadge(ctx context.Context, tx pgx.Tx, b domain.Badge) (bool, error)
	ListBadges(ctx context.Context, userID string) ([]domain.Badge, error)

	Notify(ctx context.Context, tx pgx.Tx, event domain.Event) error
}

// FundingVerifier confirms that a funding transaction exists on the payment rail.
// It returns domain.ErrFundingTxRejected (or an error wrapping it) for
// transactions that are unknown or failed.
type FundingVerifier interface {
	VerifyFunding(ctx context.Context, txID string, amount decimal.Decimal) error
}

type Service struct {
	repo    Repository
	funding FundingVerifier
	now     func() time.Time
	newID   func() string
}

func New(repo Repository, funding FundingVerifier) *Service {
	return &Service{
		repo:    repo,
		funding: funding,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func mapNotFound(err error, target error, notFound error) error {
	if errors.Is(err, notFound) {
		return target
	}
	return err
}

func participants(ids ...string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
