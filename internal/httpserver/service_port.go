package httpserver

import (
	"context"

	"github.com/bubelovv/bounty-board/internal/auth"
	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/bubelovv/bounty-board/internal/feed"
)

type Service interface {
	RegisterUser(ctx context.Context, subject string, reg domain.Registration) (domain.User, error)
	UpdateProfile(ctx context.Context, actor domain.User, upd domain.ProfileUpdate) (domain.User, error)
	ListBadges(ctx context.Context, actor domain.User) ([]domain.Badge, error)

	CreateBounty(ctx context.Context, actor domain.User, in domain.NewBounty) (domain.Bounty, error)
	GetBounty(ctx context.Context, bountyID string) (domain.Bounty, error)
	ListOpenBounties(ctx context.Context) ([]domain.Bounty, error)
	ListClaimedBounties(ctx context.Context, actor domain.User) ([]domain.Bounty, error)
	ListCreatorBounties(ctx context.Context, actor domain.User) ([]domain.BountyWithSubmissions, error)
	ClaimBounty(ctx context.Context, actor domain.User, bountyID, prLink string) (domain.Bounty, error)
	ApproveBounty(ctx context.Context, actor domain.User, bountyID string) (domain.Bounty, error)

	CreateSubmission(ctx context.Context, actor domain.User, bountyID string, in domain.NewSubmission) (domain.Submission, error)
	ApproveSubmission(ctx context.Context, actor domain.User, submissionID string) (domain.Submission, error)
	RejectSubmission(ctx context.Context, actor domain.User, submissionID, comments string) (domain.Submission, error)
	ListUserSubmissions(ctx context.Context, actor domain.User) ([]domain.Submission, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, header string) (auth.Identity, error)
	Resolve(ctx context.Context, header string) (domain.User, error)
}

type ContributionsProvider interface {
	Contributions(ctx context.Context, username string) ([]domain.Contribution, error)
}

type Feed interface {
	Subscribe(userID string) *feed.Subscription
	Unsubscribe(id string)
}
