package httpserver

import (
	"context"

	"github.com/bubelovv/bounty-board/internal/auth"
	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) RegisterUser(ctx context.Context, subject string, reg domain.Registration) (domain.User, error) {
	args := m.Called(ctx, subject, reg)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockService) UpdateProfile(ctx context.Context, actor domain.User, upd domain.ProfileUpdate) (domain.User, error) {
	args := m.Called(ctx, actor, upd)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockService) ListBadges(ctx context.Context, actor domain.User) ([]domain.Badge, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Badge), args.Error(1)
}

func (m *MockService) CreateBounty(ctx context.Context, actor domain.User, in domain.NewBounty) (domain.Bounty, error) {
	args := m.Called(ctx, actor, in)
	return args.Get(0).(domain.Bounty), args.Error(1)
}

func (m *MockService) GetBounty(ctx context.Context, bountyID string) (domain.Bounty, error) {
	args := m.Called(ctx, bountyID)
	return args.Get(0).(domain.Bounty), args.Error(1)
}

func (m *MockService) ListOpenBounties(ctx context.Context) ([]domain.Bounty, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Bounty), args.Error(1)
}

func (m *MockService) ListClaimedBounties(ctx context.Context, actor domain.User) ([]domain.Bounty, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Bounty), args.Error(1)
}

func (m *MockService) ListCreatorBounties(ctx context.Context, actor domain.User) ([]domain.BountyWithSubmissions, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BountyWithSubmissions), args.Error(1)
}

func (m *MockService) ClaimBounty(ctx context.Context, actor domain.User, bountyID, prLink string) (domain.Bounty, error) {
	args := m.Called(ctx, actor, bountyID, prLink)
	return args.Get(0).(domain.Bounty), args.Error(1)
}

func (m *MockService) ApproveBounty(ctx context.Context, actor domain.User, bountyID string) (domain.Bounty, error) {
	args := m.Called(ctx, actor, bountyID)
	return args.Get(0).(domain.Bounty), args.Error(1)
}

func (m *MockService) CreateSubmission(ctx context.Context, actor domain.User, bountyID string, in domain.NewSubmission) (domain.Submission, error) {
	args := m.Called(ctx, actor, bountyID, in)
	return args.Get(0).(domain.Submission), args.Error(1)
}

func (m *MockService) ApproveSubmission(ctx context.Context, actor domain.User, submissionID string) (domain.Submission, error) {
	args := m.Called(ctx, actor, submissionID)
	return args.Get(0).(domain.Submission), args.Error(1)
}

func (m *MockService) RejectSubmission(ctx context.Context, actor domain.User, submissionID, comments string) (domain.Submission, error) {
	args := m.Called(ctx, actor, submissionID, comments)
	return args.Get(0).(domain.Submission), args.Error(1)
}

func (m *MockService) ListUserSubmissions(ctx context.Context, actor domain.User) ([]domain.Submission, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Submission), args.Error(1)
}

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, header string) (auth.Identity, error) {
	args := m.Called(ctx, header)
	return args.Get(0).(auth.Identity), args.Error(1)
}

func (m *MockAuthenticator) Resolve(ctx context.Context, header string) (domain.User, error) {
	args := m.Called(ctx, header)
	return args.Get(0).(domain.User), args.Error(1)
}

type MockContributions struct {
	mock.Mock
}

func (m *MockContributions) Contributions(ctx context.Context, username string) ([]domain.Contribution, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Contribution), args.Error(1)
}
