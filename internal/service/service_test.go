package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	err   error
	calls int32
}

func (v *stubVerifier) VerifyFunding(context.Context, string, decimal.Decimal) error {
	atomic.AddInt32(&v.calls, 1)
	return v.err
}

var (
	creator     = domain.User{ID: "creator-1", Role: domain.RoleCreator}
	contributor = domain.User{ID: "contrib-1", Role: domain.RoleContributor}
	other       = domain.User{ID: "contrib-2", Role: domain.RoleContributor}
)

func newTestService(t *testing.T) (*Service, *fakeRepository, *stubVerifier) {
	t.Helper()

	repo := newFakeRepository()
	verifier := &stubVerifier{}
	svc := New(repo, verifier)

	var seq int64
	base := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	svc.newID = func() string {
		return fmt.Sprintf("id-%03d", atomic.AddInt64(&seq, 1))
	}
	svc.now = func() time.Time {
		return base.Add(time.Duration(atomic.LoadInt64(&seq)) * time.Second)
	}

	return svc, repo, verifier
}

func createBounty(t *testing.T, svc *Service, txID string) domain.Bounty {
	t.Helper()

	b, err := svc.CreateBounty(context.Background(), creator, domain.NewBounty{
		IssueLink:   "https://github.com/acme/widgets/issues/7",
		RepoLink:    "https://github.com/acme/widgets",
		Amount:      decimal.NewFromInt(100),
		FundingTxID: txID,
	})
	require.NoError(t, err)
	return b
}

func TestBountyLifecycleScenario(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	b := createBounty(t, svc, "0xfund1")
	assert.Equal(t, domain.BountyStatusOpen, b.Status)
	assert.True(t, b.Amount.Equal(decimal.NewFromInt(100)))

	claimed, err := svc.ClaimBounty(ctx, contributor, b.ID, "https://github.com/acme/widgets/pull/8")
	require.NoError(t, err)
	assert.Equal(t, domain.BountyStatusClaimed, claimed.Status)
	assert.Equal(t, contributor.ID, claimed.ClaimedBy)
	assert.Equal(t, "https://github.com/acme/widgets/pull/8", claimed.ClaimPR)

	_, err = svc.ApproveBounty(ctx, other, b.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	stored, err := svc.GetBounty(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, claimed, stored)

	approved, err := svc.ApproveBounty(ctx, creator, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BountyStatusApproved, approved.Status)

	assert.Equal(t, []domain.EventType{
		domain.EventBountyCreated,
		domain.EventBountyClaimed,
		domain.EventBountyApproved,
	}, repo.eventTypes())
}

func TestCreateBounty(t *testing.T) {
	t.Run("contributor is forbidden", func(t *testing.T) {
		svc, _, verifier := newTestService(t)
		_, err := svc.CreateBounty(context.Background(), contributor, domain.NewBounty{
			IssueLink: "https://x/1", RepoLink: "https://x", Amount: decimal.NewFromInt(1), FundingTxID: "tx",
		})
		require.ErrorIs(t, err, domain.ErrForbidden)
		assert.Zero(t, verifier.calls)
	})

	t.Run("rejected funding is invalid input", func(t *testing.T) {
		svc, repo, verifier := newTestService(t)
		verifier.err = domain.ErrFundingTxRejected
		_, err := svc.CreateBounty(context.Background(), creator, domain.NewBounty{
			IssueLink: "https://x/1", RepoLink: "https://x", Amount: decimal.NewFromInt(1), FundingTxID: "tx",
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, repo.bounties)
	})

	t.Run("verifier transport failure is upstream", func(t *testing.T) {
		svc, _, verifier := newTestService(t)
		verifier.err = errors.New("dial tcp: connection refused")
		_, err := svc.CreateBounty(context.Background(), creator, domain.NewBounty{
			IssueLink: "https://x/1", RepoLink: "https://x", Amount: decimal.NewFromInt(1), FundingTxID: "tx",
		})
		require.Error(t, err)
		assert.Nil(t, domain.Kind(err))
		assert.Contains(t, err.Error(), "verify funding")
	})

	t.Run("funding tx cannot back two bounties", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		createBounty(t, svc, "0xsame")
		_, err := svc.CreateBounty(context.Background(), creator, domain.NewBounty{
			IssueLink: "https://x/1", RepoLink: "https://x", Amount: decimal.NewFromInt(1), FundingTxID: "0xsame",
		})
		require.ErrorIs(t, err, ErrFundingTxUsed)
		require.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestClaimBounty(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown bounty", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.ClaimBounty(ctx, contributor, "missing", "https://pr")
		require.ErrorIs(t, err, ErrBountyNotFound)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("creator cannot claim own bounty", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		b := createBounty(t, svc, "tx")
		_, err := svc.ClaimBounty(ctx, creator, b.ID, "https://pr")
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("claimed bounty is unchanged by a second claim", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		b := createBounty(t, svc, "tx")
		first, err := svc.ClaimBounty(ctx, contributor, b.ID, "https://pr/1")
		require.NoError(t, err)

		_, err = svc.ClaimBounty(ctx, other, b.ID, "https://pr/2")
		require.ErrorIs(t, err, domain.ErrInvalidState)

		stored, err := svc.GetBounty(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, first, stored)
	})

	t.Run("notify failure rolls the claim back", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		b := createBounty(t, svc, "tx")
		repo.failOnce("Notify", errors.New("notify failed"))

		_, err := svc.ClaimBounty(ctx, contributor, b.ID, "https://pr")
		require.Error(t, err)

		stored, err := svc.GetBounty(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BountyStatusOpen, stored.Status)
		assert.Empty(t, stored.ClaimedBy)
	})
}

func TestConcurrentClaimsExactlyOneWins(t *testing.T) {
	svc, _, _ := newTestService(t)
	b := createBounty(t, svc, "tx")

	const claimers = 8
	var (
		wg        sync.WaitGroup
		successes int32
		conflicts int32
	)
	start := make(chan struct{})
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			user := domain.User{ID: fmt.Sprintf("worker-%d", i), Role: domain.RoleContributor}
			_, err := svc.ClaimBounty(context.Background(), user, b.ID, fmt.Sprintf("https://pr/%d", i))
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case errors.Is(err, domain.ErrInvalidState):
				atomic.AddInt32(&conflicts, 1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, successes)
	assert.EqualValues(t, claimers-1, conflicts)

	stored, err := svc.GetBounty(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, stored.ClaimConsistent())
}

func TestApproveBountyRequiresClaim(t *testing.T) {
	svc, _, _ := newTestService(t)
	b := createBounty(t, svc, "tx")

	_, err := svc.ApproveBounty(context.Background(), creator, b.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSubmissionApprovalClosesBounty(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	b := createBounty(t, svc, "tx")

	sub, err := svc.CreateSubmission(ctx, contributor, b.ID, domain.NewSubmission{PRURL: "https://github.com/acme/widgets/pull/9"})
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionStatusPending, sub.Status)
	assert.Equal(t, b.IssueLink, sub.IssueURL)

	_, err = svc.ApproveSubmission(ctx, other, sub.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, domain.SubmissionStatusPending, repo.submissions[sub.ID].Status)

	approved, err := svc.ApproveSubmission(ctx, creator, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedAt)

	stored, err := svc.GetBounty(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BountyStatusApproved, stored.Status)
	assert.Equal(t, contributor.ID, stored.ClaimedBy)
	assert.Equal(t, sub.PRURL, stored.ClaimPR)

	badges, err := svc.ListBadges(ctx, contributor)
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, "first-bounty", badges[0].Code)
}

func TestSubmissionApprovalRespectsClaim(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	b := createBounty(t, svc, "tx")

	_, err := svc.ClaimBounty(ctx, contributor, b.ID, "https://pr/claim")
	require.NoError(t, err)

	sub, err := svc.CreateSubmission(ctx, other, b.ID, domain.NewSubmission{PRURL: "https://pr/other"})
	require.NoError(t, err)

	_, err = svc.ApproveSubmission(ctx, creator, sub.ID)
	require.ErrorIs(t, err, domain.ErrBountyClaimedByOther)

	stored, err := svc.GetBounty(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BountyStatusClaimed, stored.Status)
}

func TestSubmissionApprovalIsAtomic(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	b := createBounty(t, svc, "tx")
	sub, err := svc.CreateSubmission(ctx, contributor, b.ID, domain.NewSubmission{PRURL: "https://pr"})
	require.NoError(t, err)

	repo.failOnce("AwardBadge", errors.New("insert badge: connection reset"))
	_, err = svc.ApproveSubmission(ctx, creator, sub.ID)
	require.Error(t, err)

	assert.Equal(t, domain.SubmissionStatusPending, repo.submissions[sub.ID].Status)
	assert.Equal(t, domain.BountyStatusOpen, repo.bounties[b.ID].Status)
	assert.Empty(t, repo.badges)

	_, err = svc.ApproveSubmission(ctx, creator, sub.ID)
	require.NoError(t, err)
}

func TestSubmissionTransitionsAreOneWay(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	b := createBounty(t, svc, "tx1")
	rejectedSub, err := svc.CreateSubmission(ctx, contributor, b.ID, domain.NewSubmission{PRURL: "https://pr/1"})
	require.NoError(t, err)

	rejected, err := svc.RejectSubmission(ctx, creator, rejectedSub.ID, "  needs tests ")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionStatusRejected, rejected.Status)
	assert.Equal(t, "needs tests", rejected.ReviewerComments)

	_, err = svc.ApproveSubmission(ctx, creator, rejectedSub.ID)
	require.ErrorIs(t, err, domain.ErrSubmissionReviewed)
	_, err = svc.RejectSubmission(ctx, creator, rejectedSub.ID, "")
	require.ErrorIs(t, err, domain.ErrSubmissionReviewed)

	approvedSub, err := svc.CreateSubmission(ctx, contributor, b.ID, domain.NewSubmission{PRURL: "https://pr/2"})
	require.NoError(t, err)
	_, err = svc.ApproveSubmission(ctx, creator, approvedSub.ID)
	require.NoError(t, err)
	_, err = svc.RejectSubmission(ctx, creator, approvedSub.ID, "")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = svc.CreateSubmission(ctx, other, b.ID, domain.NewSubmission{PRURL: "https://pr/3"})
	require.ErrorIs(t, err, domain.ErrBountyClosed)
}

func TestBadgesAccumulate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		b := createBounty(t, svc, fmt.Sprintf("tx-%d", i))
		sub, err := svc.CreateSubmission(ctx, contributor, b.ID, domain.NewSubmission{PRURL: fmt.Sprintf("https://pr/%d", i)})
		require.NoError(t, err)
		_, err = svc.ApproveSubmission(ctx, creator, sub.ID)
		require.NoError(t, err)
	}

	badges, err := svc.ListBadges(ctx, contributor)
	require.NoError(t, err)
	require.Len(t, badges, 2)
	assert.Equal(t, "first-bounty", badges[0].Code)
	assert.Equal(t, "code-master", badges[1].Code)
}

func TestListCreatorBounties(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first := createBounty(t, svc, "tx1")
	second := createBounty(t, svc, "tx2")
	_, err := svc.CreateSubmission(ctx, contributor, first.ID, domain.NewSubmission{PRURL: "https://pr/a"})
	require.NoError(t, err)
	_, err = svc.CreateSubmission(ctx, other, first.ID, domain.NewSubmission{PRURL: "https://pr/b"})
	require.NoError(t, err)

	got, err := svc.ListCreatorBounties(ctx, creator)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Empty(t, got[0].Submissions)
	assert.Equal(t, first.ID, got[1].ID)
	assert.Len(t, got[1].Submissions, 2)

	none, err := svc.ListCreatorBounties(ctx, contributor)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUsers(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetUser(ctx, "u999")
	require.ErrorIs(t, err, ErrUserNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.RegisterUser(ctx, "u123", domain.Registration{Role: "admin"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	user, err := svc.RegisterUser(ctx, "u123", domain.Registration{
		Email: "dev@example.com", GithubUsername: " octocat ", Role: domain.RoleContributor,
	})
	require.NoError(t, err)
	assert.Equal(t, "octocat", user.GithubUsername)

	again, err := svc.RegisterUser(ctx, "u123", domain.Registration{Email: "dev@example.com", Role: domain.RoleCreator})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleContributor, again.Role)
	assert.Equal(t, "octocat", again.GithubUsername)

	wallet := "0x52908400098527886E0F7030069857D2E4169EE7"
	updated, err := svc.UpdateProfile(ctx, domain.User{ID: "u123"}, domain.ProfileUpdate{WalletAddress: &wallet})
	require.NoError(t, err)
	assert.Equal(t, wallet, updated.WalletAddress)

	got, err := svc.GetUser(ctx, "u123")
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}
