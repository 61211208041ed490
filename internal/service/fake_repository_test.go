package service

import (
	"cmp"
	"context"
	"sort"
	"sync"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/bubelovv/bounty-board/internal/repository"
	"github.com/jackc/pgx/v5"
)

type fakeRepository struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users       map[string]domain.User
	bounties    map[string]domain.Bounty
	submissions map[string]domain.Submission
	badges      map[string]domain.Badge
	events      []domain.Event

	// failures makes the named method return the error once.
	failures map[string]error
}

type fakeSnapshot struct {
	users       map[string]domain.User
	bounties    map[string]domain.Bounty
	submissions map[string]domain.Submission
	badges      map[string]domain.Badge
	events      []domain.Event
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:       map[string]domain.User{},
		bounties:    map[string]domain.Bounty{},
		submissions: map[string]domain.Submission{},
		badges:      map[string]domain.Badge{},
		failures:    map[string]error{},
	}
}

func (f *fakeRepository) failOnce(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = err
}

func (f *fakeRepository) injected(method string) error {
	err, ok := f.failures[method]
	if !ok {
		return nil
	}
	delete(f.failures, method)
	return err
}

func (f *fakeRepository) snapshot() fakeSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeSnapshot{
		users:       cloneMap(f.users),
		bounties:    cloneMap(f.bounties),
		submissions: cloneMap(f.submissions),
		badges:      cloneMap(f.badges),
		events:      append([]domain.Event(nil), f.events...),
	}
}

func (f *fakeRepository) restore(s fakeSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = s.users
	f.bounties = s.bounties
	f.submissions = s.submissions
	f.badges = s.badges
	f.events = s.events
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (f *fakeRepository) RunInTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	before := f.snapshot()
	if err := fn(ctx, nil); err != nil {
		f.restore(before)
		return err
	}
	return nil
}

func (f *fakeRepository) UpsertUser(_ context.Context, _ pgx.Tx, user domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("UpsertUser"); err != nil {
		return domain.User{}, err
	}

	if existing, ok := f.users[user.ID]; ok {
		user.Role = existing.Role
		user.CreatedAt = existing.CreatedAt
		user.Email = cmp.Or(user.Email, existing.Email)
		user.GithubUsername = cmp.Or(user.GithubUsername, existing.GithubUsername)
		user.GithubAvatar = cmp.Or(user.GithubAvatar, existing.GithubAvatar)
		user.WalletAddress = cmp.Or(user.WalletAddress, existing.WalletAddress)
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeRepository) GetUser(_ context.Context, userID string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeRepository) UpdateUserProfile(_ context.Context, userID string, upd domain.ProfileUpdate) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	if upd.GithubUsername != nil {
		user.GithubUsername = *upd.GithubUsername
	}
	if upd.GithubAvatar != nil {
		user.GithubAvatar = *upd.GithubAvatar
	}
	if upd.WalletAddress != nil {
		user.WalletAddress = *upd.WalletAddress
	}
	f.users[userID] = user
	return user, nil
}

func (f *fakeRepository) InsertBounty(_ context.Context, _ pgx.Tx, b domain.Bounty) (domain.Bounty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("InsertBounty"); err != nil {
		return domain.Bounty{}, err
	}
	for _, existing := range f.bounties {
		if existing.FundingTxID == b.FundingTxID {
			return domain.Bounty{}, repository.ErrFundingTxExists
		}
	}
	f.bounties[b.ID] = b
	return b, nil
}

func (f *fakeRepository) GetBounty(_ context.Context, bountyID string) (domain.Bounty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bounties[bountyID]
	if !ok {
		return domain.Bounty{}, repository.ErrBountyNotFound
	}
	return b, nil
}

func (f *fakeRepository) GetBountyForUpdate(ctx context.Context, _ pgx.Tx, bountyID string) (domain.Bounty, error) {
	return f.GetBounty(ctx, bountyID)
}

func (f *fakeRepository) UpdateBountyStatus(_ context.Context, _ pgx.Tx, b domain.Bounty, expected domain.BountyStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("UpdateBountyStatus"); err != nil {
		return err
	}
	current, ok := f.bounties[b.ID]
	if !ok || current.Status != expected {
		return repository.ErrBountyConflict
	}
	f.bounties[b.ID] = b
	return nil
}

func (f *fakeRepository) ListOpenBounties(_ context.Context, limit int) ([]domain.Bounty, error) {
	out := f.filterBounties(func(b domain.Bounty) bool { return b.Status == domain.BountyStatusOpen })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepository) ListBountiesByCreator(_ context.Context, creatorID string) ([]domain.Bounty, error) {
	return f.filterBounties(func(b domain.Bounty) bool { return b.CreatorID == creatorID }), nil
}

func (f *fakeRepository) ListBountiesByClaimant(_ context.Context, userID string) ([]domain.Bounty, error) {
	return f.filterBounties(func(b domain.Bounty) bool { return b.ClaimedBy == userID }), nil
}

func (f *fakeRepository) filterBounties(keep func(domain.Bounty) bool) []domain.Bounty {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Bounty
	for _, b := range f.bounties {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeRepository) InsertSubmission(_ context.Context, _ pgx.Tx, s domain.Submission) (domain.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("InsertSubmission"); err != nil {
		return domain.Submission{}, err
	}
	f.submissions[s.ID] = s
	return s, nil
}

func (f *fakeRepository) GetSubmissionForUpdate(_ context.Context, _ pgx.Tx, submissionID string) (domain.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.submissions[submissionID]
	if !ok {
		return domain.Submission{}, repository.ErrSubmissionNotFound
	}
	return s, nil
}

func (f *fakeRepository) UpdateSubmissionReview(_ context.Context, _ pgx.Tx, s domain.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("UpdateSubmissionReview"); err != nil {
		return err
	}
	current, ok := f.submissions[s.ID]
	if !ok || current.Status != domain.SubmissionStatusPending {
		return repository.ErrSubmissionConflict
	}
	if s.Status == domain.SubmissionStatusApproved {
		for _, other := range f.submissions {
			if other.BountyID == s.BountyID && other.Status == domain.SubmissionStatusApproved {
				return repository.ErrSubmissionDuplicate
			}
		}
	}
	f.submissions[s.ID] = s
	return nil
}

func (f *fakeRepository) ListSubmissionsBySubmitter(_ context.Context, userID string) ([]domain.Submission, error) {
	return f.filterSubmissions(func(s domain.Submission) bool { return s.SubmitterID == userID }), nil
}

func (f *fakeRepository) ListSubmissionsByBounties(_ context.Context, bountyIDs []string) ([]domain.Submission, error) {
	wanted := make(map[string]bool, len(bountyIDs))
	for _, id := range bountyIDs {
		wanted[id] = true
	}
	return f.filterSubmissions(func(s domain.Submission) bool { return wanted[s.BountyID] }), nil
}

func (f *fakeRepository) filterSubmissions(keep func(domain.Submission) bool) []domain.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Submission
	for _, s := range f.submissions {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeRepository) CountApprovedSubmissions(_ context.Context, _ pgx.Tx, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, s := range f.submissions {
		if s.SubmitterID == userID && s.Status == domain.SubmissionStatusApproved {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepository) AwardBadge(_ context.Context, _ pgx.Tx, b domain.Badge) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("AwardBadge"); err != nil {
		return false, err
	}
	key := b.UserID + "/" + b.Code
	if _, ok := f.badges[key]; ok {
		return false, nil
	}
	f.badges[key] = b
	return true, nil
}

func (f *fakeRepository) ListBadges(_ context.Context, userID string) ([]domain.Badge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Badge
	for _, b := range f.badges {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code > out[j].Code })
	return out, nil
}

func (f *fakeRepository) Notify(_ context.Context, _ pgx.Tx, event domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("Notify"); err != nil {
		return err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeRepository) eventTypes() []domain.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.EventType, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}
