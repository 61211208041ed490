package domain

import (
	"net/url"
	"strings"
	"time"
)

func NewBountyFor(creator User, in NewBounty, id string, now time.Time) (Bounty, error) {
	if creator.Role != RoleCreator {
		return Bounty{}, ErrNotCreatorRole
	}
	if strings.TrimSpace(in.IssueLink) == "" || strings.TrimSpace(in.RepoLink) == "" {
		return Bounty{}, ErrLinkRequired
	}
	if !in.Amount.IsPositive() {
		return Bounty{}, ErrInvalidAmount
	}
	if strings.TrimSpace(in.FundingTxID) == "" {
		return Bounty{}, ErrFundingTxRequired
	}

	return Bounty{
		ID:          id,
		IssueLink:   strings.TrimSpace(in.IssueLink),
		RepoLink:    strings.TrimSpace(in.RepoLink),
		FundingTxID: strings.TrimSpace(in.FundingTxID),
		CreatorID:   creator.ID,
		Amount:      in.Amount,
		Status:      BountyStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Claim returns the bounty claimed by contributorID. The receiver is never modified.
// A bounty that is not open is rejected before anything about the caller.
func (b Bounty) Claim(contributorID, prLink string, now time.Time) (Bounty, error) {
	if b.Status != BountyStatusOpen {
		return b, ErrBountyNotOpen
	}
	if contributorID == b.CreatorID {
		return b, ErrOwnBounty
	}
	prLink = strings.TrimSpace(prLink)
	if prLink == "" {
		return b, ErrPullRequestRequired
	}

	claimed := b
	claimed.Status = BountyStatusClaimed
	claimed.ClaimedBy = contributorID
	claimed.ClaimPR = prLink
	claimed.UpdatedAt = now
	return claimed, nil
}

func (b Bounty) Approve(actorID string, now time.Time) (Bounty, error) {
	if actorID != b.CreatorID {
		return b, ErrNotBountyCreator
	}
	if b.Status != BountyStatusClaimed {
		return b, ErrBountyNotClaimed
	}

	approved := b
	approved.Status = BountyStatusApproved
	approved.UpdatedAt = now
	return approved, nil
}

// AwardTo closes the bounty in favour of an approved submission. An open bounty
// is claimed and approved in one step; a claimed bounty must be claimed by the
// submission's author.
func (b Bounty) AwardTo(actorID string, s Submission, now time.Time) (Bounty, error) {
	if actorID != b.CreatorID {
		return b, ErrNotBountyCreator
	}

	switch b.Status {
	case BountyStatusApproved:
		return b, ErrBountyClosed
	case BountyStatusClaimed:
		if b.ClaimedBy != s.SubmitterID {
			return b, ErrBountyClaimedByOther
		}
	}

	awarded := b
	awarded.Status = BountyStatusApproved
	awarded.ClaimedBy = s.SubmitterID
	awarded.ClaimPR = s.PRURL
	awarded.UpdatedAt = now
	return awarded, nil
}

// ClaimConsistent reports whether the claim fields agree with the status.
func (b Bounty) ClaimConsistent() bool {
	if b.Status == BountyStatusOpen {
		return b.ClaimedBy == "" && b.ClaimPR == ""
	}
	return b.ClaimedBy != "" && b.ClaimPR != ""
}

// Title renders GitHub issue links as owner/repo#number.
func (b Bounty) Title() string {
	u, err := url.Parse(b.IssueLink)
	if err != nil || !strings.EqualFold(u.Host, "github.com") {
		return b.IssueLink
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 4 || parts[2] != "issues" || parts[3] == "" {
		return b.IssueLink
	}
	return parts[0] + "/" + parts[1] + "#" + parts[3]
}
