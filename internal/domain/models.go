package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCreator     Role = "creator"
	RoleContributor Role = "contributor"
)

func (r Role) Valid() bool {
	return r == RoleCreator || r == RoleContributor
}

type User struct {
	ID             string
	Email          string
	GithubUsername string
	GithubAvatar   string
	WalletAddress  string
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Registration struct {
	Email          string
	GithubUsername string
	GithubAvatar   string
	WalletAddress  string
	Role           Role
}

type ProfileUpdate struct {
	GithubUsername *string
	GithubAvatar   *string
	WalletAddress  *string
}

type BountyStatus string

const (
	BountyStatusOpen     BountyStatus = "open"
	BountyStatusClaimed  BountyStatus = "claimed"
	BountyStatusApproved BountyStatus = "approved"
)

type Bounty struct {
	ID          string
	IssueLink   string
	RepoLink    string
	FundingTxID string
	CreatorID   string
	Amount      decimal.Decimal
	Status      BountyStatus
	ClaimedBy   string
	ClaimPR     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type NewBounty struct {
	IssueLink   string
	RepoLink    string
	Amount      decimal.Decimal
	FundingTxID string
}

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

type Submission struct {
	ID               string
	BountyID         string
	SubmitterID      string
	PRURL            string
	IssueURL         string
	Status           SubmissionStatus
	ReviewerComments string
	CreatedAt        time.Time
	ReviewedAt       *time.Time
}

type NewSubmission struct {
	PRURL    string
	IssueURL string
}

// BountyWithSubmissions is the creator review view of a bounty.
type BountyWithSubmissions struct {
	Bounty      Bounty
	Submissions []Submission
}

type Contribution struct {
	Date  string
	Count int
}
