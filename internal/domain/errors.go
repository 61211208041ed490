package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every lifecycle error wraps exactly one of them; an error that
// wraps none of them is an upstream failure.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidInput    = errors.New("invalid input")
)

var (
	ErrNotCreatorRole       = fmt.Errorf("%w: only creators can post bounties", ErrForbidden)
	ErrNotBountyCreator     = fmt.Errorf("%w: only the bounty creator can do this", ErrForbidden)
	ErrOwnBounty            = fmt.Errorf("%w: creators cannot work on their own bounty", ErrForbidden)
	ErrBountyNotOpen        = fmt.Errorf("%w: bounty is not open", ErrInvalidState)
	ErrBountyNotClaimed     = fmt.Errorf("%w: bounty is not claimed", ErrInvalidState)
	ErrBountyClosed         = fmt.Errorf("%w: bounty is already approved", ErrInvalidState)
	ErrBountyClaimedByOther = fmt.Errorf("%w: bounty is claimed by another contributor", ErrInvalidState)
	ErrSubmissionReviewed   = fmt.Errorf("%w: submission is already reviewed", ErrInvalidState)
	ErrInvalidAmount        = fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	ErrFundingTxRequired    = fmt.Errorf("%w: funding transaction id is required", ErrInvalidInput)
	ErrFundingTxRejected    = fmt.Errorf("%w: funding transaction was not confirmed", ErrInvalidInput)
	ErrLinkRequired         = fmt.Errorf("%w: issue and repository links are required", ErrInvalidInput)
	ErrPullRequestRequired  = fmt.Errorf("%w: pull request link is required", ErrInvalidInput)
	ErrInvalidRole          = fmt.Errorf("%w: role must be creator or contributor", ErrInvalidInput)
)

// Kind returns the kind sentinel err belongs to, or nil for upstream failures.
func Kind(err error) error {
	for _, kind := range []error{ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrInvalidState, ErrInvalidInput} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
