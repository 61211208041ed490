package domain

import (
	"strings"
	"time"
)

func NewSubmissionFor(b Bounty, submitter User, in NewSubmission, id string, now time.Time) (Submission, error) {
	if b.Status == BountyStatusApproved {
		return Submission{}, ErrBountyClosed
	}
	if submitter.ID == b.CreatorID {
		return Submission{}, ErrOwnBounty
	}
	prURL := strings.TrimSpace(in.PRURL)
	if prURL == "" {
		return Submission{}, ErrPullRequestRequired
	}

	issueURL := strings.TrimSpace(in.IssueURL)
	if issueURL == "" {
		issueURL = b.IssueLink
	}

	return Submission{
		ID:          id,
		BountyID:    b.ID,
		SubmitterID: submitter.ID,
		PRURL:       prURL,
		IssueURL:    issueURL,
		Status:      SubmissionStatusPending,
		CreatedAt:   now,
	}, nil
}

func (s Submission) Approve(now time.Time) (Submission, error) {
	if s.Status != SubmissionStatusPending {
		return s, ErrSubmissionReviewed
	}

	approved := s
	approved.Status = SubmissionStatusApproved
	approved.ReviewedAt = &now
	return approved, nil
}

func (s Submission) Reject(comments string, now time.Time) (Submission, error) {
	if s.Status != SubmissionStatusPending {
		return s, ErrSubmissionReviewed
	}

	rejected := s
	rejected.Status = SubmissionStatusRejected
	rejected.ReviewerComments = strings.TrimSpace(comments)
	rejected.ReviewedAt = &now
	return rejected, nil
}
