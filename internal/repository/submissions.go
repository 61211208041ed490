package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/jackc/pgx/v5"
)

const submissionColumns = `submission_id, bounty_id, submitter_id, pr_url, issue_url, status, reviewer_comments, created_at, reviewed_at`

func scanSubmission(row pgx.Row) (domain.Submission, error) {
	var s domain.Submission
	var status string
	var reviewedAt *time.Time
	if err := row.Scan(&s.ID, &s.BountyID, &s.SubmitterID, &s.PRURL, &s.IssueURL, &status,
		&s.ReviewerComments, &s.CreatedAt, &reviewedAt); err != nil {
		return domain.Submission{}, err
	}
	s.Status = domain.SubmissionStatus(status)
	s.ReviewedAt = reviewedAt
	return s, nil
}

func (r *Repository) InsertSubmission(ctx context.Context, tx pgx.Tx, s domain.Submission) (domain.Submission, error) {
	if tx == nil {
		return domain.Submission{}, errTxRequired
	}

	stored, err := scanSubmission(tx.QueryRow(ctx, `
		INSERT INTO submissions (submission_id, bounty_id, submitter_id, pr_url, issue_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+submissionColumns,
		s.ID, s.BountyID, s.SubmitterID, s.PRURL, s.IssueURL, string(s.Status), s.CreatedAt))
	if err != nil {
		return domain.Submission{}, fmt.Errorf("insert submission: %w", err)
	}

	return stored, nil
}

func (r *Repository) GetSubmissionForUpdate(ctx context.Context, tx pgx.Tx, submissionID string) (domain.Submission, error) {
	if tx == nil {
		return domain.Submission{}, errTxRequired
	}

	s, err := scanSubmission(tx.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE submission_id = $1 FOR UPDATE`, submissionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("select submission: %w", err)
	}
	return s, nil
}

// UpdateSubmissionReview records a review on a still-pending submission.
func (r *Repository) UpdateSubmissionReview(ctx context.Context, tx pgx.Tx, s domain.Submission) error {
	if tx == nil {
		return errTxRequired
	}

	tag, err := tx.Exec(ctx, `
		UPDATE submissions
		SET status = $2,
		    reviewer_comments = $3,
		    reviewed_at = $4
		WHERE submission_id = $1 AND status = 'pending'
	`, s.ID, string(s.Status), s.ReviewerComments, s.ReviewedAt)
	if err != nil {
		if isUniqueViolation(err, "submissions_one_approved_idx") {
			return ErrSubmissionDuplicate
		}
		return fmt.Errorf("update submission review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubmissionConflict
	}

	return nil
}

func (r *Repository) ListSubmissionsBySubmitter(ctx context.Context, userID string) ([]domain.Submission, error) {
	return r.listSubmissions(ctx, `WHERE submitter_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *Repository) ListSubmissionsByBounties(ctx context.Context, bountyIDs []string) ([]domain.Submission, error) {
	if len(bountyIDs) == 0 {
		return nil, nil
	}
	return r.listSubmissions(ctx, `WHERE bounty_id = ANY($1::text[]) ORDER BY created_at`, bountyIDs)
}

func (r *Repository) CountApprovedSubmissions(ctx context.Context, tx pgx.Tx, userID string) (int, error) {
	if tx == nil {
		return 0, errTxRequired
	}

	var count int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM submissions WHERE submitter_id = $1 AND status = 'approved'
	`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count approved submissions: %w", err)
	}
	return count, nil
}

func (r *Repository) listSubmissions(ctx context.Context, clause string, args ...any) ([]domain.Submission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+submissionColumns+` FROM submissions `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("select submissions: %w", err)
	}
	defer rows.Close()

	var submissions []domain.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		submissions = append(submissions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}

	return submissions, nil
}
