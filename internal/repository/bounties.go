package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const bountyColumns = `bounty_id, issue_link, repo_link, funding_tx_id, creator_id, amount::text, status,
	COALESCE(claimed_by, ''), COALESCE(claim_pr, ''), created_at, updated_at`

func scanBounty(row pgx.Row) (domain.Bounty, error) {
	var b domain.Bounty
	var amount, status string
	if err := row.Scan(&b.ID, &b.IssueLink, &b.RepoLink, &b.FundingTxID, &b.CreatorID, &amount, &status,
		&b.ClaimedBy, &b.ClaimPR, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return domain.Bounty{}, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Bounty{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	b.Amount = parsed
	b.Status = domain.BountyStatus(status)
	return b, nil
}

func (r *Repository) InsertBounty(ctx context.Context, tx pgx.Tx, b domain.Bounty) (domain.Bounty, error) {
	if tx == nil {
		return domain.Bounty{}, errTxRequired
	}

	stored, err := scanBounty(tx.QueryRow(ctx, `
		INSERT INTO bounties (bounty_id, issue_link, repo_link, funding_tx_id, creator_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $8)
		RETURNING `+bountyColumns,
		b.ID, b.IssueLink, b.RepoLink, b.FundingTxID, b.CreatorID, b.Amount.String(), string(b.Status), b.CreatedAt))
	if err != nil {
		if isUniqueViolation(err, "bounties_funding_tx_idx") {
			return domain.Bounty{}, ErrFundingTxExists
		}
		return domain.Bounty{}, fmt.Errorf("insert bounty: %w", err)
	}

	return stored, nil
}

func (r *Repository) GetBounty(ctx context.Context, bountyID string) (domain.Bounty, error) {
	return getBounty(ctx, r.pool, `SELECT `+bountyColumns+` FROM bounties WHERE bounty_id = $1`, bountyID)
}

// GetBountyForUpdate locks the bounty row until tx ends.
func (r *Repository) GetBountyForUpdate(ctx context.Context, tx pgx.Tx, bountyID string) (domain.Bounty, error) {
	if tx == nil {
		return domain.Bounty{}, errTxRequired
	}
	return getBounty(ctx, tx, `SELECT `+bountyColumns+` FROM bounties WHERE bounty_id = $1 FOR UPDATE`, bountyID)
}

func getBounty(ctx context.Context, q querier, query, bountyID string) (domain.Bounty, error) {
	b, err := scanBounty(q.QueryRow(ctx, query, bountyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Bounty{}, ErrBountyNotFound
	}
	if err != nil {
		return domain.Bounty{}, fmt.Errorf("select bounty: %w", err)
	}
	return b, nil
}

// UpdateBountyStatus persists a lifecycle transition only if the stored status
// still equals expected, so a lost race surfaces as ErrBountyConflict.
func (r *Repository) UpdateBountyStatus(ctx context.Context, tx pgx.Tx, b domain.Bounty, expected domain.BountyStatus) error {
	if tx == nil {
		return errTxRequired
	}

	tag, err := tx.Exec(ctx, `
		UPDATE bounties
		SET status = $2,
		    claimed_by = $3,
		    claim_pr = $4,
		    updated_at = $5
		WHERE bounty_id = $1 AND status = $6
	`, b.ID, string(b.Status), nullIfEmpty(b.ClaimedBy), nullIfEmpty(b.ClaimPR), b.UpdatedAt, string(expected))
	if err != nil {
		return fmt.Errorf("update bounty status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBountyConflict
	}

	return nil
}

func (r *Repository) ListOpenBounties(ctx context.Context, limit int) ([]domain.Bounty, error) {
	return r.listBounties(ctx, `WHERE status = 'open' ORDER BY created_at DESC LIMIT $1`, limit)
}

func (r *Repository) ListBountiesByCreator(ctx context.Context, creatorID string) ([]domain.Bounty, error) {
	return r.listBounties(ctx, `WHERE creator_id = $1 ORDER BY created_at DESC`, creatorID)
}

func (r *Repository) ListBountiesByClaimant(ctx context.Context, userID string) ([]domain.Bounty, error) {
	return r.listBounties(ctx, `WHERE claimed_by = $1 ORDER BY updated_at DESC`, userID)
}

func (r *Repository) listBounties(ctx context.Context, clause string, args ...any) ([]domain.Bounty, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+bountyColumns+` FROM bounties `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("select bounties: %w", err)
	}
	defer rows.Close()

	var bounties []domain.Bounty
	for rows.Next() {
		b, err := scanBounty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bounty: %w", err)
		}
		bounties = append(bounties, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bounties: %w", err)
	}

	return bounties, nil
}
