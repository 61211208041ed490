package repository

import (
	"context"
	"fmt"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/jackc/pgx/v5"
)

// AwardBadge stores the badge unless the user already holds its code.
func (r *Repository) AwardBadge(ctx context.Context, tx pgx.Tx, b domain.Badge) (bool, error) {
	if tx == nil {
		return false, errTxRequired
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO user_badges (badge_id, user_id, code, name, description, image, earned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, code) DO NOTHING
	`, b.ID, b.UserID, b.Code, b.Name, b.Description, b.Image, b.EarnedAt)
	if err != nil {
		return false, fmt.Errorf("insert badge: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *Repository) ListBadges(ctx context.Context, userID string) ([]domain.Badge, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT badge_id, user_id, code, name, description, image, earned_at
		FROM user_badges
		WHERE user_id = $1
		ORDER BY earned_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select badges: %w", err)
	}
	defer rows.Close()

	var badges []domain.Badge
	for rows.Next() {
		var b domain.Badge
		if err := rows.Scan(&b.ID, &b.UserID, &b.Code, &b.Name, &b.Description, &b.Image, &b.EarnedAt); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate badges: %w", err)
	}

	return badges, nil
}
