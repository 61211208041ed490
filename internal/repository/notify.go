package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/jackc/pgx/v5"
)

const NotifyChannel = "bounty_events"

// Notify queues a change notification; Postgres delivers it only when tx commits.
func (r *Repository) Notify(ctx context.Context, tx pgx.Tx, event domain.Event) error {
	if tx == nil {
		return errTxRequired
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", event.Type, err)
	}

	return nil
}
