package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/bubelovv/bounty-board/internal/metrics"
	"github.com/bubelovv/bounty-board/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

type Publisher interface {
	Publish(event domain.Event)
}

// Listener holds a dedicated pool connection on LISTEN and forwards decoded
// notifications to a Publisher, reconnecting with backoff on failure.
type Listener struct {
	pool    *pgxpool.Pool
	out     Publisher
	logger  *zap.Logger
	channel string
}

func NewListener(pool *pgxpool.Pool, out Publisher, logger *zap.Logger) *Listener {
	return &Listener{
		pool:    pool,
		out:     out,
		logger:  logger,
		channel: repository.NotifyChannel,
	}
}

// Run blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	backoff := minBackoff
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}

		l.logger.Warn("feed listener disconnected", zap.Error(err), zap.Duration("retry_in", backoff))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.logger.Info("feed listener started", zap.String("channel", l.channel))

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				// connection state is unknown after an interrupted wait
				_ = conn.Conn().Close(context.Background())
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		l.handle(n.Payload)
	}
}

func (l *Listener) handle(payload string) {
	var event domain.Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		l.logger.Warn("drop malformed notification", zap.Error(err))
		return
	}
	metrics.FeedEventsReceived.WithLabelValues(string(event.Type)).Inc()
	l.out.Publish(event)
}
