package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	// one connection stays parked on LISTEN for the change feed
	minConns          = 2
	maxConnIdleTime   = 5 * time.Minute
	healthCheckPeriod = 30 * time.Second
	pingTimeout       = 5 * time.Second
)

func New(ctx context.Context, dsn string, logger *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MinConns < minConns {
		cfg.MinConns = minConns
	}
	if cfg.MaxConns <= cfg.MinConns {
		cfg.MaxConns = cfg.MinConns + 4
	}
	cfg.MaxConnIdleTime = maxConnIdleTime
	cfg.HealthCheckPeriod = healthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if logger != nil {
		logger.Info("postgres connected",
			zap.String("host", cfg.ConnConfig.Host),
			zap.String("database", cfg.ConnConfig.Database),
			zap.Int32("max_conns", cfg.MaxConns),
		)
	}

	return pool, nil
}
