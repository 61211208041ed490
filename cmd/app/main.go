package main

import (
	"context"
	"fmt"
	"log"

	"github.com/bubelovv/bounty-board/internal/app"
	"github.com/bubelovv/bounty-board/internal/config"
	"github.com/bubelovv/bounty-board/internal/logger"
	"go.uber.org/zap"
)

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatalf("bounty-board: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	zapLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	application, err := app.New(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Error("init app failed", zap.Error(err))
		return err
	}

	if err := application.Run(ctx); err != nil {
		zapLogger.Error("app stopped", zap.Error(err))
		return err
	}

	zapLogger.Info("app stopped")
	return nil
}
