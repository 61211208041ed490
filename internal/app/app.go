package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/bubelovv/bounty-board/internal/auth"
	"github.com/bubelovv/bounty-board/internal/config"
	"github.com/bubelovv/bounty-board/internal/contributions"
	"github.com/bubelovv/bounty-board/internal/feed"
	"github.com/bubelovv/bounty-board/internal/funding"
	"github.com/bubelovv/bounty-board/internal/httpserver"
	"github.com/bubelovv/bounty-board/internal/idempotency"
	"github.com/bubelovv/bounty-board/internal/migrations"
	"github.com/bubelovv/bounty-board/internal/repository"
	"github.com/bubelovv/bounty-board/internal/service"
	"github.com/bubelovv/bounty-board/internal/storage/postgres"
	"github.com/bubelovv/bounty-board/internal/storage/redis"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	httpServer *httpserver.Server
	db         *pgxpool.Pool
	hub        *feed.Hub
	listener   *feed.Listener
	closers    []func()
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	db, err := postgres.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	if err := migrations.Run(ctx, cfg.DatabaseURL, logger); err != nil {
		a.close()
		return nil, err
	}

	var idem *idempotency.Store
	if cfg.Redis.Addr != "" {
		cache, err := redis.New(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = cache.Close() })
		idem = idempotency.NewStore(cache, cfg.IdempotencyTTL)
	} else {
		logger.Info("idempotency replay disabled: REDIS_ADDR not set")
	}

	var verifier service.FundingVerifier = funding.FormatVerifier{}
	if cfg.ChainRPCURL != "" {
		chain, err := funding.Dial(ctx, cfg.ChainRPCURL, cfg.ChainMinConfirmations)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, chain.Close)
		verifier = chain
	} else {
		logger.Warn("funding transactions are format-checked only: CHAIN_RPC_URL not set")
	}

	repo := repository.New(db)
	svc := service.New(repo, verifier)

	if cfg.Auth.AllowAnyProject {
		logger.Warn("token issuer and audience are not enforced: AUTH_INSECURE_ANY_PROJECT is set",
			zap.String("issuer", cfg.Auth.Issuer),
			zap.String("audience", cfg.Auth.Audience),
		)
	}
	keys := auth.NewCertSource(cfg.Auth.CertsURL, cfg.Auth.KeysTTL, nil)
	authn := auth.NewAuthenticator(auth.NewVerifier(keys, cfg.Auth.Issuer, cfg.Auth.Audience), svc)

	a.hub = feed.NewHub()
	a.listener = feed.NewListener(db, a.hub, logger)

	a.httpServer = httpserver.New(httpserver.Options{
		Port:           cfg.HTTPPort,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger, httpserver.Deps{
		Service:       svc,
		Auth:          authn,
		Contributions: contributions.NewSynthetic(cfg.ContributionDays),
		Feed:          a.hub,
		Idempotency:   idem,
	})

	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.close()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listenCtx, cancelListen := context.WithCancel(ctx)
	listenDone := make(chan struct{})
	go func() {
		defer close(listenDone)
		_ = a.listener.Run(listenCtx)
	}()
	defer func() {
		cancelListen()
		<-listenDone
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.httpServer.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		// streams only end once their subscriptions close
		a.hub.Close()
		if err := a.httpServer.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
