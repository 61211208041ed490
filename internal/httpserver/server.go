package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bubelovv/bounty-board/internal/idempotency"
	"go.uber.org/zap"
)

type Options struct {
	Port           string
	RateLimitRPS   float64
	RateLimitBurst int
}

type Deps struct {
	Service       Service
	Auth          Authenticator
	Contributions ContributionsProvider
	Feed          Feed
	// Idempotency is optional; nil disables Idempotency-Key replay.
	Idempotency *idempotency.Store
}

type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger, deps Deps) *Server {
	httpSrv := &http.Server{
		Addr:              ":" + opts.Port,
		Handler:           NewHandler(opts, logger, deps),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		srv:    httpSrv,
		logger: logger,
	}
}

func NewHandler(opts Options, logger *zap.Logger, deps Deps) http.Handler {
	h := &handler{
		svc:           deps.Service,
		auth:          deps.Auth,
		contributions: deps.Contributions,
		feed:          deps.Feed,
		validate:      newValidator(),
		logger:        logger,
		keepalive:     defaultKeepalive,
	}
	if opts.RateLimitRPS > 0 {
		h.limiter = newRateLimiter(opts.RateLimitRPS, max(opts.RateLimitBurst, 1))
	}
	return newRouter(logger, h, deps.Idempotency)
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("http server stopping")
	return s.srv.Shutdown(ctx)
}
