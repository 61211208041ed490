package httpserver

import (
	"net/http"
	"time"

	"github.com/bubelovv/bounty-board/internal/idempotency"
	"github.com/bubelovv/bounty-board/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const requestTimeout = 30 * time.Second

func newRouter(logger *zap.Logger, h *handler, idem *idempotency.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(zapRequestLogger(logger))
	r.Use(metrics.Middleware)

	r.Get("/health", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(
			middleware.Timeout(requestTimeout),
			h.requireIdentity,
			h.limitWrites,
		).Post("/user", h.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(h.requireUser)
			r.Get("/user/submissions/stream", h.handleSubmissionStream)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Use(h.requireUser)
			r.Use(h.limitWrites)
			if idem != nil {
				r.Use(idempotency.Middleware(idem, callerKey, h.writeServiceError, logger))
			}

			r.Get("/user/me", h.handleMe)
			r.Put("/user/me", h.handleUpdateMe)
			r.Get("/user/badges", h.handleBadges)
			r.Get("/user/submissions", h.handleMySubmissions)
			r.Get("/user/bounties", h.handleMyBounties)

			r.Get("/github/contributions", h.handleContributions)
			r.Get("/creator/bounties", h.handleCreatorBounties)

			r.Route("/bounties", func(r chi.Router) {
				r.Get("/", h.handleListBounties)
				r.Post("/", h.handleCreateBounty)
				r.Get("/{id}", h.handleGetBounty)
				r.Post("/{id}/claim", h.handleClaimBounty)
				r.Post("/{id}/approve", h.handleApproveBounty)
				r.Post("/{id}/submissions", h.handleCreateSubmission)
			})

			r.Route("/submissions", func(r chi.Router) {
				r.Post("/{id}/approve", h.handleApproveSubmission)
				r.Post("/{id}/reject", h.handleRejectSubmission)
			})
		})
	})

	return r
}
