package idempotency

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/bubelovv/bounty-board/internal/metrics"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "Idempotent-Replayed"

	maxKeyLength = 255
)

var (
	ErrInProgress = fmt.Errorf("%w: a request with this idempotency key is in progress", domain.ErrInvalidState)
	ErrInvalidKey = fmt.Errorf("%w: idempotency key must be 1-255 characters", domain.ErrInvalidInput)
)

// Middleware replays the stored response for a repeated Idempotency-Key.
// scope namespaces keys per caller; failures are reported through onError.
// Responses with status 5xx, or none at all, are not stored.
func Middleware(
	store *Store,
	scope func(*http.Request) string,
	onError func(http.ResponseWriter, *http.Request, error),
	logger *zap.Logger,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(HeaderKey))
			if raw == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			if len(raw) > maxKeyLength {
				onError(w, r, ErrInvalidKey)
				return
			}

			key := scope(r) + ":" + r.URL.Path + ":" + raw

			existing, reserved, err := store.Reserve(r.Context(), key)
			if err != nil {
				onError(w, r, err)
				return
			}
			if !reserved {
				if !existing.Done {
					onError(w, r, ErrInProgress)
					return
				}
				metrics.IdempotentReplays.Inc()
				replay(w, existing)
				return
			}

			var body bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&body)

			defer func() {
				// the response is already written; persist with a fresh context
				ctx := context.WithoutCancel(r.Context())
				status := ww.Status()

				var storeErr error
				if status == 0 || status >= http.StatusInternalServerError {
					storeErr = store.Release(ctx, key)
				} else {
					storeErr = store.Complete(ctx, key, Record{
						Status:      status,
						ContentType: ww.Header().Get("Content-Type"),
						Body:        body.Bytes(),
					})
				}
				if storeErr != nil && !errors.Is(storeErr, context.Canceled) {
					logger.Warn("persist idempotency record", zap.String("key", raw), zap.Error(storeErr))
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func replay(w http.ResponseWriter, rec Record) {
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set(HeaderReplayed, "true")
	w.WriteHeader(rec.Status)
	_, _ = w.Write(rec.Body)
}
