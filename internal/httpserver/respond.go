package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/bubelovv/bounty-board/internal/idempotency"
	"github.com/bubelovv/bounty-board/internal/service"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var errRateLimited = errors.New("rate limit exceeded")

func (h *handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapServiceError(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		h.logger.Error("service error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		message = "internal error"
	}
	writeError(w, status, code, message)
}

func mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"

	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND"
	case errors.Is(err, service.ErrBountyNotFound):
		return http.StatusNotFound, "BOUNTY_NOT_FOUND"
	case errors.Is(err, service.ErrSubmissionNotFound):
		return http.StatusNotFound, "SUBMISSION_NOT_FOUND"

	case errors.Is(err, domain.ErrBountyNotOpen):
		return http.StatusConflict, "BOUNTY_NOT_OPEN"
	case errors.Is(err, domain.ErrBountyNotClaimed):
		return http.StatusConflict, "BOUNTY_NOT_CLAIMED"
	case errors.Is(err, domain.ErrBountyClosed):
		return http.StatusConflict, "BOUNTY_CLOSED"
	case errors.Is(err, domain.ErrBountyClaimedByOther):
		return http.StatusConflict, "BOUNTY_CLAIMED_BY_OTHER"
	case errors.Is(err, domain.ErrSubmissionReviewed):
		return http.StatusConflict, "SUBMISSION_REVIEWED"
	case errors.Is(err, service.ErrFundingTxUsed):
		return http.StatusConflict, "FUNDING_TX_USED"
	case errors.Is(err, idempotency.ErrInProgress):
		return http.StatusConflict, "REQUEST_IN_PROGRESS"

	case errors.Is(err, domain.ErrFundingTxRejected):
		return http.StatusBadRequest, "FUNDING_TX_REJECTED"
	}

	switch domain.Kind(err) {
	case domain.ErrUnauthenticated:
		return http.StatusUnauthorized, "UNAUTHENTICATED"
	case domain.ErrForbidden:
		return http.StatusForbidden, "FORBIDDEN"
	case domain.ErrNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case domain.ErrInvalidState:
		return http.StatusConflict, "INVALID_STATE"
	case domain.ErrInvalidInput:
		return http.StatusBadRequest, "INVALID_INPUT"
	default:
		return http.StatusInternalServerError, "UPSTREAM_FAILURE"
	}
}

func decodeJSON(ctx context.Context, body io.ReadCloser, dst any) error {
	defer body.Close()
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra JSON input")
		}
		return err
	}
	return ctx.Err()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
}
