package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type handler struct {
	svc           Service
	auth          Authenticator
	contributions ContributionsProvider
	feed          Feed
	validate      *validator.Validate
	limiter       *rateLimiter
	logger        *zap.Logger
	keepalive     time.Duration
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email          string `json:"email" validate:"omitempty,email"`
		GithubUsername string `json:"githubUsername" validate:"max=39"`
		GithubAvatar   string `json:"githubAvatar" validate:"omitempty,http_url"`
		WalletAddress  string `json:"walletAddress" validate:"omitempty,eth_addr"`
		Role           string `json:"role" validate:"required,oneof=creator contributor"`
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	identity := identityFrom(r.Context())
	email := req.Email
	if identity.Email != "" {
		email = identity.Email
	}

	user, err := h.svc.RegisterUser(r.Context(), identity.Subject, domain.Registration{
		Email:          email,
		GithubUsername: req.GithubUsername,
		GithubAvatar:   req.GithubAvatar,
		WalletAddress:  req.WalletAddress,
		Role:           domain.Role(req.Role),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": mapUser(user),
	})
}

func (h *handler) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"user": mapUser(userFrom(r.Context())),
	})
}

func (h *handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GithubUsername *string `json:"githubUsername" validate:"omitempty,max=39"`
		GithubAvatar   *string `json:"githubAvatar" validate:"omitempty,http_url"`
		WalletAddress  *string `json:"walletAddress" validate:"omitempty,eth_addr"`
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), userFrom(r.Context()), domain.ProfileUpdate{
		GithubUsername: trimPtr(req.GithubUsername),
		GithubAvatar:   trimPtr(req.GithubAvatar),
		WalletAddress:  trimPtr(req.WalletAddress),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": mapUser(user),
	})
}

func (h *handler) handleBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := h.svc.ListBadges(r.Context(), userFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"badges": mapBadges(badges),
	})
}

func (h *handler) handleContributions(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeValidationError(w, errors.New("username query parameter is required"))
		return
	}

	items, err := h.contributions.Contributions(r.Context(), username)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"contributions": mapContributions(items),
	})
}

// decodeAndValidate writes the 400 response itself and reports whether the
// handler should continue.
func (h *handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	return h.bind(w, r, dst, false)
}

// decodeOptionalAndValidate treats an empty body, chunked or not, as the zero value of dst.
func (h *handler) decodeOptionalAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	return h.bind(w, r, dst, true)
}

func (h *handler) bind(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	if err := decodeJSON(r.Context(), r.Body, dst); err != nil && !(optional && errors.Is(err, io.EOF)) {
		writeValidationError(w, err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeValidationError(w, errors.New(validationMessage(err)))
		return false
	}
	return true
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
