package httpserver

import (
	"net/http"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (h *handler) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PRURL    string `json:"prUrl" validate:"required,http_url"`
		IssueURL string `json:"issueUrl" validate:"omitempty,http_url"`
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	sub, err := h.svc.CreateSubmission(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id"), domain.NewSubmission{
		PRURL:    req.PRURL,
		IssueURL: req.IssueURL,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"submission": mapSubmission(sub),
	})
}

func (h *handler) handleApproveSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.svc.ApproveSubmission(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"submission": mapSubmission(sub),
	})
}

func (h *handler) handleRejectSubmission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Comments string `json:"comments" validate:"max=2000"`
	}
	if !h.decodeOptionalAndValidate(w, r, &req) {
		return
	}

	sub, err := h.svc.RejectSubmission(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id"), req.Comments)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"submission": mapSubmission(sub),
	})
}

func (h *handler) handleMySubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.ListUserSubmissions(r.Context(), userFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"submissions": mapSubmissionList(subs),
	})
}
