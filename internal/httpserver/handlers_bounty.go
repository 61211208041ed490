package httpserver

import (
	"net/http"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func (h *handler) handleListBounties(w http.ResponseWriter, r *http.Request) {
	bounties, err := h.svc.ListOpenBounties(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bounties": mapBountyList(bounties),
	})
}

func (h *handler) handleCreateBounty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IssueLink   string          `json:"issueLink" validate:"required,http_url"`
		RepoLink    string          `json:"repoLink" validate:"required,http_url"`
		Amount      decimal.Decimal `json:"amount"`
		FundingTxID string          `json:"fundingTxId" validate:"required,txhash"`
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	bounty, err := h.svc.CreateBounty(r.Context(), userFrom(r.Context()), domain.NewBounty{
		IssueLink:   req.IssueLink,
		RepoLink:    req.RepoLink,
		Amount:      req.Amount,
		FundingTxID: req.FundingTxID,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"bounty": mapBounty(bounty),
	})
}

func (h *handler) handleGetBounty(w http.ResponseWriter, r *http.Request) {
	bounty, err := h.svc.GetBounty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bounty": mapBounty(bounty),
	})
}

func (h *handler) handleClaimBounty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PRLink string `json:"prLink" validate:"required,http_url"`
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	bounty, err := h.svc.ClaimBounty(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id"), req.PRLink)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bounty": mapBounty(bounty),
	})
}

func (h *handler) handleApproveBounty(w http.ResponseWriter, r *http.Request) {
	bounty, err := h.svc.ApproveBounty(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bounty": mapBounty(bounty),
	})
}

func (h *handler) handleMyBounties(w http.ResponseWriter, r *http.Request) {
	bounties, err := h.svc.ListClaimedBounties(r.Context(), userFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bounties": mapBountyList(bounties),
	})
}

func (h *handler) handleCreatorBounties(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListCreatorBounties(r.Context(), userFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bounties": mapCreatorBounties(items),
	})
}
