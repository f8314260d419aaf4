package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type setBalanceRequest struct {
	Balance *int64 `json:"balance"`
	Note    string `json:"note"`
}

// POST /v1/admin/accounts/{userID}/balance
func (h *Handler) handleAdminSetBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req setBalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if req.Balance == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "balance is required")
		return
	}

	tx, err := h.svc.AdminSetBalance(r.Context(), userID, *req.Balance, req.Note)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Int64("balance", *req.Balance).
		Str("remote", r.RemoteAddr).
		Msg("Admin balance override via API")

	resp := map[string]any{"userId": userID, "balance": *req.Balance, "changed": tx != nil}
	if tx != nil {
		resp["transaction"] = h.viewTx(h.locale(r), *tx)
	}
	writeJSON(w, http.StatusOK, resp)
}
