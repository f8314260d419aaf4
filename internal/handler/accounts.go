package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tuition-credits/internal/model"
	"tuition-credits/internal/service"
)

type ensureAccountRequest struct {
	UserID   string         `json:"userId"`
	UserType model.UserType `json:"userType"`
}

type purchaseRequest struct {
	PackageID string `json:"packageId"`
}

// POST /v1/accounts
func (h *Handler) handleEnsureAccount(w http.ResponseWriter, r *http.Request) {
	var req ensureAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	acct, err := h.svc.GetOrCreateAccount(r.Context(), req.UserID, req.UserType)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.viewAccount(r, acct))
}

type accountView struct {
	*model.Account
	Transactions []transactionView `json:"transactions"`
}

func (h *Handler) viewAccount(r *http.Request, acct *model.Account) accountView {
	tag := h.locale(r)
	txs := make([]transactionView, 0, len(acct.Transactions))
	for _, tx := range acct.Transactions {
		txs = append(txs, h.viewTx(tag, tx))
	}
	return accountView{Account: acct, Transactions: txs}
}

// GET /v1/accounts/{userID}
func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := h.svc.GetAccount(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.viewAccount(r, acct))
}

// GET /v1/accounts/{userID}/balance
func (h *Handler) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	balance, err := h.svc.GetBalance(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"userId": userID, "balance": balance})
}

// GET /v1/accounts/{userID}/sufficient?amount=N
func (h *Handler) handleHasEnough(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		writeServiceError(w, r, fmt.Errorf("%w: amount must be an integer", errBadRequest))
		return
	}

	ok, err := h.svc.HasEnoughCredits(r.Context(), userID, amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"userId": userID, "amount": amount, "sufficient": ok})
}

// GET /v1/accounts/{userID}/history[?format=csv]
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	records, err := h.svc.ExportHistory(r.Context(), userID, h.locale(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="credits-%s.csv"`, userID))
		if err := service.WriteHistoryCSV(w, records); err != nil {
			writeServiceError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"userId": userID, "records": records})
}

// POST /v1/accounts/{userID}/purchases
func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	tx, err := h.svc.PurchasePackage(r.Context(), chi.URLParam(r, "userID"), req.PackageID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.viewTx(h.locale(r), *tx))
}
