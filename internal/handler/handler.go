// Package handler provides the HTTP handlers of the credit ledger API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"tuition-credits/internal/i18n"
	"tuition-credits/internal/ledger"
	"tuition-credits/internal/model"
	"tuition-credits/internal/notify"
	"tuition-credits/internal/pkg/lock"
	"tuition-credits/internal/repository"
	"tuition-credits/internal/service"
)

var errBadRequest = errors.New("bad request")

// Handler serves the ledger API on top of a CreditService.
type Handler struct {
	svc        service.CreditService
	translator *i18n.Translator
	hub        *notify.Hub
}

// NewHandler creates a new Handler. hub may be nil, in which case the event
// feed is not mounted.
func NewHandler(svc service.CreditService, translator *i18n.Translator, hub *notify.Hub) *Handler {
	return &Handler{svc: svc, translator: translator, hub: hub}
}

// Routes mounts the public API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/packages", func(r chi.Router) {
		r.Get("/", h.handleListPackages)
		r.Post("/init", h.handleInitPackages)
		r.Get("/{packageID}", h.handleGetPackage)
	})

	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", h.handleEnsureAccount)
		r.Route("/{userID}", func(r chi.Router) {
			r.Get("/", h.handleGetAccount)
			r.Get("/balance", h.handleGetBalance)
			r.Get("/sufficient", h.handleHasEnough)
			r.Get("/history", h.handleHistory)
			r.Post("/purchases", h.handlePurchase)
		})
	})

	r.Route("/actions", func(r chi.Router) {
		r.Get("/", h.handleListActions)
		r.Post("/apply-job", h.handleApplyJob)
		r.Post("/post-job", h.handlePostJob)
		r.Post("/hire", h.handleHire)
		r.Post("/contact", h.handleContact)
		r.Post("/video-meeting", h.handleVideoMeeting)
		r.Post("/rewards", h.handleReward)
		r.Post("/milestones", h.handleMilestone)
	})

	if h.hub != nil {
		r.Get("/events", h.handleEvents)
	}
}

// AdminRoutes mounts the privileged API on r. Callers are expected to guard
// r with an authorization middleware.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Post("/accounts/{userID}/balance", h.handleAdminSetBalance)
}

// locale picks the response language from ?lang= or Accept-Language.
func (h *Handler) locale(r *http.Request) language.Tag {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		if tag, err := i18n.Parse(lang); err == nil {
			return tag
		}
	}
	return h.translator.Match(r.Header.Get("Accept-Language"))
}

type transactionView struct {
	model.Transaction
	TypeLabel   string `json:"typeLabel"`
	Description string `json:"description"`
}

func (h *Handler) viewTx(tag language.Tag, tx model.Transaction) transactionView {
	return transactionView{
		Transaction: tx,
		TypeLabel:   h.translator.TypeLabel(tag, tx.Type),
		Description: h.translator.Describe(tag, tx),
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

type errorBody struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Required  *int64 `json:"required,omitempty"`
	Available *int64 `json:"available,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, errType, msg string) {
	writeJSON(w, status, map[string]errorBody{
		"error": {Message: msg, Type: errType},
	})
}

// writeServiceError maps ledger and service errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ice *ledger.InsufficientCreditsError
	if errors.As(err, &ice) {
		writeJSON(w, http.StatusPaymentRequired, map[string]errorBody{
			"error": {
				Message:   err.Error(),
				Type:      "insufficient_credits",
				Required:  &ice.Required,
				Available: &ice.Available,
			},
		})
		return
	}

	status, errType := classify(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, status, errType, "internal error")
		return
	}
	writeError(w, status, errType, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound), errors.Is(err, ledger.ErrPackageNotFound):
		return http.StatusNotFound, "not_found"

	case errors.Is(err, ledger.ErrInsufficientCredits):
		return http.StatusPaymentRequired, "insufficient_credits"

	case errors.Is(err, ledger.ErrFreePackageNotPurchasable),
		errors.Is(err, ledger.ErrRewardAlreadyGranted),
		errors.Is(err, ledger.ErrAccountExists),
		errors.Is(err, service.ErrPackageRoleMismatch),
		errors.Is(err, service.ErrActionRoleMismatch):
		return http.StatusConflict, "conflict"

	case errors.Is(err, errBadRequest),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidCreditType),
		errors.Is(err, ledger.ErrInvalidUserType),
		errors.Is(err, ledger.ErrInvalidUserID),
		errors.Is(err, ledger.ErrNegativeBalance),
		errors.Is(err, ledger.ErrBalanceOverflow),
		errors.Is(err, service.ErrSameParticipant),
		errors.Is(err, service.ErrUnknownAction),
		errors.Is(err, service.ErrNotAMilestone):
		return http.StatusBadRequest, "invalid_request"

	case errors.Is(err, lock.ErrLockTimeout), errors.Is(err, repository.ErrConcurrentModification):
		return http.StatusServiceUnavailable, "busy"
	}
	return http.StatusInternalServerError, "internal"
}
