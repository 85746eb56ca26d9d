package handler

import (
	"net/http"

	"eco-kart/internal/model"
	"eco-kart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// LoyaltyHandler serves EcoPoints balances, history and reward claims.
type LoyaltyHandler struct {
	service service.LoyaltyService
	logger  zerolog.Logger
}

// NewLoyaltyHandler creates a new loyalty handler.
func NewLoyaltyHandler(service service.LoyaltyService, logger zerolog.Logger) *LoyaltyHandler {
	return &LoyaltyHandler{
		service: service,
		logger:  logger.With().Str("handler", "loyalty").Logger(),
	}
}

// Balance handles GET /api/loyalty/balance.
func (h *LoyaltyHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r, h.logger)
	if !ok {
		return
	}

	balance, err := h.service.Balance(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.BalanceResponse{UserID: userID, Balance: balance})
}

// History handles GET /api/loyalty/history?limit=.
func (h *LoyaltyHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r, h.logger)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid limit parameter", h.logger)
		return
	}

	entries, err := h.service.History(r.Context(), userID, limit)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// Rewards handles GET /api/rewards.
func (h *LoyaltyHandler) Rewards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Rewards(r.Context()))
}

// ClaimReward handles POST /api/loyalty/rewards/{id}/claim.
func (h *LoyaltyHandler) ClaimReward(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r, h.logger)
	if !ok {
		return
	}

	redemption, err := h.service.ClaimReward(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, redemption)
}

// Redemptions handles GET /api/loyalty/redemptions.
func (h *LoyaltyHandler) Redemptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r, h.logger)
	if !ok {
		return
	}

	redemptions, err := h.service.Redemptions(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, redemptions)
}
