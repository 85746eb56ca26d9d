package handler

import (
	"net/http"

	"eco-kart/internal/model"
	"eco-kart/internal/service"

	"github.com/rs/zerolog"
)

// CheckoutHandler handles checkout requests.
type CheckoutHandler struct {
	service service.CheckoutService
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service service.CheckoutService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

// Checkout handles POST /api/checkout. A new order is 201, a replayed one 200.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CheckoutRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	req.UserID = userID

	resp, err := h.service.Checkout(r.Context(), &req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}
