package handler

import (
	"context"
	"net/http"

	"eco-kart/internal/model"
	"eco-kart/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CartHandler handles requests on the caller's live cart.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r, h.logger)
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.AddItem)
}

// SetQuantity handles PUT /api/cart/items.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.SetQuantity)
}

// RemoveItem handles DELETE /api/cart/items?productId=&variant=.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r, h.logger)
	if !ok {
		return
	}

	productID := r.URL.Query().Get("productId")
	if productID == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "productId is required", h.logger)
		return
	}
	variant := model.Variant(r.URL.Query().Get("variant"))

	c, err := h.service.RemoveItem(r.Context(), userID, productID, variant)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), userID); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) mutate(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, userID uuid.UUID, req *model.CartItemRequest) (*model.Cart, error),
) {
	userID, ok := requestUser(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CartItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	c, err := op(r.Context(), userID, &req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, c)
}
