package service

import (
	"context"

	"eco-kart/internal/model"

	"github.com/google/uuid"
)

// ProductService defines operations for catalogue browsing.
type ProductService interface {
	// List returns one page of the catalogue, optionally narrowed to a category.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)
}

// CartService defines operations on a shopper's live cart.
type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *model.CartItemRequest) (*model.Cart, error)
	SetQuantity(ctx context.Context, userID uuid.UUID, req *model.CartItemRequest) (*model.Cart, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, productID string, variant model.Variant) (*model.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// CheckoutService turns a cart into an order in one atomic step.
type CheckoutService interface {
	// Checkout prices the user's cart, applies rewards, updates the ledger and
	// persists the order. On error nothing is persisted.
	Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error)
}

// OrderService defines order queries and lifecycle operations.
type OrderService interface {
	// GetByID retrieves one of the user's orders.
	GetByID(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error)

	// List retrieves the user's orders, newest first.
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error)

	// Cancel cancels a pending order and refunds the points spent on it.
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*model.CancelResponse, error)

	// UpdateStatus moves an order forward on behalf of fulfilment.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error)
}

// LoyaltyService exposes EcoPoints balances, history and reward claims.
type LoyaltyService interface {
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]model.LedgerEntry, error)
	Rewards(ctx context.Context) []model.Reward

	// ClaimReward spends points on a catalogue reward for use at a later checkout.
	ClaimReward(ctx context.Context, userID uuid.UUID, rewardID string) (*model.Redemption, error)

	Redemptions(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error)
}
