package repository

import (
	"context"
	"time"

	"eco-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for catalogue lookups.
type ProductRepository interface {
	// List returns one page of products matching the filter.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. It returns nil if none exists.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs. Unknown IDs are omitted.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderLines inserts the frozen lines of an order within the provided transaction.
	CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error

	// GetByID retrieves an order with its lines. It returns nil if none exists.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByIdempotencyKey finds the order a user placed with the given key.
	GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Order, error)

	// GetForUpdate retrieves and row-locks an order within the provided transaction.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// ListByUser retrieves a user's orders, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error)

	// UpdateStatus sets the status of an order within the provided transaction.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, at time.Time) error
}

// LedgerRepository persists ledger entries and the cached running balance.
type LedgerRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// LockAccount creates the account row if needed, locks it and returns the cached balance.
	LockAccount(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int64, error)

	// AppendEntry inserts an immutable ledger entry.
	AppendEntry(ctx context.Context, tx pgx.Tx, entry *model.LedgerEntry) error

	// SetBalance updates the cached running balance of a locked account.
	SetBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, balance int64) error

	// Balance returns the cached balance, zero for unknown users.
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)

	// Entries returns a user's entries, most recent first.
	Entries(ctx context.Context, userID uuid.UUID, limit int) ([]model.LedgerEntry, error)
}

// RedemptionRepository persists redemptions.
type RedemptionRepository interface {
	// Create inserts a redemption within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, redemption *model.Redemption) error

	// GetForUpdate retrieves and row-locks a redemption. It returns nil if none exists.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Redemption, error)

	// Update writes the status, order and discount of a redemption.
	Update(ctx context.Context, tx pgx.Tx, redemption *model.Redemption) error

	// ListByOrder retrieves and row-locks the redemptions applied to an order.
	ListByOrder(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.Redemption, error)

	// ListByUser retrieves a user's redemptions, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error)
}

// EventRepository is the transactional outbox for order events.
type EventRepository interface {
	// Enqueue stores an event within the provided transaction.
	Enqueue(ctx context.Context, tx pgx.Tx, event *model.OrderEvent) error

	// Unpublished returns the oldest events not yet published.
	Unpublished(ctx context.Context, limit int) ([]model.OrderEvent, error)

	// MarkPublished records that an event reached the broker.
	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error
}
