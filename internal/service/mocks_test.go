package service

import (
	"context"
	"time"

	"eco-kart/internal/config"
	"eco-kart/internal/ledger"
	"eco-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a MockTx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	args := m.Called(ctx, tx, lines)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Order, error) {
	args := m.Called(ctx, userID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, at time.Time) error {
	args := m.Called(ctx, tx, id, status, at)
	return args.Error(0)
}

// MockEventRepository is a mock implementation of EventRepository.
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Enqueue(ctx context.Context, tx pgx.Tx, event *model.OrderEvent) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

func (m *MockEventRepository) Unpublished(ctx context.Context, limit int) ([]model.OrderEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderEvent), args.Error(1)
}

func (m *MockEventRepository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockCartStore is a mock implementation of cart.Store.
type MockCartStore struct {
	mock.Mock
}

func (m *MockCartStore) Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartStore) Snapshot(ctx context.Context, userID uuid.UUID) (*model.CartSnapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartSnapshot), args.Error(1)
}

func (m *MockCartStore) AddItem(ctx context.Context, userID uuid.UUID, item model.CartItem) (*model.Cart, error) {
	args := m.Called(ctx, userID, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartStore) SetQuantity(ctx context.Context, userID uuid.UUID, item model.CartItem) (*model.Cart, error) {
	args := m.Called(ctx, userID, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartStore) RemoveItem(ctx context.Context, userID uuid.UUID, productID string, variant model.Variant) (*model.Cart, error) {
	args := m.Called(ctx, userID, productID, variant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartStore) Clear(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockLedger is a mock implementation of ledger.Ledger. WithUser runs the
// callback against Tx and reports errors the way the real ledger does.
type MockLedger struct {
	mock.Mock
	Tx pgx.Tx
}

func (m *MockLedger) WithUser(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx pgx.Tx) error) error {
	args := m.Called(ctx, userID)
	if err := args.Error(0); err != nil {
		return err
	}
	if err := fn(ctx, m.Tx); err != nil {
		if _, ok := model.AsDomainError(err); !ok {
			return model.NewPersistenceFailure(err)
		}
		return err
	}
	return nil
}

func (m *MockLedger) BalanceTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedger) Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, reason model.EntryReason, ref model.EntryRef) (*model.LedgerEntry, error) {
	args := m.Called(ctx, tx, userID, amount, reason, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LedgerEntry), args.Error(1)
}

func (m *MockLedger) Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, reason model.EntryReason, ref model.EntryRef) (*model.LedgerEntry, error) {
	args := m.Called(ctx, tx, userID, amount, reason, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LedgerEntry), args.Error(1)
}

func (m *MockLedger) Claim(ctx context.Context, tx pgx.Tx, req ledger.ClaimRequest) (*model.Redemption, error) {
	args := m.Called(ctx, tx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Redemption), args.Error(1)
}

func (m *MockLedger) MarkRedemptionUsed(ctx context.Context, tx pgx.Tx, redemptionID, orderID uuid.UUID, discount decimal.Decimal) (*model.Redemption, error) {
	args := m.Called(ctx, tx, redemptionID, orderID, discount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Redemption), args.Error(1)
}

func (m *MockLedger) Refund(ctx context.Context, tx pgx.Tx, redemptionID uuid.UUID) (*model.Redemption, error) {
	args := m.Called(ctx, tx, redemptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Redemption), args.Error(1)
}

func (m *MockLedger) Redemption(ctx context.Context, tx pgx.Tx, redemptionID uuid.UUID) (*model.Redemption, error) {
	args := m.Called(ctx, tx, redemptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Redemption), args.Error(1)
}

func (m *MockLedger) OrderRedemptions(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.Redemption, error) {
	args := m.Called(ctx, tx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Redemption), args.Error(1)
}

func (m *MockLedger) BalanceOf(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedger) History(ctx context.Context, userID uuid.UUID, limit int) ([]model.LedgerEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LedgerEntry), args.Error(1)
}

func (m *MockLedger) Redemptions(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Redemption), args.Error(1)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

func sampleProduct(id, ecoPrice, regularPrice string, points int64) model.Product {
	return model.Product{
		ID:       id,
		Category: "Home",
		Eco: model.EcoVariant{
			Name:          "Eco " + id,
			UnitPrice:     decimal.RequireFromString(ecoPrice),
			PointsPerUnit: points,
		},
		Regular: model.RegularVariant{
			Name:      "Regular " + id,
			UnitPrice: decimal.RequireFromString(regularPrice),
		},
	}
}

func testPricingConfig() config.PricingConfig {
	return config.PricingConfig{
		TaxRate:               decimal.RequireFromString("0.18"),
		StandardShipping:      decimal.NewFromInt(700),
		ExpressShipping:       decimal.NewFromInt(999),
		StandardDeliveryBonus: 10,
		EcoPackagingBonus:     5,
	}
}

func testLoyaltyConfig() config.LoyaltyConfig {
	return config.LoyaltyConfig{
		RedemptionTTL:       24 * time.Hour,
		PointsRedemptionCap: decimal.RequireFromString("0.20"),
		PercentOffCost:      100,
		PercentOffRate:      decimal.RequireFromString("0.10"),
		PercentOffCap:       decimal.NewFromInt(2000),
		FreeShippingCost:    50,
	}
}
