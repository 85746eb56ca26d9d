package repository

import (
	"context"
	"testing"
	"time"

	"eco-kart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRepository_CreateAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	order := testOrder(uuid.New())
	order.Items = append(order.Items, model.OrderLine{
		ID: uuid.New(), OrderID: order.ID, ProductID: "P002", DisplayName: "Regular P002",
		Variant: model.VariantRegular, UnitPrice: decimal.RequireFromString("0"), Quantity: 1,
	})
	insertOrder(t, repo, order)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, order.UserID, got.UserID)
	assert.True(t, order.FinalTotal.Equal(got.FinalTotal))
	assert.True(t, decimal.RequireFromString("1042.2").Equal(got.FinalTotal))
	assert.Equal(t, int64(55), got.PointsEarned)
	assert.Equal(t, model.DeliveryStandard, got.DeliveryOption)
	assert.Equal(t, order.ShippingAddress, got.ShippingAddress)
	assert.Equal(t, model.OrderStatusPending, got.Status)
	assert.Nil(t, got.IdempotencyKey)

	require.Len(t, got.Items, 2)
	assert.Equal(t, "P001", got.Items[0].ProductID)
	assert.Equal(t, model.VariantEco, got.Items[0].Variant)
	assert.Equal(t, "P002", got.Items[1].ProductID)
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())

	order, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestOrderRepository_CreateOrder_RollbackDiscardsOrder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	order := testOrder(uuid.New())
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, repo.CreateOrderLines(ctx, tx, order.Items))
	require.NoError(t, tx.Rollback(ctx))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrderRepository_GetByIdempotencyKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	userID := uuid.New()
	key := "retry-1"
	order := testOrder(userID)
	order.IdempotencyKey = &key
	insertOrder(t, repo, order)

	got, err := repo.GetByIdempotencyKey(ctx, userID, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, order.ID, got.ID)

	other, err := repo.GetByIdempotencyKey(ctx, uuid.New(), key)
	require.NoError(t, err)
	assert.Nil(t, other)

	duplicate := testOrder(userID)
	duplicate.IdempotencyKey = &key
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	assert.Error(t, repo.CreateOrder(ctx, tx, duplicate))
}

func TestOrderRepository_ListByUser(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	userID := uuid.New()
	first := testOrder(userID)
	second := testOrder(userID)
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	insertOrder(t, repo, first)
	insertOrder(t, repo, second)
	insertOrder(t, repo, testOrder(uuid.New()))

	orders, err := repo.ListByUser(ctx, userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
	assert.Len(t, orders[0].Items, 1)
	assert.Len(t, orders[1].Items, 1)

	page, err := repo.ListByUser(ctx, userID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)

	none, err := repo.ListByUser(ctx, uuid.New(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	order := testOrder(uuid.New())
	insertOrder(t, repo, order)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	locked, err := repo.GetForUpdate(ctx, tx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, locked)
	assert.Len(t, locked.Items, 1)

	require.NoError(t, repo.UpdateStatus(ctx, tx, order.ID, model.OrderStatusConfirmed, time.Now().UTC()))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, tx, uuid.New(), model.OrderStatusConfirmed, time.Now().UTC()), model.ErrOrderNotFound)
	require.NoError(t, tx.Commit(ctx))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, got.Status)
}

func TestOrderRepository_ErrorPaths(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	pool.Close()

	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.Error(t, err)
	assert.Nil(t, tx)

	order, err := repo.GetByID(ctx, uuid.New())
	require.Error(t, err)
	assert.Nil(t, order)

	orders, err := repo.ListByUser(ctx, uuid.New(), 10, 0)
	require.Error(t, err)
	assert.Nil(t, orders)
}
