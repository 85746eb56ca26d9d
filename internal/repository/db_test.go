package repository

import (
	"context"
	"testing"
	"time"

	"eco-kart/internal/database"
	"eco-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a migrated PostgreSQL testcontainer and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.Migrate(connStr, zerolog.Nop()))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedProducts inserts test products into the database.
func seedProducts(t *testing.T, pool *pgxpool.Pool, products []model.Product) {
	t.Helper()
	ctx := context.Background()

	query := `
		INSERT INTO products (id, category, eco_name, eco_price, eco_points, regular_name, regular_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, p := range products {
		_, err := pool.Exec(ctx, query,
			p.ID, p.Category,
			p.Eco.Name, p.Eco.UnitPrice, p.Eco.PointsPerUnit,
			p.Regular.Name, p.Regular.UnitPrice,
			p.CreatedAt,
		)
		require.NoError(t, err)
	}
}

func testProduct(id, category string, ecoPrice, regularPrice string, points int64) model.Product {
	return model.Product{
		ID:       id,
		Category: category,
		Eco: model.EcoVariant{
			Name:          "Eco " + id,
			UnitPrice:     decimal.RequireFromString(ecoPrice),
			PointsPerUnit: points,
		},
		Regular: model.RegularVariant{
			Name:      "Regular " + id,
			UnitPrice: decimal.RequireFromString(regularPrice),
		},
		CreatedAt: time.Now().UTC(),
	}
}

// testOrder builds a priced pending order with a single eco line.
func testOrder(userID uuid.UUID) *model.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	order := &model.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Subtotal:       decimal.RequireFromString("290"),
		Tax:            decimal.RequireFromString("52.2"),
		Shipping:       decimal.RequireFromString("700"),
		PointsEarned:   55,
		DeliveryOption: model.DeliveryStandard,
		ShippingAddress: model.Address{
			Street:  "1 Green Way",
			City:    "Pune",
			Country: "IN",
		},
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.ComputeFinalTotal()
	order.Items = []model.OrderLine{
		{ID: uuid.New(), OrderID: order.ID, ProductID: "P001", DisplayName: "Eco P001", Variant: model.VariantEco, UnitPrice: decimal.RequireFromString("145"), PointsPerUnit: 10, Quantity: 2},
	}
	return order
}

// insertOrder persists an order and its lines in a committed transaction.
func insertOrder(t *testing.T, repo OrderRepository, order *model.Order) {
	t.Helper()
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, repo.CreateOrderLines(ctx, tx, order.Items))
	require.NoError(t, tx.Commit(ctx))
}
