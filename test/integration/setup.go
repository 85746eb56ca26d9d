package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"eco-kart/internal/cart"
	"eco-kart/internal/config"
	"eco-kart/internal/database"
	"eco-kart/internal/handler"
	"eco-kart/internal/ledger"
	"eco-kart/internal/pricing"
	"eco-kart/internal/repository"
	"eco-kart/internal/reward"
	"eco-kart/internal/router"
	"eco-kart/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestAPIKey is accepted by servers built with NewTestServer.
const TestAPIKey = "test-api-key"

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a migrated PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := database.Migrate(connStr, zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.MaxConns = 20

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SetupRedis starts an in-memory Redis server for the cart store.
func SetupRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return client
}

// SeedProducts inserts the sample catalogue.
//
//	P001 eco 145.00 (20 pts) / regular 99.00
//	P002 eco 399.00 (35 pts) / regular 149.00
//	P003 eco 249.00 (15 pts) / regular 179.00
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	products := []struct {
		id, category, ecoName, ecoPrice string
		ecoPoints                       int64
		regularName, regularPrice       string
	}{
		{"P001", "kitchen", "Bamboo Toothbrush", "145.00", 20, "Plastic Toothbrush", "99.00"},
		{"P002", "kitchen", "Beeswax Wraps", "399.00", 35, "Cling Film", "149.00"},
		{"P003", "home", "Refill Cleaner", "249.00", 15, "Spray Cleaner", "179.00"},
	}

	for _, p := range products {
		_, err := pool.Exec(ctx, `
			INSERT INTO products (id, category, eco_name, eco_price, eco_points, regular_name, regular_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, p.id, p.category, p.ecoName, p.ecoPrice, p.ecoPoints, p.regularName, p.regularPrice)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.id, err)
		}
	}
}

// CleanupDB removes all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE order_events, ledger_entries, redemptions, loyalty_accounts, order_lines, orders, products
	`)
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}

// TestPricingConfig returns the default pricing constants.
func TestPricingConfig() config.PricingConfig {
	return config.PricingConfig{
		TaxRate:               decimal.RequireFromString("0.18"),
		StandardShipping:      decimal.NewFromInt(700),
		ExpressShipping:       decimal.NewFromInt(999),
		StandardDeliveryBonus: 10,
		EcoPackagingBonus:     5,
		MaxLineQuantity:       99,
	}
}

// TestLoyaltyConfig returns the default loyalty settings.
func TestLoyaltyConfig() config.LoyaltyConfig {
	return config.LoyaltyConfig{
		RedemptionTTL:       24 * time.Hour,
		PointsRedemptionCap: decimal.RequireFromString("0.20"),
		PercentOffCost:      100,
		PercentOffRate:      decimal.RequireFromString("0.10"),
		PercentOffCap:       decimal.NewFromInt(2000),
		FreeShippingCost:    50,
	}
}

// TestServer is the full HTTP stack over real storage.
type TestServer struct {
	Handler http.Handler
	Ledger  ledger.Ledger
	Orders  repository.OrderRepository
}

// NewTestServer wires repositories, services and the router the way cmd/api does.
func NewTestServer(t *testing.T, db *TestDB, redisClient *redis.Client) *TestServer {
	t.Helper()

	logger := zerolog.Nop()
	loyaltyCfg := TestLoyaltyConfig()

	productRepo := repository.NewProductRepository(db.Pool, logger)
	orderRepo := repository.NewOrderRepository(db.Pool, logger)
	eventRepo := repository.NewEventRepository(db.Pool, logger)
	ldg := ledger.NewLedger(
		repository.NewLedgerRepository(db.Pool, logger),
		repository.NewRedemptionRepository(db.Pool, logger),
		logger,
	)

	catalog := reward.NewMapCatalog(reward.Builtins(loyaltyCfg)...)
	cartStore := cart.NewRedisStore(redisClient, time.Hour, TestPricingConfig().MaxLineQuantity, logger)

	productService := service.NewProductService(productRepo, logger)
	cartService := service.NewCartService(cartStore, productRepo, TestPricingConfig().MaxLineQuantity, logger)
	checkoutService := service.NewCheckoutService(
		cartStore, productRepo, orderRepo, eventRepo,
		pricing.NewCalculator(TestPricingConfig()),
		reward.NewResolver(catalog, loyaltyCfg),
		ldg, logger,
	)
	orderService := service.NewOrderService(orderRepo, eventRepo, ldg, loyaltyCfg.ClawBackEarnedOnCancel, logger)
	loyaltyService := service.NewLoyaltyService(ldg, catalog, loyaltyCfg.RedemptionTTL, logger)

	h := router.New(router.Handlers{
		Product:  handler.NewProductHandler(productService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Loyalty:  handler.NewLoyaltyHandler(loyaltyService, logger),
	}, TestAPIKey, 0, logger)

	return &TestServer{Handler: h, Ledger: ldg, Orders: orderRepo}
}
