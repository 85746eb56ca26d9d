package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"eco-kart/internal/cart"
	"eco-kart/internal/config"
	"eco-kart/internal/database"
	"eco-kart/internal/events"
	"eco-kart/internal/handler"
	"eco-kart/internal/ledger"
	"eco-kart/internal/pricing"
	"eco-kart/internal/repository"
	"eco-kart/internal/reward"
	"eco-kart/internal/router"
	"eco-kart/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting eco-kart API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.RunMigrations {
		if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	// Repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	eventRepo := repository.NewEventRepository(pool, logger)
	ledgerRepo := repository.NewLedgerRepository(pool, logger)
	redemptionRepo := repository.NewRedemptionRepository(pool, logger)

	catalog, err := loadRewardCatalog(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize reward catalogue: %w", err)
	}

	// Domain components
	cartStore := cart.NewRedisStore(redisClient, cfg.Redis.CartTTL, cfg.Pricing.MaxLineQuantity, logger)
	calculator := pricing.NewCalculator(cfg.Pricing)
	resolver := reward.NewResolver(catalog, cfg.Loyalty)
	ldg := ledger.NewLedger(ledgerRepo, redemptionRepo, logger)

	// Services
	productService := service.NewProductService(productRepo, logger)
	cartService := service.NewCartService(cartStore, productRepo, cfg.Pricing.MaxLineQuantity, logger)
	checkoutService := service.NewCheckoutService(cartStore, productRepo, orderRepo, eventRepo, calculator, resolver, ldg, logger)
	orderService := service.NewOrderService(orderRepo, eventRepo, ldg, cfg.Loyalty.ClawBackEarnedOnCancel, logger)
	loyaltyService := service.NewLoyaltyService(ldg, catalog, cfg.Loyalty.RedemptionTTL, logger)

	mux := router.New(router.Handlers{
		Product:  handler.NewProductHandler(productService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Loyalty:  handler.NewLoyaltyHandler(loyaltyService, logger),
	}, cfg.Auth.APIKey, cfg.Server.RequestTimeout, logger)

	var wg sync.WaitGroup
	if cfg.Kafka.Enabled {
		writer := events.NewKafkaWriter(cfg.Kafka)
		publisher := events.NewOutboxPublisher(eventRepo, writer, cfg.Kafka, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close kafka writer")
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			publisher.Run(ctx)
		}()
	} else {
		logger.Info().Msg("order event publishing disabled, events stay in the outbox")
	}

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		cancel()
		wg.Wait()
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		// Stop the outbox publisher after in-flight requests have committed.
		cancel()
		wg.Wait()

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// loadRewardCatalog reads reward files from S3 with a local fallback and adds the builtins.
func loadRewardCatalog(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (reward.Catalog, error) {
	fileLoader := reward.NewFileLoader(logger)

	var s3Loader reward.Loader
	if cfg.S3.Enabled {
		l, err := reward.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			s3Loader = l
		}
	} else {
		logger.Info().Msg("using local file system for reward files (S3 disabled)")
	}

	loader := reward.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, s3Loader != nil, logger)

	return reward.NewCatalog(ctx, reward.CatalogConfig{
		FilePaths: cfg.Rewards.FilePaths,
		Builtins:  reward.Builtins(cfg.Loyalty),
	}, loader, logger)
}
