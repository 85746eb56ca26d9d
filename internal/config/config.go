package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// maxLineQuantityLimit keeps line totals within the order_lines column ranges.
const maxLineQuantityLimit = 10000

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	S3       S3Config
	Redis    RedisConfig
	Kafka    KafkaConfig
	Pricing  PricingConfig
	Loyalty  LoyaltyConfig
	Rewards  RewardsConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	LockTimeout     time.Duration
	RunMigrations   bool
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string
}

// S3Config holds AWS S3 configuration for reward catalogue files.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "rewards/")
}

// RedisConfig holds the cart store connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CartTTL  time.Duration
}

// KafkaConfig holds order event publishing settings.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	PollInterval time.Duration
	BatchSize    int
}

// PricingConfig holds the checkout pricing constants.
type PricingConfig struct {
	TaxRate               decimal.Decimal
	StandardShipping      decimal.Decimal
	ExpressShipping       decimal.Decimal
	StandardDeliveryBonus int64
	EcoPackagingBonus     int64
	MaxLineQuantity       int
}

// LoyaltyConfig holds EcoPoints reward settings.
type LoyaltyConfig struct {
	// ClawBackEarnedOnCancel debits points earned by an order when it is cancelled.
	ClawBackEarnedOnCancel bool
	RedemptionTTL          time.Duration
	PointsRedemptionCap    decimal.Decimal
	PercentOffCost         int64
	PercentOffRate         decimal.Decimal
	PercentOffCap          decimal.Decimal
	FreeShippingCost       int64
}

// RewardsConfig lists the reward catalogue files to load.
type RewardsConfig struct {
	FilePaths []string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "ecokart"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			LockTimeout:     getEnvAsDuration("DB_LOCK_TIMEOUT", 5*time.Second),
			RunMigrations:   getEnvAsBool("DB_RUN_MIGRATIONS", true),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "us-east-1"),
			Prefix:  getEnv("S3_PREFIX", "rewards/"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CartTTL:  getEnvAsDuration("CART_TTL", 7*24*time.Hour),
		},
		Kafka: KafkaConfig{
			Enabled:      getEnvAsBool("KAFKA_ENABLED", false),
			Brokers:      getEnvAsList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:        getEnv("KAFKA_TOPIC", "order-events"),
			PollInterval: getEnvAsDuration("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:    getEnvAsInt("OUTBOX_BATCH_SIZE", 100),
		},
		Pricing: PricingConfig{
			TaxRate:               getEnvAsDecimal("TAX_RATE", decimal.RequireFromString("0.18")),
			StandardShipping:      getEnvAsDecimal("STANDARD_SHIPPING", decimal.NewFromInt(700)),
			ExpressShipping:       getEnvAsDecimal("EXPRESS_SHIPPING", decimal.NewFromInt(999)),
			StandardDeliveryBonus: int64(getEnvAsInt("STANDARD_DELIVERY_BONUS", 10)),
			EcoPackagingBonus:     int64(getEnvAsInt("ECO_PACKAGING_BONUS", 5)),
			MaxLineQuantity:       getEnvAsInt("MAX_LINE_QUANTITY", 99),
		},
		Loyalty: LoyaltyConfig{
			ClawBackEarnedOnCancel: getEnvAsBool("CLAWBACK_EARNED_ON_CANCEL", false),
			RedemptionTTL:          getEnvAsDuration("REDEMPTION_TTL", 30*24*time.Hour),
			PointsRedemptionCap:    getEnvAsDecimal("POINTS_REDEMPTION_CAP", decimal.RequireFromString("0.20")),
			PercentOffCost:         int64(getEnvAsInt("PERCENT_OFF_COST", 100)),
			PercentOffRate:         getEnvAsDecimal("PERCENT_OFF_RATE", decimal.RequireFromString("0.10")),
			PercentOffCap:          getEnvAsDecimal("PERCENT_OFF_CAP", decimal.NewFromInt(2000)),
			FreeShippingCost:       int64(getEnvAsInt("FREE_SHIPPING_COST", 50)),
		},
		Rewards: RewardsConfig{
			FilePaths: getEnvAsList("REWARD_FILES", nil),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
		if c.Kafka.BatchSize < 1 {
			return fmt.Errorf("outbox batch size must be at least 1")
		}
		if c.Kafka.PollInterval <= 0 {
			return fmt.Errorf("outbox poll interval must be positive")
		}
	}

	if c.Pricing.TaxRate.IsNegative() {
		return fmt.Errorf("tax rate cannot be negative")
	}

	if c.Pricing.StandardShipping.IsNegative() || c.Pricing.ExpressShipping.IsNegative() {
		return fmt.Errorf("shipping rates cannot be negative")
	}

	if c.Pricing.StandardDeliveryBonus < 0 || c.Pricing.EcoPackagingBonus < 0 {
		return fmt.Errorf("bonus points cannot be negative")
	}

	if c.Pricing.MaxLineQuantity < 1 || c.Pricing.MaxLineQuantity > maxLineQuantityLimit {
		return fmt.Errorf("max line quantity must be in [1, %d]", maxLineQuantityLimit)
	}

	one := decimal.NewFromInt(1)
	if !c.Loyalty.PointsRedemptionCap.IsPositive() || c.Loyalty.PointsRedemptionCap.GreaterThan(one) {
		return fmt.Errorf("points redemption cap must be in (0, 1]")
	}

	if !c.Loyalty.PercentOffRate.IsPositive() || c.Loyalty.PercentOffRate.GreaterThan(one) {
		return fmt.Errorf("percent-off rate must be in (0, 1]")
	}

	if c.Loyalty.PercentOffCost < 0 || c.Loyalty.FreeShippingCost < 0 {
		return fmt.Errorf("reward costs cannot be negative")
	}

	if c.Loyalty.RedemptionTTL <= 0 {
		return fmt.Errorf("redemption TTL must be positive")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDecimal retrieves an environment variable as a decimal or returns a default value.
func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
