// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the client-data cache database
	Port     int
	LogLevel string
	DevMode  bool

	// Anthropic credentials for the on-demand analysis side channel.
	// Empty key disables the /api/analysis endpoint.
	AnthropicAPIKey string
	AnthropicModel  string

	// External data source base URLs (overridable so tests can point at
	// an httptest server)
	MarketDataBaseURL  string
	MacroBaseURL       string
	PredictionsBaseURL string

	// Pipeline tunables
	DedupCapacity   int           // Max resident identifiers in the dedup ledger
	CardHistorySize int           // Cards kept for new-subscriber replay
	FeedMaxAge      time.Duration // Coarse recency gate applied at fetch time
	CardMaxAge      time.Duration // Strict recency gate applied before annotation
	MaxItemsPerFeed int           // Candidate items taken from one feed per cycle

	// Poller circuit breaker
	BreakerFailureThreshold int           // Consecutive failures before a source is skipped
	BreakerCooldown         time.Duration // Open-state duration before a probe fetch

	// Cron schedules (robfig/cron specs, seconds field enabled)
	BreakingPollSpec      string
	PeriodicPollSpec      string
	MarketRefreshSpec     string
	MacroRefreshSpec      string
	FXRefreshSpec         string
	CommodityRefreshSpec  string
	PredictionRefreshSpec string
	CacheCleanupSpec      string

	// Optional JSON file overriding the built-in feed table
	FeedsFile string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("NEWSWIRE_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8090),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),

		MarketDataBaseURL:  getEnv("MARKET_DATA_BASE_URL", "https://quote.wardstone.dev/v1"),
		MacroBaseURL:       getEnv("MACRO_BASE_URL", "https://macro.wardstone.dev/v1"),
		PredictionsBaseURL: getEnv("PREDICTIONS_BASE_URL", "https://gamma-api.polymarket.com"),

		DedupCapacity:   getEnvAsInt("DEDUP_CAPACITY", 5000),
		CardHistorySize: getEnvAsInt("CARD_HISTORY_SIZE", 50),
		FeedMaxAge:      time.Duration(getEnvAsInt("FEED_MAX_AGE_HOURS", 48)) * time.Hour,
		CardMaxAge:      time.Duration(getEnvAsInt("CARD_MAX_AGE_HOURS", 8)) * time.Hour,
		MaxItemsPerFeed: getEnvAsInt("MAX_ITEMS_PER_FEED", 20),

		BreakerFailureThreshold: getEnvAsInt("BREAKER_FAILURE_THRESHOLD", 5),
		BreakerCooldown:         time.Duration(getEnvAsInt("BREAKER_COOLDOWN_MINUTES", 30)) * time.Minute,

		BreakingPollSpec:      getEnv("BREAKING_POLL_SPEC", "@every 2m"),
		PeriodicPollSpec:      getEnv("PERIODIC_POLL_SPEC", "@every 15m"),
		MarketRefreshSpec:     getEnv("MARKET_REFRESH_SPEC", "@every 1m"),
		MacroRefreshSpec:      getEnv("MACRO_REFRESH_SPEC", "@every 30m"),
		FXRefreshSpec:         getEnv("FX_REFRESH_SPEC", "@every 5m"),
		CommodityRefreshSpec:  getEnv("COMMODITY_REFRESH_SPEC", "@every 5m"),
		PredictionRefreshSpec: getEnv("PREDICTION_REFRESH_SPEC", "@every 10m"),
		CacheCleanupSpec:      getEnv("CACHE_CLEANUP_SPEC", "@daily"),

		FeedsFile: getEnv("FEEDS_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and sane
func (c *Config) Validate() error {
	if c.DedupCapacity <= 0 {
		return fmt.Errorf("dedup capacity must be positive, got %d", c.DedupCapacity)
	}
	if c.CardHistorySize <= 0 {
		return fmt.Errorf("card history size must be positive, got %d", c.CardHistorySize)
	}
	if c.CardMaxAge > c.FeedMaxAge {
		return fmt.Errorf("strict recency gate (%s) cannot exceed coarse gate (%s)", c.CardMaxAge, c.FeedMaxAge)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
