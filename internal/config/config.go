package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Backend API
	APIBaseURL string
	InitData   string

	// Player identity
	UserID string

	// Storage
	DataDir          string
	StorageType      string // "memory" or "sqlite"
	ElasticsearchURL string

	// Table rules
	Decks        int
	MinimumBet   float64
	MaximumBet   float64
	StartingBank float64

	// Presentation pacing
	CardDelay time.Duration
	PaceDelay time.Duration

	// Test hooks
	ForceDealerAce bool

	// Environment
	Environment string // "development" or "production"
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Only return error if file exists but couldn't be loaded
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg := &Config{
		APIBaseURL:       os.Getenv("API_BASE_URL"),
		InitData:         os.Getenv("TELEGRAM_INIT_DATA"),
		UserID:           getEnvWithDefault("USER_ID", "local-player"),
		DataDir:          getEnvWithDefault("DATA_DIR", filepath.Join(wd, "data")),
		StorageType:      getEnvWithDefault("STORAGE_TYPE", "sqlite"),
		ElasticsearchURL: os.Getenv("ELASTICSEARCH_URL"),
		Decks:            getEnvInt("DECKS", 6),
		MinimumBet:       getEnvFloat("MIN_BET", 1),
		MaximumBet:       getEnvFloat("MAX_BET", 10000),
		StartingBank:     getEnvFloat("STARTING_BANK", 20),
		CardDelay:        time.Duration(getEnvInt("CARD_DELAY_MS", 600)) * time.Millisecond,
		PaceDelay:        time.Duration(getEnvInt("PACE_DELAY_MS", 900)) * time.Millisecond,
		ForceDealerAce:   getEnvBool("FORCE_DEALER_ACE", false),
		Environment:      getEnvWithDefault("ENVIRONMENT", "development"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// validate checks if all required configuration is present
func (c *Config) validate() error {
	if c.Decks <= 0 {
		return fmt.Errorf("DECKS must be positive")
	}
	if c.MinimumBet <= 0 {
		return fmt.Errorf("MIN_BET must be positive")
	}
	if c.MaximumBet < c.MinimumBet {
		return fmt.Errorf("MAX_BET must be at least MIN_BET")
	}
	if c.StorageType != "memory" && c.StorageType != "sqlite" {
		return fmt.Errorf("STORAGE_TYPE must be memory or sqlite, got %q", c.StorageType)
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Offline reports whether no backend API is configured.
func (c *Config) Offline() bool {
	return c.APIBaseURL == ""
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
