// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults for the statistical engine. TradingDaysPerYear annualizes daily
// statistics; Trials is the fixed Monte Carlo budget.
const (
	DefaultTradingDaysPerYear = 252
	DefaultTrials             = 10000
	DefaultMaxIterations      = 1000
	DefaultTolerance          = 1e-8
	DefaultLookbackDays       = 1260 // ~5 years of trading days
)

// Config holds application configuration
type Config struct {
	DataDir            string   // Base directory for the history database (always absolute)
	Port               int      //
	LogLevel           string   //
	DevMode            bool     //
	Symbols            []string // Tracked asset universe, one column per symbol
	TradingDaysPerYear int      // Annualization factor for daily data
	Trials             int      // Monte Carlo portfolio draws per simulation
	MaxIterations      int      // Optimizer iteration cap
	Tolerance          float64  // Optimizer convergence tolerance
	Seed               int64    // RNG seed for reproducible sampling (0 = time-based)
	LookbackDays       int      // Price history window fed to the engine
	SyncSchedule       string   // Cron expression for the daily price sync
}

// Load reads configuration from environment variables.
// A .env file is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("FRONTIER_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("FRONTIER_PORT", 8010),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		Symbols:            getEnvAsList("FRONTIER_SYMBOLS", []string{"AAPL", "WMT", "TSLA", "GE", "AMZN", "DB"}),
		TradingDaysPerYear: getEnvAsInt("FRONTIER_TRADING_DAYS", DefaultTradingDaysPerYear),
		Trials:             getEnvAsInt("FRONTIER_TRIALS", DefaultTrials),
		MaxIterations:      getEnvAsInt("FRONTIER_MAX_ITERATIONS", DefaultMaxIterations),
		Tolerance:          getEnvAsFloat("FRONTIER_TOLERANCE", DefaultTolerance),
		Seed:               int64(getEnvAsInt("FRONTIER_SEED", 0)),
		LookbackDays:       getEnvAsInt("FRONTIER_LOOKBACK_DAYS", DefaultLookbackDays),
		SyncSchedule:       getEnv("FRONTIER_SYNC_SCHEDULE", "0 30 22 * * MON-FRI"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.TradingDaysPerYear <= 0 {
		return fmt.Errorf("trading days per year must be positive, got %d", c.TradingDaysPerYear)
	}
	if c.Trials < 0 {
		return fmt.Errorf("trials must not be negative, got %d", c.Trials)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", c.MaxIterations)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %g", c.Tolerance)
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
