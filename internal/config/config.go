package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	TelegramToken  string
	DatabaseURL    string
	MigrationsPath string
	LogLevel       string
	PrometheusPort string
	WebhookURL     string
	Port           string

	// Default reporting windows for /stats, /streak and /weekly when the
	// user passes no period argument.
	ReportDays int
	StreakDays int
	TrendWeeks int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		PrometheusPort: getEnvOrDefault("PROMETHEUS_PORT", "9090"),
		WebhookURL:     os.Getenv("WEBHOOK_URL"),
		Port:           getEnvOrDefault("PORT", "8080"),
	}

	// Required environment variables
	if cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN"); cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}

	if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	var err error
	if cfg.ReportDays, err = getEnvIntOrDefault("REPORT_DAYS", 30); err != nil {
		return nil, err
	}
	if cfg.StreakDays, err = getEnvIntOrDefault("STREAK_DAYS", 90); err != nil {
		return nil, err
	}
	if cfg.TrendWeeks, err = getEnvIntOrDefault("TREND_WEEKS", 8); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns an integer environment variable or default if
// not set. Non-positive or unparseable values are rejected.
func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, value)
	}
	return n, nil
}
