package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Webhook server
	ListenAddr     string
	HandlerTimeout time.Duration

	// Report cache retention
	ReportTTL     time.Duration
	SweepInterval time.Duration

	// Environment
	Environment string // "development" or "production"
}

// Load reads configuration from the environment, with .env as a local
// development convenience. Bot identity (token, channel, admin contact)
// is not configured here; it lives in the bot_config table.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using environment variables")
	}

	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		HandlerTimeout: getDuration("HANDLER_TIMEOUT", 45*time.Second),

		ReportTTL:     getDuration("REPORT_TTL", 24*time.Hour),
		SweepInterval: getDuration("SWEEP_INTERVAL", time.Hour),

		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.WithFields(log.Fields{"key": key, "value": value}).Warnf("Invalid duration, using default %s", fallback)
		return fallback
	}
	return parsed
}
