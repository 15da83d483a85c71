package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all configuration for the domain indexer
type Config struct {
	// MultiversX API configuration
	APIURL          string
	EconomicsURL    string
	ContractAddress string
	RequestTimeout  time.Duration

	// Database configuration
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	// Redis configuration
	RedisURL string

	// Scheduling configuration
	PollInterval time.Duration

	// HTTP configuration
	HTTPPort    string
	MetricsPort string

	// Logging configuration
	LogLevel string
}

// Load reads configuration from environment variables and validates it
func Load() (Config, error) {
	cfg := Config{
		APIURL:          getEnv("API_URL", "https://api.multiversx.com"),
		EconomicsURL:    getEnv("ECONOMICS_URL", "https://api.multiversx.com/economics"),
		ContractAddress: getEnv("CONTRACT_ADDRESS", ""),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBUser:          getEnv("DB_USER", ""),
		DBPassword:      getEnv("DB_PASSWORD", ""),
		DBName:          getEnv("DB_NAME", ""),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBSSLMode:       getEnv("DB_SSL_MODE", "disable"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),
		HTTPPort:        getEnv("HTTP_PORT", "3001"),
		MetricsPort:     getEnv("METRICS_PORT", "9100"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	var err error
	cfg.PollInterval, err = parseDurationEnv("POLL_INTERVAL", 5*time.Second)
	if err != nil {
		return cfg, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
	}

	cfg.RequestTimeout, err = parseDurationEnv("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return cfg, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that the configuration is valid
func (c Config) validate() error {
	if c.ContractAddress == "" {
		return fmt.Errorf("CONTRACT_ADDRESS is required")
	}

	if c.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}

	validLogLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
		"panic": true,
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid LOG_LEVEL: %s (must be one of: trace, debug, info, warn, error, fatal, panic)", c.LogLevel)
	}

	return nil
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDurationEnv parses a duration environment variable with a default value
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(str)
}
