package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New creates and configures a new zerolog logger
func New(logLevel string) zerolog.Logger {
	// Set global log level
	level, err := zerolog.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure console writer for human-readable output in development
	if os.Getenv("API_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Create structured logger with common fields
	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", "mvx-domains").
		Logger()

	return logger
}

// WithComponent adds a component name to logger context
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// WithTxHash adds a transaction hash to logger context
func WithTxHash(logger zerolog.Logger, txHash string) zerolog.Logger {
	return logger.With().Str("tx_hash", txHash).Logger()
}

// WithDomain adds a domain name to logger context
func WithDomain(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("domain", name).Logger()
}
