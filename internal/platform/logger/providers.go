package logger

import (
	"context"

	"github.com/google/wire"
)

// ProviderSet is the wire provider set for the logger.
var ProviderSet = wire.NewSet(
	NewBootstrapLogger,
	NewConfiguredLogger,
)

// Config holds the values needed to configure the logger
type Config struct {
	Environment string
	LogLevel    string
	Backend     string // slog (default) or zerolog
}

// NewConfiguredLogger creates the main application logger. Unknown backends
// fall back to slog and say so.
func NewConfiguredLogger(config Config) Logger {
	switch config.Backend {
	case "zerolog":
		return NewZerologAdapter(config.Environment, config.LogLevel)
	case "", "slog":
		return NewSlogAdapter(config.Environment, config.LogLevel)
	default:
		l := NewSlogAdapter(config.Environment, config.LogLevel)
		l.Warn(context.Background(), "unknown log backend, using slog", "backend", config.Backend)
		return l
	}
}
