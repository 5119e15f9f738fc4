package cmd

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/server"
)

// connect loads configuration and opens the pool the maintenance commands share.
func connect(ctx context.Context) (server.Config, logger.Logger, *pgxpool.Pool, func(), error) {
	config, err := server.LoadConfig(logger.NewBootstrapLogger())
	if err != nil {
		return server.Config{}, nil, nil, nil, err
	}
	log := logger.NewConfiguredLogger(logger.Config{
		Environment: config.Environment,
		LogLevel:    config.LogLevel,
		Backend:     config.LogBackend,
	})

	pool, cleanup, err := server.ConnectDatabase(ctx, config, log)
	if err != nil {
		return server.Config{}, nil, nil, nil, err
	}
	return config, log, pool, cleanup, nil
}
