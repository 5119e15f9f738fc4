package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/philly/school-finance/backend/internal/platform/logger"
)

// Seeder writes one kind of fixture. Seed must be idempotent and reports how
// many rows it inserted or changed.
type Seeder interface {
	Name() string
	Seed(ctx context.Context, db *pgxpool.Pool) (int64, error)
}

// Result is the outcome of one seeder run
type Result struct {
	Name     string
	Rows     int64
	Duration time.Duration
}

// Orchestrator runs seeders in order and stops at the first failure
type Orchestrator struct {
	seeders []Seeder
	logger  logger.Logger
	db      *pgxpool.Pool
}

func NewOrchestrator(logger logger.Logger, db *pgxpool.Pool, seeders []Seeder) *Orchestrator {
	return &Orchestrator{
		seeders: seeders,
		logger:  logger,
		db:      db,
	}
}

// RunAll returns the results of the seeders that completed, including when a
// later one fails.
func (o *Orchestrator) RunAll(ctx context.Context) ([]Result, error) {
	o.logger.Info(ctx, "seeding started", "seeder_count", len(o.seeders))

	results := make([]Result, 0, len(o.seeders))
	for _, s := range o.seeders {
		start := time.Now()
		rows, err := s.Seed(ctx, o.db)
		if err != nil {
			o.logger.Error(ctx, "seeder failed", "seeder", s.Name(), "error", err)
			return results, fmt.Errorf("seeder %s failed: %w", s.Name(), err)
		}

		result := Result{Name: s.Name(), Rows: rows, Duration: time.Since(start)}
		results = append(results, result)
		o.logger.Info(ctx, "seeder finished",
			"seeder", result.Name,
			"rows", result.Rows,
			"duration_ms", result.Duration.Milliseconds(),
		)
	}

	o.logger.Info(ctx, "seeding finished")
	return results, nil
}
