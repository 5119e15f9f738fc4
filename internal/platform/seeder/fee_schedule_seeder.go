package seeder

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FeeScheduleSeeder upserts tuition per grade and school year.
type FeeScheduleSeeder struct {
	fees []FeeFixture
}

func NewFeeScheduleSeeder(fees []FeeFixture) *FeeScheduleSeeder {
	return &FeeScheduleSeeder{fees: fees}
}

func (s *FeeScheduleSeeder) Name() string {
	return "FeeScheduleSeeder"
}

func (s *FeeScheduleSeeder) Seed(ctx context.Context, db *pgxpool.Pool) (int64, error) {
	if len(s.fees) == 0 {
		return 0, nil
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, fee := range s.fees {
		batch.Queue(`
			INSERT INTO fee_schedules (grade_level, school_year, tuition, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (grade_level, school_year)
			DO UPDATE SET
				tuition = EXCLUDED.tuition,
				updated_at = NOW()
		`, fee.GradeLevel, fee.SchoolYear, fee.Tuition)
	}

	br := tx.SendBatch(ctx, batch)
	var written int64
	for range s.fees {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return 0, fmt.Errorf("failed to upsert fee schedule: %w", err)
		}
		written += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return written, nil
}

// FromFixtures returns the seeders for a fixtures file, staff first.
func FromFixtures(f *Fixtures) []Seeder {
	return []Seeder{
		NewStaffSeeder(f.Staff),
		NewFeeScheduleSeeder(f.FeeSchedules),
	}
}
