package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// StaffSeeder creates the initial staff accounts. Existing emails are left
// untouched so a changed password is never reset by a re-run.
type StaffSeeder struct {
	staff []StaffFixture
	cost  int
}

func NewStaffSeeder(staff []StaffFixture) *StaffSeeder {
	return &StaffSeeder{staff: staff, cost: bcrypt.DefaultCost}
}

func (s *StaffSeeder) Name() string {
	return "StaffSeeder"
}

func (s *StaffSeeder) Seed(ctx context.Context, db *pgxpool.Pool) (int64, error) {
	if len(s.staff) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	now := time.Now()
	for _, member := range s.staff {
		hash, err := bcrypt.GenerateFromPassword([]byte(member.Password), s.cost)
		if err != nil {
			return 0, fmt.Errorf("hashing password for %s: %w", member.Email, err)
		}
		batch.Queue(`
			INSERT INTO staff (id, email, full_name, role, monthly_salary, password_hash, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $7)
			ON CONFLICT (email) DO NOTHING
		`, uuid.New(), member.Email, member.FullName, member.Role, member.MonthlySalary, string(hash), now)
	}

	br := db.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()

	var inserted int64
	for range s.staff {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert staff member: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, br.Close()
}
