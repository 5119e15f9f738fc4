package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/philly/school-finance/backend/internal/platform/postgres"
	"github.com/philly/school-finance/backend/internal/staff/domain"
	"github.com/philly/school-finance/backend/internal/staff/ports"
)

var staffColumns = []string{
	"id", "email", "full_name", "role", "monthly_salary",
	"password_hash", "active", "created_at", "updated_at",
}

// StaffRepository implements ports.StaffRepository using PostgreSQL
type StaffRepository struct {
	postgres.BaseRepository
}

func NewStaffRepository(db *pgxpool.Pool) *StaffRepository {
	return &StaffRepository{BaseRepository: postgres.NewBaseRepository(db)}
}

func (r *StaffRepository) Create(ctx context.Context, s *domain.Staff) error {
	query, args, err := r.SB.
		Insert("staff").
		Columns(staffColumns...).
		Values(
			pgUUID(s.ID),
			s.Email,
			s.FullName,
			string(s.Role),
			s.MonthlySalary,
			s.PasswordHash,
			s.Active,
			pgTime(s.CreatedAt),
			pgTime(s.UpdatedAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("StaffRepository.Create: build query: %w", err)
	}

	if _, err := r.DB.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("StaffRepository.Create: %w", err)
	}
	return nil
}

func (r *StaffRepository) Update(ctx context.Context, s *domain.Staff) error {
	query, args, err := r.SB.
		Update("staff").
		Set("full_name", s.FullName).
		Set("role", string(s.Role)).
		Set("monthly_salary", s.MonthlySalary).
		Set("password_hash", s.PasswordHash).
		Set("active", s.Active).
		Set("updated_at", pgTime(s.UpdatedAt)).
		Where(sq.Eq{"id": pgUUID(s.ID)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("StaffRepository.Update: build query: %w", err)
	}

	result, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("StaffRepository.Update: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrStaffNotFound
	}
	return nil
}

func (r *StaffRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error) {
	return r.findOne(ctx, "StaffRepository.FindByID", sq.Eq{"id": pgUUID(id)})
}

func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	return r.findOne(ctx, "StaffRepository.FindByEmail", sq.Eq{"email": email})
}

func (r *StaffRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Staff, error) {
	qb := r.SB.Select(staffColumns...).From("staff").OrderBy("full_name ASC")
	if filter.ActiveOnly {
		qb = qb.Where(sq.Eq{"active": true})
	}
	if filter.Role != "" {
		qb = qb.Where(sq.Eq{"role": string(filter.Role)})
	}
	qb = postgres.Page(qb, filter.Limit, filter.Offset)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("StaffRepository.List: build query: %w", err)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("StaffRepository.List: %w", err)
	}
	defer rows.Close()

	var out []*domain.Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("StaffRepository.List: rows error: %w", err)
	}
	return out, nil
}

func (r *StaffRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	sub, args, err := r.SB.Select("1").From("staff").Where(sq.Eq{"email": email}).ToSql()
	if err != nil {
		return false, fmt.Errorf("StaffRepository.ExistsByEmail: build query: %w", err)
	}

	var exists bool
	if err := r.DB.QueryRow(ctx, fmt.Sprintf("SELECT EXISTS(%s)", sub), args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("StaffRepository.ExistsByEmail: %w", err)
	}
	return exists, nil
}

func (r *StaffRepository) findOne(ctx context.Context, op string, where sq.Eq) (*domain.Staff, error) {
	query, args, err := r.SB.Select(staffColumns...).From("staff").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	s, err := scanStaff(r.DB.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrStaffNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func scanStaff(row pgx.Row) (*domain.Staff, error) {
	var s domain.Staff
	var id pgtype.UUID
	var role string

	err := row.Scan(
		&id,
		&s.Email,
		&s.FullName,
		&role,
		&s.MonthlySalary,
		&s.PasswordHash,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanStaff: %w", err)
	}

	s.ID = uuid.UUID(id.Bytes)
	if s.Role, err = domain.ParseRole(role); err != nil {
		return nil, fmt.Errorf("scanStaff: %w", err)
	}
	return &s, nil
}
