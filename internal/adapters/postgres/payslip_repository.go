package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/philly/school-finance/backend/internal/payroll/domain"
	"github.com/philly/school-finance/backend/internal/payroll/ports"
	"github.com/philly/school-finance/backend/internal/platform/postgres"
)

var payslipColumns = []string{
	"id", "staff_id", "period", "gross", "deductions", "net",
	"status", "approved_by", "approved_at", "created_at", "updated_at",
}

// PayslipRepository implements ports.PayslipRepository using PostgreSQL
type PayslipRepository struct {
	postgres.BaseRepository
}

func NewPayslipRepository(db *pgxpool.Pool) *PayslipRepository {
	return &PayslipRepository{BaseRepository: postgres.NewBaseRepository(db)}
}

func (r *PayslipRepository) Create(ctx context.Context, p *domain.Payslip) error {
	deductions, err := json.Marshal(p.Deductions)
	if err != nil {
		return fmt.Errorf("PayslipRepository.Create: encode deductions: %w", err)
	}

	query, args, err := r.SB.
		Insert("payslips").
		Columns(payslipColumns...).
		Values(
			pgUUID(p.ID),
			pgUUID(p.StaffID),
			p.Period,
			p.Gross,
			deductions,
			p.Net,
			string(p.Status),
			pgUUIDPtr(p.ApprovedBy),
			pgTimePtr(p.ApprovedAt),
			pgTime(p.CreatedAt),
			pgTime(p.UpdatedAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("PayslipRepository.Create: build query: %w", err)
	}

	if _, err := r.DB.Exec(ctx, query, args...); err != nil {
		if postgres.IsUniqueViolation(err, "payslips_staff_period_key") {
			return ports.ErrPayslipExists
		}
		return fmt.Errorf("PayslipRepository.Create: %w", err)
	}
	return nil
}

// Update persists status changes; amounts are fixed once a payslip exists.
func (r *PayslipRepository) Update(ctx context.Context, p *domain.Payslip) error {
	query, args, err := r.SB.
		Update("payslips").
		Set("status", string(p.Status)).
		Set("approved_by", pgUUIDPtr(p.ApprovedBy)).
		Set("approved_at", pgTimePtr(p.ApprovedAt)).
		Set("updated_at", pgTime(p.UpdatedAt)).
		Where(sq.Eq{"id": pgUUID(p.ID)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("PayslipRepository.Update: build query: %w", err)
	}

	result, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("PayslipRepository.Update: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrPayslipNotFound
	}
	return nil
}

func (r *PayslipRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payslip, error) {
	query, args, err := r.SB.Select(payslipColumns...).From("payslips").Where(sq.Eq{"id": pgUUID(id)}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("PayslipRepository.FindByID: build query: %w", err)
	}

	p, err := scanPayslip(r.DB.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrPayslipNotFound
		}
		return nil, fmt.Errorf("PayslipRepository.FindByID: %w", err)
	}
	return p, nil
}

func (r *PayslipRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Payslip, error) {
	qb := r.SB.Select(payslipColumns...).From("payslips").OrderBy("period DESC", "created_at ASC")
	if filter.Period != "" {
		qb = qb.Where(sq.Eq{"period": filter.Period})
	}
	if filter.StaffID != nil {
		qb = qb.Where(sq.Eq{"staff_id": pgUUID(*filter.StaffID)})
	}
	if filter.Status != "" {
		qb = qb.Where(sq.Eq{"status": string(filter.Status)})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("PayslipRepository.List: build query: %w", err)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("PayslipRepository.List: %w", err)
	}
	defer rows.Close()

	var out []*domain.Payslip
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("PayslipRepository.List: rows error: %w", err)
	}
	return out, nil
}

func (r *PayslipRepository) ExistsForPeriod(ctx context.Context, staffID uuid.UUID, period string) (bool, error) {
	sub, args, err := r.SB.Select("1").From("payslips").
		Where(sq.Eq{"staff_id": pgUUID(staffID), "period": period}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("PayslipRepository.ExistsForPeriod: build query: %w", err)
	}

	var exists bool
	if err := r.DB.QueryRow(ctx, fmt.Sprintf("SELECT EXISTS(%s)", sub), args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("PayslipRepository.ExistsForPeriod: %w", err)
	}
	return exists, nil
}

func (r *PayslipRepository) ApprovedNetByPeriod(ctx context.Context, periods []string) (map[string]int64, error) {
	query, args, err := r.SB.
		Select("period", "COALESCE(SUM(net), 0)::bigint").
		From("payslips").
		Where(sq.Eq{"status": string(domain.StatusApproved), "period": periods}).
		GroupBy("period").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("PayslipRepository.ApprovedNetByPeriod: build query: %w", err)
	}
	return sumByPeriod(ctx, r.DB, "PayslipRepository.ApprovedNetByPeriod", query, args)
}

func scanPayslip(row pgx.Row) (*domain.Payslip, error) {
	var p domain.Payslip
	var id, staffID, approvedBy pgtype.UUID
	var approvedAt pgtype.Timestamptz
	var deductions []byte
	var status string

	err := row.Scan(
		&id,
		&staffID,
		&p.Period,
		&p.Gross,
		&deductions,
		&p.Net,
		&status,
		&approvedBy,
		&approvedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanPayslip: %w", err)
	}

	if err := json.Unmarshal(deductions, &p.Deductions); err != nil {
		return nil, fmt.Errorf("scanPayslip: decode deductions: %w", err)
	}
	p.ID = uuid.UUID(id.Bytes)
	p.StaffID = uuid.UUID(staffID.Bytes)
	p.Status = domain.Status(status)
	p.ApprovedBy = uuidPtr(approvedBy)
	p.ApprovedAt = timePtr(approvedAt)
	return &p, nil
}

// sumByPeriod runs a two-column (period, amount) aggregate.
func sumByPeriod(ctx context.Context, db postgres.Querier, op, query string, args []any) (map[string]int64, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var period string
		var total int64
		if err := rows.Scan(&period, &total); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out[period] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows error: %w", op, err)
	}
	return out, nil
}
