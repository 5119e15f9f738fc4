package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/philly/school-finance/backend/internal/billing/domain"
	"github.com/philly/school-finance/backend/internal/billing/ports"
	"github.com/philly/school-finance/backend/internal/platform/postgres"
)

// FeeScheduleRepository implements ports.FeeScheduleRepository using PostgreSQL
type FeeScheduleRepository struct {
	postgres.BaseRepository
}

func NewFeeScheduleRepository(db *pgxpool.Pool) *FeeScheduleRepository {
	return &FeeScheduleRepository{BaseRepository: postgres.NewBaseRepository(db)}
}

func (r *FeeScheduleRepository) Upsert(ctx context.Context, fee *domain.FeeSchedule) error {
	query, args, err := r.SB.
		Insert("fee_schedules").
		Columns("grade_level", "school_year", "tuition", "updated_at").
		Values(fee.GradeLevel, fee.SchoolYear, fee.Tuition, pgTime(fee.UpdatedAt)).
		Suffix("ON CONFLICT (grade_level, school_year) DO UPDATE SET tuition = EXCLUDED.tuition, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("FeeScheduleRepository.Upsert: build query: %w", err)
	}
	if _, err := r.DB.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("FeeScheduleRepository.Upsert: %w", err)
	}
	return nil
}

func (r *FeeScheduleRepository) Find(ctx context.Context, gradeLevel, schoolYear int) (*domain.FeeSchedule, error) {
	query, args, err := r.SB.
		Select("grade_level", "school_year", "tuition", "updated_at").
		From("fee_schedules").
		Where(sq.Eq{"grade_level": gradeLevel, "school_year": schoolYear}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("FeeScheduleRepository.Find: build query: %w", err)
	}

	var fee domain.FeeSchedule
	err = r.DB.QueryRow(ctx, query, args...).Scan(&fee.GradeLevel, &fee.SchoolYear, &fee.Tuition, &fee.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrFeeScheduleNotFound
		}
		return nil, fmt.Errorf("FeeScheduleRepository.Find: %w", err)
	}
	return &fee, nil
}

func (r *FeeScheduleRepository) ListByYear(ctx context.Context, schoolYear int) ([]*domain.FeeSchedule, error) {
	query, args, err := r.SB.
		Select("grade_level", "school_year", "tuition", "updated_at").
		From("fee_schedules").
		Where(sq.Eq{"school_year": schoolYear}).
		OrderBy("grade_level ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("FeeScheduleRepository.ListByYear: build query: %w", err)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("FeeScheduleRepository.ListByYear: %w", err)
	}
	defer rows.Close()

	var out []*domain.FeeSchedule
	for rows.Next() {
		var fee domain.FeeSchedule
		if err := rows.Scan(&fee.GradeLevel, &fee.SchoolYear, &fee.Tuition, &fee.UpdatedAt); err != nil {
			return nil, fmt.Errorf("FeeScheduleRepository.ListByYear: scan: %w", err)
		}
		out = append(out, &fee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FeeScheduleRepository.ListByYear: rows error: %w", err)
	}
	return out, nil
}

var billColumns = []string{
	"id", "student_id", "enrollment_id", "school_year", "description",
	"amount", "discount", "amount_paid", "status", "created_at", "updated_at",
}

// BillRepository implements ports.BillRepository using PostgreSQL
type BillRepository struct {
	postgres.BaseRepository
}

func NewBillRepository(db *pgxpool.Pool) *BillRepository {
	return &BillRepository{BaseRepository: postgres.NewBaseRepository(db)}
}

func (r *BillRepository) Create(ctx context.Context, b *domain.Bill) error {
	query, args, err := r.SB.
		Insert("bills").
		Columns(billColumns...).
		Values(
			pgUUID(b.ID),
			pgUUID(b.StudentID),
			pgUUIDPtr(b.EnrollmentID),
			b.SchoolYear,
			b.Description,
			b.Amount,
			b.Discount,
			b.AmountPaid,
			string(b.Status),
			pgTime(b.CreatedAt),
			pgTime(b.UpdatedAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("BillRepository.Create: build query: %w", err)
	}
	if _, err := r.DB.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("BillRepository.Create: %w", err)
	}
	return nil
}

func (r *BillRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Bill, error) {
	return r.findOne(ctx, "BillRepository.FindByID", sq.Eq{"id": pgUUID(id)})
}

func (r *BillRepository) FindByEnrollment(ctx context.Context, enrollmentID uuid.UUID) (*domain.Bill, error) {
	return r.findOne(ctx, "BillRepository.FindByEnrollment", sq.Eq{"enrollment_id": pgUUID(enrollmentID)})
}

func (r *BillRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.Bill, error) {
	query, args, err := r.SB.
		Select(billColumns...).
		From("bills").
		Where(sq.Eq{"student_id": pgUUID(studentID)}).
		OrderBy("school_year DESC", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("BillRepository.ListByStudent: build query: %w", err)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("BillRepository.ListByStudent: %w", err)
	}
	defer rows.Close()

	var out []*domain.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("BillRepository.ListByStudent: rows error: %w", err)
	}
	return out, nil
}

func (r *BillRepository) findOne(ctx context.Context, op string, where sq.Eq) (*domain.Bill, error) {
	query, args, err := r.SB.Select(billColumns...).From("bills").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	b, err := scanBill(r.DB.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrBillNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

func scanBill(row pgx.Row) (*domain.Bill, error) {
	var b domain.Bill
	var id, studentID, enrollmentID pgtype.UUID
	var status string

	err := row.Scan(
		&id,
		&studentID,
		&enrollmentID,
		&b.SchoolYear,
		&b.Description,
		&b.Amount,
		&b.Discount,
		&b.AmountPaid,
		&status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanBill: %w", err)
	}
	b.ID = uuid.UUID(id.Bytes)
	b.StudentID = uuid.UUID(studentID.Bytes)
	b.EnrollmentID = uuidPtr(enrollmentID)
	b.Status = domain.BillStatus(status)
	return &b, nil
}

var paymentColumns = []string{
	"id", "bill_id", "amount", "method", "reference", "status",
	"recorded_by", "approved_by", "paid_at", "approved_at", "created_at",
}

// PaymentRepository implements ports.PaymentRepository using PostgreSQL
type PaymentRepository struct {
	postgres.BaseRepository
	tm postgres.TransactionManager
}

func NewPaymentRepository(db *pgxpool.Pool, tm postgres.TransactionManager) *PaymentRepository {
	return &PaymentRepository{BaseRepository: postgres.NewBaseRepository(db), tm: tm}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query, args, err := r.SB.
		Insert("payments").
		Columns(paymentColumns...).
		Values(
			pgUUID(p.ID),
			pgUUID(p.BillID),
			p.Amount,
			string(p.Method),
			p.Reference,
			string(p.Status),
			pgUUID(p.RecordedBy),
			pgUUIDPtr(p.ApprovedBy),
			pgTime(p.PaidAt),
			pgTimePtr(p.ApprovedAt),
			pgTime(p.CreatedAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("PaymentRepository.Create: build query: %w", err)
	}
	if _, err := r.DB.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("PaymentRepository.Create: %w", err)
	}
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query, args, err := r.SB.Select(paymentColumns...).From("payments").Where(sq.Eq{"id": pgUUID(id)}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("PaymentRepository.FindByID: build query: %w", err)
	}

	p, err := scanPayment(r.DB.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("PaymentRepository.FindByID: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) ListByBill(ctx context.Context, billID uuid.UUID) ([]*domain.Payment, error) {
	query, args, err := r.SB.
		Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"bill_id": pgUUID(billID)}).
		OrderBy("paid_at ASC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("PaymentRepository.ListByBill: build query: %w", err)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("PaymentRepository.ListByBill: %w", err)
	}
	defer rows.Close()

	var out []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("PaymentRepository.ListByBill: rows error: %w", err)
	}
	return out, nil
}

func (r *PaymentRepository) PendingTotal(ctx context.Context, billID uuid.UUID) (int64, error) {
	query, args, err := r.SB.
		Select("COALESCE(SUM(amount), 0)::bigint").
		From("payments").
		Where(sq.Eq{"bill_id": pgUUID(billID), "status": string(domain.PaymentPending)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("PaymentRepository.PendingTotal: build query: %w", err)
	}

	var total int64
	if err := r.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("PaymentRepository.PendingTotal: %w", err)
	}
	return total, nil
}

// SaveApproval flips the payment to approved and credits the bill in one
// transaction. The bill update only applies to the balance the caller read.
func (r *PaymentRepository) SaveApproval(ctx context.Context, p *domain.Payment, b *domain.Bill) error {
	return postgres.RunInTx(ctx, r.tm, func(tx pgx.Tx) error {
		repo := r.BaseRepository.WithTx(tx)

		query, args, err := repo.SB.
			Update("payments").
			Set("status", string(p.Status)).
			Set("approved_by", pgUUIDPtr(p.ApprovedBy)).
			Set("approved_at", pgTimePtr(p.ApprovedAt)).
			Where(sq.Eq{"id": pgUUID(p.ID), "status": string(domain.PaymentPending)}).
			ToSql()
		if err != nil {
			return fmt.Errorf("PaymentRepository.SaveApproval: build payment update: %w", err)
		}
		result, err := repo.DB.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("PaymentRepository.SaveApproval: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ports.ErrStaleBill
		}

		query, args, err = repo.SB.
			Update("bills").
			Set("amount_paid", b.AmountPaid).
			Set("status", string(b.Status)).
			Set("updated_at", pgTime(b.UpdatedAt)).
			Where(sq.Eq{"id": pgUUID(b.ID), "amount_paid": b.AmountPaid - p.Amount}).
			ToSql()
		if err != nil {
			return fmt.Errorf("PaymentRepository.SaveApproval: build bill update: %w", err)
		}
		result, err = repo.DB.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("PaymentRepository.SaveApproval: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ports.ErrStaleBill
		}
		return nil
	})
}

func (r *PaymentRepository) ApprovedTotalsByPeriod(ctx context.Context, year int) (map[string]int64, error) {
	const periodExpr = "to_char(paid_at AT TIME ZONE 'UTC', 'YYYY-MM')"
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

	query, args, err := r.SB.
		Select(periodExpr, "COALESCE(SUM(amount), 0)::bigint").
		From("payments").
		Where(sq.Eq{"status": string(domain.PaymentApproved)}).
		Where(sq.GtOrEq{"paid_at": pgTime(from)}).
		Where(sq.Lt{"paid_at": pgTime(from.AddDate(1, 0, 0))}).
		GroupBy(periodExpr).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("PaymentRepository.ApprovedTotalsByPeriod: build query: %w", err)
	}
	return sumByPeriod(ctx, r.DB, "PaymentRepository.ApprovedTotalsByPeriod", query, args)
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var id, billID, recordedBy, approvedBy pgtype.UUID
	var approvedAt pgtype.Timestamptz
	var method, status string

	err := row.Scan(
		&id,
		&billID,
		&p.Amount,
		&method,
		&p.Reference,
		&status,
		&recordedBy,
		&approvedBy,
		&p.PaidAt,
		&approvedAt,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanPayment: %w", err)
	}
	p.ID = uuid.UUID(id.Bytes)
	p.BillID = uuid.UUID(billID.Bytes)
	p.RecordedBy = uuid.UUID(recordedBy.Bytes)
	p.ApprovedBy = uuidPtr(approvedBy)
	p.ApprovedAt = timePtr(approvedAt)
	p.Method = domain.PaymentMethod(method)
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}
