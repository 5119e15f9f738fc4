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

	"github.com/philly/school-finance/backend/internal/funds/domain"
	"github.com/philly/school-finance/backend/internal/funds/ports"
	"github.com/philly/school-finance/backend/internal/platform/postgres"
)

var fundRequestColumns = []string{
	"id", "requester_id", "title", "purpose", "amount", "status",
	"reviewed_by", "review_note", "reviewed_at", "created_at", "updated_at",
}

// FundRequestRepository implements ports.FundRequestRepository using PostgreSQL
type FundRequestRepository struct {
	postgres.BaseRepository
}

func NewFundRequestRepository(db *pgxpool.Pool) *FundRequestRepository {
	return &FundRequestRepository{BaseRepository: postgres.NewBaseRepository(db)}
}

func (r *FundRequestRepository) Create(ctx context.Context, req *domain.FundRequest) error {
	query, args, err := r.SB.
		Insert("fund_requests").
		Columns(fundRequestColumns...).
		Values(
			pgUUID(req.ID),
			pgUUID(req.RequesterID),
			req.Title,
			req.Purpose,
			req.Amount,
			string(req.Status),
			pgUUIDPtr(req.ReviewedBy),
			req.ReviewNote,
			pgTimePtr(req.ReviewedAt),
			pgTime(req.CreatedAt),
			pgTime(req.UpdatedAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("FundRequestRepository.Create: build query: %w", err)
	}

	if _, err := r.DB.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("FundRequestRepository.Create: %w", err)
	}
	return nil
}

func (r *FundRequestRepository) Update(ctx context.Context, req *domain.FundRequest) error {
	query, args, err := r.SB.
		Update("fund_requests").
		Set("title", req.Title).
		Set("purpose", req.Purpose).
		Set("amount", req.Amount).
		Set("status", string(req.Status)).
		Set("reviewed_by", pgUUIDPtr(req.ReviewedBy)).
		Set("review_note", req.ReviewNote).
		Set("reviewed_at", pgTimePtr(req.ReviewedAt)).
		Set("updated_at", pgTime(req.UpdatedAt)).
		Where(sq.Eq{"id": pgUUID(req.ID)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("FundRequestRepository.Update: build query: %w", err)
	}

	result, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("FundRequestRepository.Update: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrFundRequestNotFound
	}
	return nil
}

func (r *FundRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FundRequest, error) {
	query, args, err := r.SB.Select(fundRequestColumns...).From("fund_requests").Where(sq.Eq{"id": pgUUID(id)}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("FundRequestRepository.FindByID: build query: %w", err)
	}

	req, err := scanFundRequest(r.DB.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrFundRequestNotFound
		}
		return nil, fmt.Errorf("FundRequestRepository.FindByID: %w", err)
	}
	return req, nil
}

func (r *FundRequestRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.FundRequest, error) {
	qb := r.SB.Select(fundRequestColumns...).From("fund_requests").OrderBy("created_at DESC")
	if filter.RequesterID != nil {
		qb = qb.Where(sq.Eq{"requester_id": pgUUID(*filter.RequesterID)})
	}
	if filter.Status != "" {
		qb = qb.Where(sq.Eq{"status": string(filter.Status)})
	}
	qb = postgres.Page(qb, filter.Limit, filter.Offset)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("FundRequestRepository.List: build query: %w", err)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("FundRequestRepository.List: %w", err)
	}
	defer rows.Close()

	var out []*domain.FundRequest
	for rows.Next() {
		req, err := scanFundRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FundRequestRepository.List: rows error: %w", err)
	}
	return out, nil
}

// GetRequester retrieves just the requester for ownership checks
func (r *FundRequestRepository) GetRequester(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	query, args, err := r.SB.Select("requester_id").From("fund_requests").Where(sq.Eq{"id": pgUUID(id)}).ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("FundRequestRepository.GetRequester: build query: %w", err)
	}

	var requester pgtype.UUID
	if err := r.DB.QueryRow(ctx, query, args...).Scan(&requester); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ports.ErrFundRequestNotFound
		}
		return uuid.Nil, fmt.Errorf("FundRequestRepository.GetRequester: %w", err)
	}
	return uuid.UUID(requester.Bytes), nil
}

func scanFundRequest(row pgx.Row) (*domain.FundRequest, error) {
	var req domain.FundRequest
	var id, requester, reviewedBy pgtype.UUID
	var reviewedAt pgtype.Timestamptz
	var status string

	err := row.Scan(
		&id,
		&requester,
		&req.Title,
		&req.Purpose,
		&req.Amount,
		&status,
		&reviewedBy,
		&req.ReviewNote,
		&reviewedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanFundRequest: %w", err)
	}

	req.ID = uuid.UUID(id.Bytes)
	req.RequesterID = uuid.UUID(requester.Bytes)
	req.Status = domain.Status(status)
	req.ReviewedBy = uuidPtr(reviewedBy)
	req.ReviewedAt = timePtr(reviewedAt)
	return &req, nil
}

// FundUsageRepository implements ports.FundUsageRepository using PostgreSQL
type FundUsageRepository struct {
	postgres.BaseRepository
	tm postgres.TransactionManager
}

func NewFundUsageRepository(db *pgxpool.Pool, tm postgres.TransactionManager) *FundUsageRepository {
	return &FundUsageRepository{BaseRepository: postgres.NewBaseRepository(db), tm: tm}
}

// RecordUsage inserts usage unless the request's total would pass limit.
// The request row is locked so concurrent recordings serialise.
func (r *FundUsageRepository) RecordUsage(ctx context.Context, usage *domain.FundUsage, limit int64) error {
	return postgres.RunInTx(ctx, r.tm, func(tx pgx.Tx) error {
		repo := r.BaseRepository.WithTx(tx)

		lock, args, err := repo.SB.Select("id").From("fund_requests").
			Where(sq.Eq{"id": pgUUID(usage.RequestID)}).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return fmt.Errorf("FundUsageRepository.RecordUsage: build lock: %w", err)
		}
		var locked pgtype.UUID
		if err := repo.DB.QueryRow(ctx, lock, args...).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ports.ErrFundRequestNotFound
			}
			return fmt.Errorf("FundUsageRepository.RecordUsage: lock request: %w", err)
		}

		used, err := totalForRequest(ctx, repo, usage.RequestID)
		if err != nil {
			return err
		}
		if used+usage.Amount > limit {
			return ports.ErrUsageLimitExceeded
		}

		insert, args, err := repo.SB.
			Insert("fund_usage").
			Columns("id", "request_id", "amount", "description", "spent_on", "recorded_by", "created_at").
			Values(
				pgUUID(usage.ID),
				pgUUID(usage.RequestID),
				usage.Amount,
				usage.Description,
				pgtype.Date{Time: usage.SpentOn, Valid: true},
				pgUUID(usage.RecordedBy),
				pgTime(usage.CreatedAt),
			).
			ToSql()
		if err != nil {
			return fmt.Errorf("FundUsageRepository.RecordUsage: build insert: %w", err)
		}
		if _, err := repo.DB.Exec(ctx, insert, args...); err != nil {
			return fmt.Errorf("FundUsageRepository.RecordUsage: %w", err)
		}
		return nil
	})
}

func (r *FundUsageRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*domain.FundUsage, error) {
	query, args, err := r.SB.
		Select("id", "request_id", "amount", "description", "spent_on", "recorded_by", "created_at").
		From("fund_usage").
		Where(sq.Eq{"request_id": pgUUID(requestID)}).
		OrderBy("spent_on ASC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("FundUsageRepository.ListByRequest: build query: %w", err)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("FundUsageRepository.ListByRequest: %w", err)
	}
	defer rows.Close()

	var out []*domain.FundUsage
	for rows.Next() {
		var u domain.FundUsage
		var id, req, recordedBy pgtype.UUID
		var spentOn pgtype.Date
		if err := rows.Scan(&id, &req, &u.Amount, &u.Description, &spentOn, &recordedBy, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("FundUsageRepository.ListByRequest: scan: %w", err)
		}
		u.ID = uuid.UUID(id.Bytes)
		u.RequestID = uuid.UUID(req.Bytes)
		u.RecordedBy = uuid.UUID(recordedBy.Bytes)
		u.SpentOn = spentOn.Time
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FundUsageRepository.ListByRequest: rows error: %w", err)
	}
	return out, nil
}

func (r *FundUsageRepository) TotalForRequest(ctx context.Context, requestID uuid.UUID) (int64, error) {
	return totalForRequest(ctx, r.BaseRepository, requestID)
}

func (r *FundUsageRepository) TotalsByPeriod(ctx context.Context, periods []string) (map[string]int64, error) {
	const periodExpr = "to_char(spent_on, 'YYYY-MM')"
	query, args, err := r.SB.
		Select(periodExpr, "COALESCE(SUM(amount), 0)::bigint").
		From("fund_usage").
		Where(sq.Eq{periodExpr: periods}).
		GroupBy(periodExpr).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("FundUsageRepository.TotalsByPeriod: build query: %w", err)
	}
	return sumByPeriod(ctx, r.DB, "FundUsageRepository.TotalsByPeriod", query, args)
}

func totalForRequest(ctx context.Context, repo postgres.BaseRepository, requestID uuid.UUID) (int64, error) {
	query, args, err := repo.SB.
		Select("COALESCE(SUM(amount), 0)::bigint").
		From("fund_usage").
		Where(sq.Eq{"request_id": pgUUID(requestID)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("FundUsageRepository.TotalForRequest: build query: %w", err)
	}

	var total int64
	if err := repo.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("FundUsageRepository.TotalForRequest: %w", err)
	}
	return total, nil
}
