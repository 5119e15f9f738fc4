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

	"github.com/philly/school-finance/backend/internal/balancesheet/domain"
	"github.com/philly/school-finance/backend/internal/balancesheet/ports"
	"github.com/philly/school-finance/backend/internal/platform/postgres"
)

// SnapshotRepository stores closed balance sheets as JSONB
type SnapshotRepository struct {
	postgres.BaseRepository
}

func NewSnapshotRepository(db *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{BaseRepository: postgres.NewBaseRepository(db)}
}

func (r *SnapshotRepository) Create(ctx context.Context, s *domain.Snapshot) error {
	sheet, err := json.Marshal(s.Sheet)
	if err != nil {
		return fmt.Errorf("SnapshotRepository.Create: encode sheet: %w", err)
	}

	query, args, err := r.SB.
		Insert("balance_sheet_snapshots").
		Columns("year", "sheet", "closed_by", "closed_at").
		Values(s.Year, sheet, pgUUID(s.ClosedBy), pgTime(s.ClosedAt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("SnapshotRepository.Create: build query: %w", err)
	}

	if _, err := r.DB.Exec(ctx, query, args...); err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return ports.ErrSnapshotExists
		}
		return fmt.Errorf("SnapshotRepository.Create: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) Find(ctx context.Context, year int) (*domain.Snapshot, error) {
	query, args, err := r.SB.
		Select("year", "sheet", "closed_by", "closed_at").
		From("balance_sheet_snapshots").
		Where(sq.Eq{"year": year}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("SnapshotRepository.Find: build query: %w", err)
	}

	s, err := scanSnapshot(r.DB.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("SnapshotRepository.Find: %w", err)
	}
	return s, nil
}

func (r *SnapshotRepository) List(ctx context.Context) ([]*domain.Snapshot, error) {
	query, args, err := r.SB.
		Select("year", "sheet", "closed_by", "closed_at").
		From("balance_sheet_snapshots").
		OrderBy("year DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("SnapshotRepository.List: build query: %w", err)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("SnapshotRepository.List: %w", err)
	}
	defer rows.Close()

	var out []*domain.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SnapshotRepository.List: rows error: %w", err)
	}
	return out, nil
}

func scanSnapshot(row pgx.Row) (*domain.Snapshot, error) {
	var s domain.Snapshot
	var sheet []byte
	var closedBy pgtype.UUID

	if err := row.Scan(&s.Year, &sheet, &closedBy, &s.ClosedAt); err != nil {
		return nil, fmt.Errorf("scanSnapshot: %w", err)
	}
	if err := json.Unmarshal(sheet, &s.Sheet); err != nil {
		return nil, fmt.Errorf("scanSnapshot: decode sheet: %w", err)
	}
	s.ClosedBy = uuid.UUID(closedBy.Bytes)
	return &s, nil
}
