package ports

import (
	"context"
	"errors"

	"github.com/philly/school-finance/backend/internal/balancesheet/domain"
)

var (
	ErrCacheMiss        = errors.New("balance sheet not cached")
	ErrSnapshotNotFound = errors.New("balance sheet snapshot not found")
	ErrSnapshotExists   = errors.New("balance sheet snapshot already exists")
)

// SheetCache holds generated sheets keyed by year.
type SheetCache interface {
	// Get returns ErrCacheMiss when the year is not cached.
	Get(ctx context.Context, year int) (*domain.Sheet, error)
	Set(ctx context.Context, sheet *domain.Sheet) error
	Delete(ctx context.Context, year int) error
}

type SnapshotRepository interface {
	// Create returns ErrSnapshotExists when the year is already closed.
	Create(ctx context.Context, snapshot *domain.Snapshot) error
	Find(ctx context.Context, year int) (*domain.Snapshot, error)
	List(ctx context.Context) ([]*domain.Snapshot, error)
}
