package application

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/philly/school-finance/backend/internal/balancesheet/domain"
	"github.com/philly/school-finance/backend/internal/balancesheet/ports"
	"github.com/philly/school-finance/backend/internal/platform/apperror"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/metrics"
	"github.com/philly/school-finance/backend/internal/platform/saga"
)

const reportName = "balance_sheet"

// Error definitions for service operations
var (
	ErrInvalidYear = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodeInvalidFormat,
		"year must be between 2000 and 2100",
		http.StatusBadRequest,
	)

	ErrSnapshotNotFound = apperror.New(
		apperror.CodeNotFound,
		apperror.BusinessCodeSnapshotNotFound,
		"balance sheet for this year is not closed",
		http.StatusNotFound,
	)

	ErrSnapshotExists = apperror.New(
		apperror.CodeConflict,
		apperror.BusinessCodeSnapshotExists,
		"balance sheet for this year is already closed",
		http.StatusConflict,
	)
)

// BalanceSheetService assembles yearly sheets from the billing, payroll
// and funds contexts.
type BalanceSheetService struct {
	cache       ports.SheetCache
	snapshots   ports.SnapshotRepository
	coordinator *eventbus.Coordinator
	logger      logger.Logger
	group       singleflight.Group

	// versions counts invalidations per year. A run only caches its sheet
	// when the count is unchanged since it started.
	mu       sync.Mutex
	versions map[int]uint64
}

func NewBalanceSheetService(
	cache ports.SheetCache,
	snapshots ports.SnapshotRepository,
	coordinator *eventbus.Coordinator,
	logger logger.Logger,
) *BalanceSheetService {
	return &BalanceSheetService{
		cache:       cache,
		snapshots:   snapshots,
		coordinator: coordinator,
		logger:      logger,
		versions:    make(map[int]uint64),
	}
}

func (s *BalanceSheetService) version(year int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[year]
}

// Generate returns the sheet for year, from cache when possible.
// Concurrent generations of the same year share one saga run.
func (s *BalanceSheetService) Generate(ctx context.Context, year int) (*domain.Sheet, error) {
	if err := domain.ValidateYear(year); err != nil {
		return nil, ErrInvalidYear
	}

	cached, err := s.cache.Get(ctx, year)
	switch {
	case err == nil:
		metrics.CacheHitsTotal.WithLabelValues(reportName).Inc()
		return cached, nil
	case errors.Is(err, ports.ErrCacheMiss):
		metrics.CacheMissesTotal.WithLabelValues(reportName).Inc()
	default:
		metrics.CacheMissesTotal.WithLabelValues(reportName).Inc()
		s.logger.Warn(ctx, "balance sheet cache read failed", "error", err, "year", year)
	}

	// The shared run must not die with whichever caller started it.
	ch := s.group.DoChan(strconv.Itoa(year), func() (any, error) {
		return s.generate(context.WithoutCancel(ctx), year)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		sheet := *res.Val.(*domain.Sheet)
		return &sheet, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// generate runs the three dependent requests. The collections reply fixes the
// period list the other two are asked about.
func (s *BalanceSheetService) generate(ctx context.Context, year int) (*domain.Sheet, error) {
	started := s.version(year)

	var (
		collections events.CollectionTotals
		payroll     events.PayrollTotals
		usage       events.FundUsageTotals
	)

	err := saga.New("balance_sheet", s.logger).
		Step("collections", func(ctx context.Context) error {
			var err error
			collections, err = eventbus.Request[events.CollectionTotals](ctx, s.coordinator, eventbus.Call{
				Exchange: events.CollectionTotalsExchange,
				Payload:  events.CollectionTotalsRequest{Year: year},
			})
			return err
		}).
		Step("payroll", func(ctx context.Context) error {
			var err error
			payroll, err = eventbus.Request[events.PayrollTotals](ctx, s.coordinator, eventbus.Call{
				Exchange: events.PayrollTotalsExchange,
				Payload:  events.PayrollTotalsRequest{Periods: collections.Periods},
			})
			return err
		}).
		Step("fund_usage", func(ctx context.Context) error {
			var err error
			usage, err = eventbus.Request[events.FundUsageTotals](ctx, s.coordinator, eventbus.Call{
				Exchange: events.FundUsageTotalsExchange,
				Payload:  events.FundUsageTotalsRequest{Periods: collections.Periods},
			})
			return err
		}).
		Run(ctx)
	if err != nil {
		return nil, err
	}

	sheet := domain.Build(year, collections.Periods, collections.Totals, payroll.Totals, usage.Totals)
	if s.version(year) != started {
		s.logger.Debug(ctx, "balance sheet invalidated during generation, not caching", "year", year)
		return sheet, nil
	}
	if err := s.cache.Set(ctx, sheet); err != nil {
		s.logger.Warn(ctx, "failed to cache balance sheet", "error", err, "year", year)
	}
	return sheet, nil
}

// Invalidate drops the cached sheet for year. Runs already in flight keep
// their result out of the cache, and later callers start a new run.
func (s *BalanceSheetService) Invalidate(ctx context.Context, year int) error {
	s.mu.Lock()
	s.versions[year]++
	s.mu.Unlock()
	s.group.Forget(strconv.Itoa(year))

	if err := s.cache.Delete(ctx, year); err != nil {
		s.logger.Error(ctx, "failed to invalidate balance sheet", "error", err, "year", year)
		return err
	}
	return nil
}

// Close freezes the year's sheet. A closed year cannot be closed again.
func (s *BalanceSheetService) Close(ctx context.Context, actorID uuid.UUID, year int) (*domain.Snapshot, error) {
	if err := domain.ValidateYear(year); err != nil {
		return nil, ErrInvalidYear
	}

	if _, err := s.snapshots.Find(ctx, year); err == nil {
		return nil, ErrSnapshotExists
	} else if !errors.Is(err, ports.ErrSnapshotNotFound) {
		s.logger.Error(ctx, "failed to check snapshot", "error", err, "year", year)
		return nil, apperror.Internal("failed to close balance sheet")
	}

	// Snapshots never reuse a cached sheet or join a run started earlier.
	if err := s.Invalidate(ctx, year); err != nil {
		return nil, apperror.Internal("failed to close balance sheet")
	}
	sheet, err := s.generate(ctx, year)
	if err != nil {
		return nil, err
	}

	snapshot := domain.NewSnapshot(sheet, actorID)
	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		if errors.Is(err, ports.ErrSnapshotExists) {
			return nil, ErrSnapshotExists
		}
		s.logger.Error(ctx, "failed to save snapshot", "error", err, "year", year)
		return nil, apperror.Internal("failed to close balance sheet")
	}

	s.logger.Info(ctx, "balance sheet closed", "year", year, "closedBy", actorID, "net", sheet.Totals.Net)
	return snapshot, nil
}

func (s *BalanceSheetService) GetSnapshot(ctx context.Context, year int) (*domain.Snapshot, error) {
	snapshot, err := s.snapshots.Find(ctx, year)
	if err != nil {
		if errors.Is(err, ports.ErrSnapshotNotFound) {
			return nil, ErrSnapshotNotFound
		}
		s.logger.Error(ctx, "failed to get snapshot", "error", err, "year", year)
		return nil, apperror.Internal("failed to get snapshot")
	}
	return snapshot, nil
}

func (s *BalanceSheetService) ListSnapshots(ctx context.Context) ([]*domain.Snapshot, error) {
	snapshots, err := s.snapshots.List(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to list snapshots", "error", err)
		return nil, apperror.Internal("failed to list snapshots")
	}
	return snapshots, nil
}
