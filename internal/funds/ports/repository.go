package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/funds/domain"
)

var (
	ErrFundRequestNotFound = errors.New("fund request not found")
	// ErrUsageLimitExceeded is returned by RecordUsage when the insert would
	// push total usage above the approved amount.
	ErrUsageLimitExceeded = errors.New("usage exceeds approved amount")
)

// ListFilter narrows List; zero values match everything.
type ListFilter struct {
	RequesterID *uuid.UUID
	Status      domain.Status
	Limit       int
	Offset      int
}

type FundRequestRepository interface {
	Create(ctx context.Context, req *domain.FundRequest) error
	Update(ctx context.Context, req *domain.FundRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.FundRequest, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.FundRequest, error)
	GetRequester(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

type FundUsageRepository interface {
	// RecordUsage atomically checks that usage so far plus usage.Amount stays
	// within limit and inserts the row.
	RecordUsage(ctx context.Context, usage *domain.FundUsage, limit int64) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*domain.FundUsage, error)
	TotalForRequest(ctx context.Context, requestID uuid.UUID) (int64, error)
	// TotalsByPeriod sums usage per "YYYY-MM" of SpentOn; absent periods had none.
	TotalsByPeriod(ctx context.Context, periods []string) (map[string]int64, error)
}
