package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/payroll/domain"
)

var (
	ErrPayslipNotFound = errors.New("payslip not found")
	// ErrPayslipExists is returned by Create when the staff member already
	// has a payslip for the period.
	ErrPayslipExists = errors.New("payslip already exists for period")
)

// ListFilter narrows ListPayslips; zero values match everything.
type ListFilter struct {
	Period  string
	StaffID *uuid.UUID
	Status  domain.Status
}

type PayslipRepository interface {
	Create(ctx context.Context, payslip *domain.Payslip) error
	Update(ctx context.Context, payslip *domain.Payslip) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Payslip, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Payslip, error)
	ExistsForPeriod(ctx context.Context, staffID uuid.UUID, period string) (bool, error)
	// ApprovedNetByPeriod sums approved net pay per period. Periods without
	// approved payslips are absent from the result.
	ApprovedNetByPeriod(ctx context.Context, periods []string) (map[string]int64, error)
}
