package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/billing/domain"
)

var (
	ErrFeeScheduleNotFound = errors.New("fee schedule not found")
	ErrBillNotFound        = errors.New("bill not found")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrStaleBill           = errors.New("bill changed since it was read")
)

type FeeScheduleRepository interface {
	Upsert(ctx context.Context, fee *domain.FeeSchedule) error
	Find(ctx context.Context, gradeLevel, schoolYear int) (*domain.FeeSchedule, error)
	ListByYear(ctx context.Context, schoolYear int) ([]*domain.FeeSchedule, error)
}

type BillRepository interface {
	Create(ctx context.Context, bill *domain.Bill) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Bill, error)
	// FindByEnrollment returns the tuition bill issued for an enrollment.
	FindByEnrollment(ctx context.Context, enrollmentID uuid.UUID) (*domain.Bill, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.Bill, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	ListByBill(ctx context.Context, billID uuid.UUID) ([]*domain.Payment, error)
	// PendingTotal sums the bill's payments that await approval.
	PendingTotal(ctx context.Context, billID uuid.UUID) (int64, error)
	// SaveApproval persists an approved payment and the credited bill together.
	// It returns ErrStaleBill when the bill was credited by someone else meanwhile.
	SaveApproval(ctx context.Context, payment *domain.Payment, bill *domain.Bill) error
	// ApprovedTotalsByPeriod sums approved payments per "YYYY-MM" of PaidAt
	// within the calendar year; months without payments are absent.
	ApprovedTotalsByPeriod(ctx context.Context, year int) (map[string]int64, error)
}
