package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/billing/domain"
	"github.com/philly/school-finance/backend/internal/billing/ports"
	"github.com/philly/school-finance/backend/internal/platform/apperror"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/period"
	"github.com/philly/school-finance/backend/internal/platform/validator"
)

// Error definitions for service operations
var (
	ErrBillNotFound = apperror.New(
		apperror.CodeNotFound,
		apperror.BusinessCodeBillNotFound,
		"bill not found",
		http.StatusNotFound,
	)

	ErrPaymentNotFound = apperror.New(
		apperror.CodeNotFound,
		apperror.BusinessCodePaymentNotFound,
		"payment not found",
		http.StatusNotFound,
	)

	ErrFeeScheduleNotFound = apperror.New(
		apperror.CodeNotFound,
		apperror.BusinessCodeFeeScheduleNotFound,
		"no fee schedule for this grade and school year",
		http.StatusNotFound,
	)

	ErrOverpayment = apperror.New(
		apperror.CodeConflict,
		apperror.BusinessCodeOverpayment,
		"payment exceeds outstanding balance",
		http.StatusConflict,
	)

	ErrInvalidBillingData = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodeInvalidFormat,
		"invalid billing data",
		http.StatusBadRequest,
	)

	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeConflict,
		apperror.BusinessCodeInvalidStatusTransition,
		"invalid status transition",
		http.StatusConflict,
	)
)

// BillingService issues bills and takes payments against them.
type BillingService struct {
	fees        ports.FeeScheduleRepository
	bills       ports.BillRepository
	payments    ports.PaymentRepository
	coordinator *eventbus.Coordinator
	eventBus    *eventbus.Bus
	logger      logger.Logger
}

func NewBillingService(
	fees ports.FeeScheduleRepository,
	bills ports.BillRepository,
	payments ports.PaymentRepository,
	coordinator *eventbus.Coordinator,
	logger logger.Logger,
) *BillingService {
	return &BillingService{
		fees:        fees,
		bills:       bills,
		payments:    payments,
		coordinator: coordinator,
		eventBus:    coordinator.Bus(),
		logger:      logger,
	}
}

// SetFeeSchedule creates or replaces the tuition for a grade and year.
func (s *BillingService) SetFeeSchedule(ctx context.Context, gradeLevel, schoolYear int, tuition int64) (*domain.FeeSchedule, error) {
	fee, err := domain.NewFeeSchedule(gradeLevel, schoolYear, tuition)
	if err != nil {
		return nil, ErrInvalidBillingData.WithDetails(err.Error())
	}
	if err := s.fees.Upsert(ctx, fee); err != nil {
		s.logger.Error(ctx, "failed to save fee schedule", "error", err, "gradeLevel", gradeLevel, "schoolYear", schoolYear)
		return nil, apperror.Internal("failed to save fee schedule")
	}
	return fee, nil
}

func (s *BillingService) ListFeeSchedules(ctx context.Context, schoolYear int) ([]*domain.FeeSchedule, error) {
	fees, err := s.fees.ListByYear(ctx, schoolYear)
	if err != nil {
		s.logger.Error(ctx, "failed to list fee schedules", "error", err, "schoolYear", schoolYear)
		return nil, apperror.Internal("failed to list fee schedules")
	}
	return fees, nil
}

// CreateBillParams describes a one-off bill
type CreateBillParams struct {
	StudentID   uuid.UUID
	SchoolYear  int
	Description string
	Amount      int64
}

// CreateBill issues a bill to a student, discounted by the student's scholarship.
func (s *BillingService) CreateBill(ctx context.Context, params CreateBillParams) (*domain.Bill, error) {
	student, err := s.student(ctx, params.StudentID)
	if err != nil {
		return nil, err
	}

	bill, err := domain.NewBill(student.ID, params.SchoolYear, validator.SanitizeText(params.Description), params.Amount, student.ScholarshipPercent)
	if err != nil {
		return nil, ErrInvalidBillingData.WithDetails(err.Error())
	}
	if err := s.bills.Create(ctx, bill); err != nil {
		s.logger.Error(ctx, "failed to create bill", "error", err, "studentID", student.ID)
		return nil, apperror.Internal("failed to create bill")
	}
	return bill, nil
}

// CreateTuitionBill bills the enrollment's grade tuition for the school year.
// It returns the existing bill when one was already issued for the enrollment.
func (s *BillingService) CreateTuitionBill(ctx context.Context, event events.StudentEnrolledEvent) (*domain.Bill, error) {
	existing, err := s.bills.FindByEnrollment(ctx, event.EnrollmentID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ports.ErrBillNotFound) {
		s.logger.Error(ctx, "failed to check tuition bill", "error", err, "enrollmentID", event.EnrollmentID)
		return nil, apperror.Internal("failed to create tuition bill")
	}

	fee, err := s.fees.Find(ctx, event.GradeLevel, event.SchoolYear)
	if err != nil {
		if errors.Is(err, ports.ErrFeeScheduleNotFound) {
			return nil, ErrFeeScheduleNotFound
		}
		s.logger.Error(ctx, "failed to load fee schedule", "error", err)
		return nil, apperror.Internal("failed to create tuition bill")
	}

	student, err := s.student(ctx, event.StudentID)
	if err != nil {
		return nil, err
	}

	bill, err := domain.NewBill(student.ID, event.SchoolYear,
		fmt.Sprintf("Tuition %d, grade %d", event.SchoolYear, event.GradeLevel),
		fee.Tuition, student.ScholarshipPercent)
	if err != nil {
		return nil, ErrInvalidBillingData.WithDetails(err.Error())
	}
	enrollmentID := event.EnrollmentID
	bill.EnrollmentID = &enrollmentID

	if err := s.bills.Create(ctx, bill); err != nil {
		s.logger.Error(ctx, "failed to create tuition bill", "error", err, "enrollmentID", enrollmentID)
		return nil, apperror.Internal("failed to create tuition bill")
	}
	s.logger.Info(ctx, "tuition bill issued", "billID", bill.ID, "studentID", student.ID, "amount", bill.Amount)
	return bill, nil
}

// RecordPaymentParams describes money received
type RecordPaymentParams struct {
	Amount    int64
	Method    string
	Reference string
	PaidAt    time.Time
}

// RecordPayment records a pending payment. Pending and approved payments
// together never exceed what the bill asks for.
func (s *BillingService) RecordPayment(ctx context.Context, actorID, billID uuid.UUID, params RecordPaymentParams) (*domain.Payment, error) {
	bill, err := s.getBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.Status == domain.BillPaid {
		return nil, ErrInvalidStatusTransition.WithDetails(domain.ErrBillAlreadyPaid.Error())
	}

	method, err := domain.ParsePaymentMethod(params.Method)
	if err != nil {
		return nil, ErrInvalidBillingData.WithDetails(err.Error())
	}
	payment, err := domain.NewPayment(billID, actorID, params.Amount, method, validator.SanitizeText(params.Reference), params.PaidAt)
	if err != nil {
		return nil, ErrInvalidBillingData.WithDetails(err.Error())
	}

	pending, err := s.payments.PendingTotal(ctx, billID)
	if err != nil {
		s.logger.Error(ctx, "failed to total pending payments", "error", err, "billID", billID)
		return nil, apperror.Internal("failed to record payment")
	}
	if pending+payment.Amount > bill.Outstanding() {
		return nil, ErrOverpayment.WithDetails(fmt.Sprintf("outstanding %d, pending %d", bill.Outstanding(), pending))
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		s.logger.Error(ctx, "failed to record payment", "error", err, "billID", billID)
		return nil, apperror.Internal("failed to record payment")
	}
	return payment, nil
}

// ApprovePayment credits a pending payment to its bill and announces it.
func (s *BillingService) ApprovePayment(ctx context.Context, actorID, paymentID uuid.UUID) (*domain.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, ports.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		s.logger.Error(ctx, "failed to get payment", "error", err, "paymentID", paymentID)
		return nil, apperror.Internal("failed to approve payment")
	}
	bill, err := s.getBill(ctx, payment.BillID)
	if err != nil {
		return nil, err
	}

	if err := payment.Approve(actorID); err != nil {
		return nil, ErrInvalidStatusTransition.WithDetails(err.Error())
	}
	settled, err := bill.ApplyPayment(payment.Amount)
	if err != nil {
		if errors.Is(err, domain.ErrOverpayment) {
			return nil, ErrOverpayment
		}
		return nil, ErrInvalidStatusTransition.WithDetails(err.Error())
	}

	if err := s.payments.SaveApproval(ctx, payment, bill); err != nil {
		if errors.Is(err, ports.ErrStaleBill) {
			return nil, ErrInvalidStatusTransition.WithDetails("bill changed concurrently, retry")
		}
		s.logger.Error(ctx, "failed to approve payment", "error", err, "paymentID", paymentID)
		return nil, apperror.Internal("failed to approve payment")
	}

	s.eventBus.Publish(ctx, events.PaymentApprovedTopic, events.PaymentApprovedEvent{
		PaymentID:   payment.ID,
		BillID:      bill.ID,
		Amount:      payment.Amount,
		Period:      period.Of(payment.PaidAt),
		BillSettled: settled,
		ApprovedBy:  actorID,
		OccurredAt:  time.Now(),
	})
	return payment, nil
}

// BillDetails is a bill with its payments
type BillDetails struct {
	Bill     *domain.Bill
	Payments []*domain.Payment
}

func (s *BillingService) GetBill(ctx context.Context, id uuid.UUID) (*BillDetails, error) {
	bill, err := s.getBill(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByBill(ctx, id)
	if err != nil {
		s.logger.Error(ctx, "failed to list payments", "error", err, "billID", id)
		return nil, apperror.Internal("failed to get bill")
	}
	return &BillDetails{Bill: bill, Payments: payments}, nil
}

func (s *BillingService) ListStudentBills(ctx context.Context, studentID uuid.UUID) ([]*domain.Bill, error) {
	bills, err := s.bills.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error(ctx, "failed to list bills", "error", err, "studentID", studentID)
		return nil, apperror.Internal("failed to list bills")
	}
	return bills, nil
}

// MonthlyCollections returns approved payments for each month of year, in order.
func (s *BillingService) MonthlyCollections(ctx context.Context, year int) (events.CollectionTotals, error) {
	if year < 2000 || year > 2100 {
		return events.CollectionTotals{}, ErrInvalidBillingData.WithDetails(domain.ErrInvalidSchoolYear.Error())
	}
	sums, err := s.payments.ApprovedTotalsByPeriod(ctx, year)
	if err != nil {
		s.logger.Error(ctx, "failed to sum collections", "error", err, "year", year)
		return events.CollectionTotals{}, apperror.Internal("failed to sum collections")
	}
	periods := period.Year(year)
	totals := make(map[string]int64, len(periods))
	for _, p := range periods {
		totals[p] = sums[p]
	}
	return events.CollectionTotals{Periods: periods, Totals: totals}, nil
}

func (s *BillingService) student(ctx context.Context, id uuid.UUID) (events.StudentRecord, error) {
	return eventbus.Request[events.StudentRecord](ctx, s.coordinator, eventbus.Call{
		Exchange: events.StudentExchange,
		Payload:  events.StudentRequest{StudentID: id},
	})
}

func (s *BillingService) getBill(ctx context.Context, id uuid.UUID) (*domain.Bill, error) {
	bill, err := s.bills.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrBillNotFound) {
			return nil, ErrBillNotFound
		}
		s.logger.Error(ctx, "failed to get bill", "error", err, "billID", id)
		return nil, apperror.Internal("failed to get bill")
	}
	return bill, nil
}

func toBillRecord(b *domain.Bill) events.BillRecord {
	return events.BillRecord{
		ID:          b.ID,
		StudentID:   b.StudentID,
		SchoolYear:  b.SchoolYear,
		Description: b.Description,
		Amount:      b.Amount,
		Discount:    b.Discount,
		AmountPaid:  b.AmountPaid,
		Outstanding: b.Outstanding(),
		Status:      string(b.Status),

		EnrollmentID: b.EnrollmentID,
	}
}
