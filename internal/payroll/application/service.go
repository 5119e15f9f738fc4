package application

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/payroll/domain"
	"github.com/philly/school-finance/backend/internal/payroll/ports"
	"github.com/philly/school-finance/backend/internal/platform/apperror"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	periods "github.com/philly/school-finance/backend/internal/platform/period"
)

// Error definitions for service operations
var (
	ErrPayslipNotFound = apperror.New(
		apperror.CodeNotFound,
		apperror.BusinessCodePayslipNotFound,
		"payslip not found",
		http.StatusNotFound,
	)

	ErrPayslipExists = apperror.New(
		apperror.CodeConflict,
		apperror.BusinessCodePayslipAlreadyExists,
		"payslip already exists for this staff member and period",
		http.StatusConflict,
	)

	ErrInvalidPayslipData = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodeInvalidFormat,
		"invalid payslip data",
		http.StatusBadRequest,
	)

	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeConflict,
		apperror.BusinessCodeInvalidStatusTransition,
		"invalid status transition",
		http.StatusConflict,
	)

	ErrStaffInactive = apperror.New(
		apperror.CodeConflict,
		apperror.BusinessCodeStaffInactive,
		"staff member is inactive",
		http.StatusConflict,
	)
)

// PayrollService generates and approves payslips. Staff data comes from the
// staff context over the bus.
type PayrollService struct {
	repo        ports.PayslipRepository
	coordinator *eventbus.Coordinator
	eventBus    *eventbus.Bus
	logger      logger.Logger
}

func NewPayrollService(
	repo ports.PayslipRepository,
	coordinator *eventbus.Coordinator,
	logger logger.Logger,
) *PayrollService {
	return &PayrollService{
		repo:        repo,
		coordinator: coordinator,
		eventBus:    coordinator.Bus(),
		logger:      logger,
	}
}

// GeneratePayslipParams contains parameters for generating a payslip
type GeneratePayslipParams struct {
	StaffID    uuid.UUID
	Period     string
	Deductions []domain.Deduction
}

// GeneratePayslip creates a draft payslip whose gross is the staff member's monthly salary.
func (s *PayrollService) GeneratePayslip(ctx context.Context, params GeneratePayslipParams) (*domain.Payslip, error) {
	member, err := eventbus.Request[events.StaffMember](ctx, s.coordinator, eventbus.Call{
		Exchange: events.StaffMemberExchange,
		Payload:  events.StaffMemberRequest{StaffID: params.StaffID},
	})
	if err != nil {
		return nil, err
	}
	if !member.Active {
		return nil, ErrStaffInactive
	}

	return s.createPayslip(ctx, member, params.Period, params.Deductions)
}

func (s *PayrollService) createPayslip(ctx context.Context, member events.StaffMember, period string, deductions []domain.Deduction) (*domain.Payslip, error) {
	payslip, err := domain.NewPayslip(member.ID, period, member.MonthlySalary, deductions)
	if err != nil {
		return nil, ErrInvalidPayslipData.WithDetails(err.Error())
	}

	exists, err := s.repo.ExistsForPeriod(ctx, member.ID, period)
	if err != nil {
		s.logger.Error(ctx, "failed to check existing payslip", "error", err, "staffID", member.ID, "period", period)
		return nil, apperror.Internal("failed to generate payslip")
	}
	if exists {
		return nil, ErrPayslipExists
	}

	if err := s.repo.Create(ctx, payslip); err != nil {
		if errors.Is(err, ports.ErrPayslipExists) {
			return nil, ErrPayslipExists
		}
		s.logger.Error(ctx, "failed to create payslip", "error", err, "staffID", member.ID, "period", period)
		return nil, apperror.Internal("failed to generate payslip")
	}
	return payslip, nil
}

// RunResult summarises a payroll run
type RunResult struct {
	Period  string
	Created int
	Skipped int
}

// RunMonthlyPayroll creates a draft payslip for every active staff member that
// does not have one for period yet. Running it twice creates nothing new.
func (s *PayrollService) RunMonthlyPayroll(ctx context.Context, period string) (*RunResult, error) {
	if err := periods.Validate(period); err != nil {
		return nil, ErrInvalidPayslipData.WithDetails(err.Error())
	}

	active, err := eventbus.Request[events.ActiveStaff](ctx, s.coordinator, eventbus.Call{
		Exchange: events.ActiveStaffExchange,
		Payload:  events.ActiveStaffRequest{},
	})
	if err != nil {
		return nil, err
	}

	result := &RunResult{Period: period}
	for _, member := range active.Members {
		_, err := s.createPayslip(ctx, member, period, nil)
		switch {
		case err == nil:
			result.Created++
		case errors.Is(err, ErrPayslipExists):
			result.Skipped++
		default:
			return result, err
		}
	}

	s.logger.Info(ctx, "payroll run completed", "period", period, "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

// ApprovePayslip approves a draft payslip and announces it.
func (s *PayrollService) ApprovePayslip(ctx context.Context, actorID, id uuid.UUID) (*domain.Payslip, error) {
	payslip, err := s.GetPayslip(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := payslip.Approve(actorID); err != nil {
		return nil, ErrInvalidStatusTransition.WithDetails(err.Error())
	}

	if err := s.repo.Update(ctx, payslip); err != nil {
		s.logger.Error(ctx, "failed to approve payslip", "error", err, "payslipID", id)
		return nil, apperror.Internal("failed to approve payslip")
	}

	s.eventBus.Publish(ctx, events.PayslipApprovedTopic, events.PayslipApprovedEvent{
		PayslipID:  payslip.ID,
		StaffID:    payslip.StaffID,
		Period:     payslip.Period,
		Net:        payslip.Net,
		ApprovedBy: actorID,
		OccurredAt: time.Now(),
	})

	return payslip, nil
}

func (s *PayrollService) GetPayslip(ctx context.Context, id uuid.UUID) (*domain.Payslip, error) {
	payslip, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrPayslipNotFound) {
			return nil, ErrPayslipNotFound
		}
		s.logger.Error(ctx, "failed to get payslip", "error", err, "payslipID", id)
		return nil, apperror.Internal("failed to get payslip")
	}
	return payslip, nil
}

func (s *PayrollService) ListPayslips(ctx context.Context, filter ports.ListFilter) ([]*domain.Payslip, error) {
	payslips, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error(ctx, "failed to list payslips", "error", err)
		return nil, apperror.Internal("failed to list payslips")
	}
	return payslips, nil
}

// MonthlyTotals returns approved net pay for each period, zero when none.
func (s *PayrollService) MonthlyTotals(ctx context.Context, periods []string) (map[string]int64, error) {
	sums, err := s.repo.ApprovedNetByPeriod(ctx, periods)
	if err != nil {
		s.logger.Error(ctx, "failed to sum payroll", "error", err)
		return nil, apperror.Internal("failed to sum payroll")
	}
	totals := make(map[string]int64, len(periods))
	for _, p := range periods {
		totals[p] = sums[p]
	}
	return totals, nil
}
