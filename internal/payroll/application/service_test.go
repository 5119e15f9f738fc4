package application_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/school-finance/backend/internal/payroll/application"
	"github.com/philly/school-finance/backend/internal/payroll/domain"
	"github.com/philly/school-finance/backend/internal/payroll/ports"
	"github.com/philly/school-finance/backend/internal/platform/apperror"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/platform/ownership"
)

type mockLogger struct{}

func (mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (mockLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (mockLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (mockLogger) Error(ctx context.Context, msg string, args ...any) {}

type fakePayslipRepo struct {
	mu       sync.Mutex
	payslips map[uuid.UUID]*domain.Payslip
}

func newFakeRepo() *fakePayslipRepo {
	return &fakePayslipRepo{payslips: make(map[uuid.UUID]*domain.Payslip)}
}

func (r *fakePayslipRepo) Create(ctx context.Context, p *domain.Payslip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.payslips {
		if existing.StaffID == p.StaffID && existing.Period == p.Period {
			return ports.ErrPayslipExists
		}
	}
	cp := *p
	r.payslips[p.ID] = &cp
	return nil
}

func (r *fakePayslipRepo) Update(ctx context.Context, p *domain.Payslip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.payslips[p.ID] = &cp
	return nil
}

func (r *fakePayslipRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payslip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payslips[id]
	if !ok {
		return nil, ports.ErrPayslipNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePayslipRepo) List(ctx context.Context, f ports.ListFilter) ([]*domain.Payslip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Payslip
	for _, p := range r.payslips {
		if f.Period != "" && p.Period != f.Period {
			continue
		}
		if f.StaffID != nil && p.StaffID != *f.StaffID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakePayslipRepo) ExistsForPeriod(ctx context.Context, staffID uuid.UUID, period string) (bool, error) {
	list, _ := r.List(ctx, ports.ListFilter{Period: period, StaffID: &staffID})
	return len(list) > 0, nil
}

func (r *fakePayslipRepo) ApprovedNetByPeriod(ctx context.Context, periods []string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]bool, len(periods))
	for _, p := range periods {
		want[p] = true
	}
	out := make(map[string]int64)
	for _, p := range r.payslips {
		if p.Status == domain.StatusApproved && want[p.Period] {
			out[p.Period] += p.Net
		}
	}
	return out, nil
}

type fixture struct {
	svc   *application.PayrollService
	repo  *fakePayslipRepo
	bus   *eventbus.Bus
	coord *eventbus.Coordinator
	ana   events.StaffMember
	ben   events.StaffMember
	cal   events.StaffMember
}

// setup wires the payroll service to a stub staff context on a real bus.
func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo: newFakeRepo(),
		bus:  eventbus.NewBus(mockLogger{}),
		ana:  events.StaffMember{ID: uuid.New(), Email: "ana@school.edu", MonthlySalary: 300000, Active: true},
		ben:  events.StaffMember{ID: uuid.New(), Email: "ben@school.edu", MonthlySalary: 200000, Active: true},
		cal:  events.StaffMember{ID: uuid.New(), Email: "cal@school.edu", MonthlySalary: 100000, Active: false},
	}
	staff := map[uuid.UUID]events.StaffMember{f.ana.ID: f.ana, f.ben.ID: f.ben, f.cal.ID: f.cal}

	eventbus.Respond(f.bus, events.StaffMemberExchange, func(ctx context.Context, req events.StaffMemberRequest) (events.StaffMember, error) {
		m, ok := staff[req.StaffID]
		if !ok {
			return events.StaffMember{}, apperror.New(apperror.CodeNotFound, apperror.BusinessCodeStaffNotFound, "staff member not found", http.StatusNotFound)
		}
		return m, nil
	})
	eventbus.Respond(f.bus, events.ActiveStaffExchange, func(ctx context.Context, _ events.ActiveStaffRequest) (events.ActiveStaff, error) {
		return events.ActiveStaff{Members: []events.StaffMember{f.ana, f.ben}}, nil
	})

	f.coord = eventbus.NewCoordinator(f.bus, mockLogger{}, eventbus.CoordinatorConfig{DefaultTimeout: time.Second})
	f.svc = application.NewPayrollService(f.repo, f.coord, mockLogger{})
	application.RegisterPayrollResponders(f.bus, f.svc)
	return f
}

func TestGeneratePayslip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.svc.GeneratePayslip(ctx, application.GeneratePayslipParams{
		StaffID:    f.ana.ID,
		Period:     "2025-03",
		Deductions: []domain.Deduction{{Label: "tax", Amount: 45000}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(300000), p.Gross)
	assert.Equal(t, int64(255000), p.Net)

	_, err = f.svc.GeneratePayslip(ctx, application.GeneratePayslipParams{StaffID: f.ana.ID, Period: "2025-03"})
	assert.ErrorIs(t, err, application.ErrPayslipExists)
}

func TestGeneratePayslipRejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.GeneratePayslip(ctx, application.GeneratePayslipParams{StaffID: f.cal.ID, Period: "2025-03"})
	assert.ErrorIs(t, err, application.ErrStaffInactive)

	_, err = f.svc.GeneratePayslip(ctx, application.GeneratePayslipParams{StaffID: uuid.New(), Period: "2025-03"})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
	assert.Equal(t, apperror.BusinessCodeStaffNotFound, appErr.BusinessCode)

	_, err = f.svc.GeneratePayslip(ctx, application.GeneratePayslipParams{StaffID: f.ana.ID, Period: "March"})
	assert.ErrorIs(t, err, application.ErrInvalidPayslipData)
}

func TestRunMonthlyPayrollIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.GeneratePayslip(ctx, application.GeneratePayslipParams{StaffID: f.ben.ID, Period: "2025-04"})
	require.NoError(t, err)

	res, err := f.svc.RunMonthlyPayroll(ctx, "2025-04")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Skipped)

	res, err = f.svc.RunMonthlyPayroll(ctx, "2025-04")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Skipped)

	all, err := f.svc.ListPayslips(ctx, ports.ListFilter{Period: "2025-04"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestApprovePayslipNotifiesAndFeedsTotals(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var approved []events.PayslipApprovedEvent
	f.bus.Subscribe(events.PayslipApprovedTopic, func(ctx context.Context, env eventbus.Envelope) error {
		approved = append(approved, env.Data.(events.PayslipApprovedEvent))
		return nil
	})

	_, err := f.svc.RunMonthlyPayroll(ctx, "2025-05")
	require.NoError(t, err)
	slips, err := f.svc.ListPayslips(ctx, ports.ListFilter{Period: "2025-05", StaffID: &f.ana.ID})
	require.NoError(t, err)
	require.Len(t, slips, 1)

	actor := uuid.New()
	_, err = f.svc.ApprovePayslip(ctx, actor, slips[0].ID)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "2025-05", approved[0].Period)
	assert.Equal(t, int64(300000), approved[0].Net)

	_, err = f.svc.ApprovePayslip(ctx, actor, slips[0].ID)
	assert.ErrorIs(t, err, application.ErrInvalidStatusTransition)
	assert.Len(t, approved, 1)

	totals, err := eventbus.Request[events.PayrollTotals](ctx, f.coord, eventbus.Call{
		Exchange: events.PayrollTotalsExchange,
		Payload:  events.PayrollTotalsRequest{Periods: []string{"2025-05", "2025-06"}},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"2025-05": 300000, "2025-06": 0}, totals.Totals)
}

func TestPayrollTotalsRejectsBadPeriod(t *testing.T) {
	f := setup(t)

	_, err := eventbus.Request[events.PayrollTotals](context.Background(), f.coord, eventbus.Call{
		Exchange: events.PayrollTotalsExchange,
		Payload:  events.PayrollTotalsRequest{Periods: []string{"2025-5"}},
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestPayslipOwnership(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p, err := f.svc.GeneratePayslip(ctx, application.GeneratePayslipParams{StaffID: f.ana.ID, Period: "2025-03"})
	require.NoError(t, err)

	registry := ownership.NewRegistry()
	application.RegisterPayrollOwnership(registry, f.repo, mockLogger{})

	ok, err := registry.CheckOwnership(ctx, f.ana.ID, "payroll", p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = registry.CheckOwnership(ctx, f.ben.ID, "payroll", p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = registry.CheckOwnership(ctx, f.ana.ID, "payroll", uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}
