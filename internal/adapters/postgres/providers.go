package postgres

import (
	"github.com/google/wire"

	balanceports "github.com/philly/school-finance/backend/internal/balancesheet/ports"
	billingports "github.com/philly/school-finance/backend/internal/billing/ports"
	enrollmentports "github.com/philly/school-finance/backend/internal/enrollment/ports"
	fundsports "github.com/philly/school-finance/backend/internal/funds/ports"
	payrollports "github.com/philly/school-finance/backend/internal/payroll/ports"
	staffports "github.com/philly/school-finance/backend/internal/staff/ports"
)

// ProviderSet is the wire provider set for postgres repositories
var ProviderSet = wire.NewSet(
	NewStaffRepository,
	wire.Bind(new(staffports.StaffRepository), new(*StaffRepository)),

	NewPayslipRepository,
	wire.Bind(new(payrollports.PayslipRepository), new(*PayslipRepository)),

	NewFundRequestRepository,
	wire.Bind(new(fundsports.FundRequestRepository), new(*FundRequestRepository)),
	NewFundUsageRepository,
	wire.Bind(new(fundsports.FundUsageRepository), new(*FundUsageRepository)),

	NewStudentRepository,
	wire.Bind(new(enrollmentports.StudentRepository), new(*StudentRepository)),
	NewEnrollmentRepository,
	wire.Bind(new(enrollmentports.EnrollmentRepository), new(*EnrollmentRepository)),

	NewFeeScheduleRepository,
	wire.Bind(new(billingports.FeeScheduleRepository), new(*FeeScheduleRepository)),
	NewBillRepository,
	wire.Bind(new(billingports.BillRepository), new(*BillRepository)),
	NewPaymentRepository,
	wire.Bind(new(billingports.PaymentRepository), new(*PaymentRepository)),

	NewSnapshotRepository,
	wire.Bind(new(balanceports.SnapshotRepository), new(*SnapshotRepository)),
)
