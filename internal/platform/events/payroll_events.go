package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
)

const PayslipApprovedTopic eventbus.Topic = "payroll.payslip_approved"

var PayrollTotalsExchange = eventbus.Exchange{
	Request:  "payroll.monthly_totals.requested",
	Response: "payroll.monthly_totals.retrieved",
}

// PayslipApprovedEvent is published when a payslip moves to approved
type PayslipApprovedEvent struct {
	PayslipID  uuid.UUID
	StaffID    uuid.UUID
	Period     string
	Net        int64
	ApprovedBy uuid.UUID
	OccurredAt time.Time
}

// PayrollTotalsRequest asks for approved net pay per period.
type PayrollTotalsRequest struct {
	Periods []string
}

// PayrollTotals holds net pay in cents keyed by period. Every requested period is present.
type PayrollTotals struct {
	Totals map[string]int64
}
