package application

import (
	"context"

	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/platform/period"
)

// RegisterPayrollResponders answers payroll.monthly_totals.
func RegisterPayrollResponders(bus *eventbus.Bus, svc *PayrollService) {
	eventbus.RespondExclusive(bus, events.PayrollTotalsExchange,
		func(ctx context.Context, req events.PayrollTotalsRequest) (events.PayrollTotals, error) {
			for _, p := range req.Periods {
				if err := period.Validate(p); err != nil {
					return events.PayrollTotals{}, ErrInvalidPayslipData.WithDetails(err.Error())
				}
			}
			totals, err := svc.MonthlyTotals(ctx, req.Periods)
			if err != nil {
				return events.PayrollTotals{}, err
			}
			return events.PayrollTotals{Totals: totals}, nil
		})
}
