package application

import (
	"context"

	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/platform/period"
)

// RegisterFundsResponders answers funds.monthly_usage.
func RegisterFundsResponders(bus *eventbus.Bus, svc *FundsService) {
	eventbus.RespondExclusive(bus, events.FundUsageTotalsExchange,
		func(ctx context.Context, req events.FundUsageTotalsRequest) (events.FundUsageTotals, error) {
			for _, p := range req.Periods {
				if err := period.Validate(p); err != nil {
					return events.FundUsageTotals{}, ErrInvalidFundRequestData.WithDetails(err.Error())
				}
			}
			totals, err := svc.MonthlyUsage(ctx, req.Periods)
			if err != nil {
				return events.FundUsageTotals{}, err
			}
			return events.FundUsageTotals{Totals: totals}, nil
		})
}
