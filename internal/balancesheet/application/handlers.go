package application

import (
	"context"
	"fmt"

	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/platform/period"
)

// RegisterBalanceSheetHandlers drops cached sheets whenever a figure they
// are built from changes.
func RegisterBalanceSheetHandlers(bus *eventbus.Bus, svc *BalanceSheetService) {
	bus.Subscribe(events.PaymentApprovedTopic, svc.invalidateOn(func(data any) (string, bool) {
		e, ok := data.(events.PaymentApprovedEvent)
		return e.Period, ok
	}))
	bus.Subscribe(events.PayslipApprovedTopic, svc.invalidateOn(func(data any) (string, bool) {
		e, ok := data.(events.PayslipApprovedEvent)
		return e.Period, ok
	}))
	bus.Subscribe(events.FundUsageRecordedTopic, svc.invalidateOn(func(data any) (string, bool) {
		e, ok := data.(events.FundUsageRecordedEvent)
		return e.Period, ok
	}))
}

func (s *BalanceSheetService) invalidateOn(periodOf func(any) (string, bool)) eventbus.Handler {
	return func(ctx context.Context, env eventbus.Envelope) error {
		p, ok := periodOf(env.Data)
		if !ok {
			return fmt.Errorf("unexpected payload %T on %s", env.Data, env.Topic)
		}
		start, _, err := period.Bounds(p)
		if err != nil {
			return err
		}
		return s.Invalidate(ctx, start.Year())
	}
}
