package application

import (
	"context"
	"fmt"

	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
)

// RegisterEnrollmentHandlers answers enrollment.student and clears
// enrollments when their tuition bill is settled.
func RegisterEnrollmentHandlers(bus *eventbus.Bus, svc *EnrollmentService) {
	eventbus.RespondExclusive(bus, events.StudentExchange,
		func(ctx context.Context, req events.StudentRequest) (events.StudentRecord, error) {
			return svc.StudentRecord(ctx, req.StudentID)
		})

	bus.Subscribe(events.PaymentApprovedTopic, svc.handlePaymentApproved)
}

// handlePaymentApproved asks billing whether the settled bill is a tuition
// bill and clears the enrollment it was issued for. Other bills never clear.
func (s *EnrollmentService) handlePaymentApproved(ctx context.Context, env eventbus.Envelope) error {
	event, ok := env.Data.(events.PaymentApprovedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T on %s", env.Data, env.Topic)
	}
	if !event.BillSettled {
		return nil
	}

	bill, err := eventbus.Request[events.BillRecord](ctx, s.coordinator, eventbus.Call{
		Exchange: events.BillExchange,
		Payload:  events.BillRequest{BillID: event.BillID},
	})
	if err != nil {
		return fmt.Errorf("look up settled bill %s: %w", event.BillID, err)
	}

	if bill.EnrollmentID == nil {
		return nil
	}
	return s.MarkCleared(ctx, *bill.EnrollmentID)
}
