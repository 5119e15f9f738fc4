package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
)

// RegisterBillingHandlers answers the billing exchanges and issues tuition
// bills for new enrollments.
func RegisterBillingHandlers(bus *eventbus.Bus, svc *BillingService) {
	eventbus.RespondExclusive(bus, events.BillExchange,
		func(ctx context.Context, req events.BillRequest) (events.BillRecord, error) {
			bill, err := svc.getBill(ctx, req.BillID)
			if err != nil {
				return events.BillRecord{}, err
			}
			return toBillRecord(bill), nil
		})

	eventbus.RespondExclusive(bus, events.CollectionTotalsExchange,
		func(ctx context.Context, req events.CollectionTotalsRequest) (events.CollectionTotals, error) {
			return svc.MonthlyCollections(ctx, req.Year)
		})

	bus.Subscribe(events.StudentEnrolledTopic, svc.handleStudentEnrolled)
}

func (s *BillingService) handleStudentEnrolled(ctx context.Context, env eventbus.Envelope) error {
	event, ok := env.Data.(events.StudentEnrolledEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T on %s", env.Data, env.Topic)
	}

	_, err := s.CreateTuitionBill(ctx, event)
	if errors.Is(err, ErrFeeScheduleNotFound) {
		s.logger.Warn(ctx, "no fee schedule, tuition bill not issued",
			"enrollmentID", event.EnrollmentID,
			"gradeLevel", event.GradeLevel,
			"schoolYear", event.SchoolYear,
		)
		return nil
	}
	return err
}
