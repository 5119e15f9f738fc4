package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/philly/school-finance/backend/internal/notifications/ports"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/saga"
)

// ReceiptNotifier emails the guardian when a payment is approved.
type ReceiptNotifier struct {
	sender      ports.ReceiptSender
	coordinator *eventbus.Coordinator
	logger      logger.Logger
}

func NewReceiptNotifier(sender ports.ReceiptSender, coordinator *eventbus.Coordinator, logger logger.Logger) *ReceiptNotifier {
	return &ReceiptNotifier{
		sender:      sender,
		coordinator: coordinator,
		logger:      logger,
	}
}

// RegisterNotificationHandlers subscribes the notifier to approved payments.
func RegisterNotificationHandlers(bus *eventbus.Bus, n *ReceiptNotifier) {
	bus.Subscribe(events.PaymentApprovedTopic, n.handlePaymentApproved)
}

func (n *ReceiptNotifier) handlePaymentApproved(ctx context.Context, env eventbus.Envelope) error {
	event, ok := env.Data.(events.PaymentApprovedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T on %s", env.Data, env.Topic)
	}
	return n.SendReceipt(ctx, event)
}

// SendReceipt looks up the bill, then its student, and sends the receipt.
// Students without a guardian email are skipped.
func (n *ReceiptNotifier) SendReceipt(ctx context.Context, event events.PaymentApprovedEvent) error {
	var (
		bill    events.BillRecord
		student events.StudentRecord
	)

	err := saga.New("payment_receipt", n.logger).
		Step("bill", func(ctx context.Context) error {
			var err error
			bill, err = eventbus.Request[events.BillRecord](ctx, n.coordinator, eventbus.Call{
				Exchange: events.BillExchange,
				Payload:  events.BillRequest{BillID: event.BillID},
			})
			return err
		}).
		Step("student", func(ctx context.Context) error {
			var err error
			student, err = eventbus.Request[events.StudentRecord](ctx, n.coordinator, eventbus.Call{
				Exchange: events.StudentExchange,
				Payload:  events.StudentRequest{StudentID: bill.StudentID},
			})
			return err
		}).
		Run(ctx)
	if err != nil {
		return fmt.Errorf("prepare receipt for payment %s: %w", event.PaymentID, err)
	}

	if strings.TrimSpace(student.GuardianEmail) == "" {
		n.logger.Info(ctx, "no guardian email, receipt skipped", "paymentID", event.PaymentID, "studentID", student.ID)
		return nil
	}

	receipt := ports.Receipt{
		To:          student.GuardianEmail,
		StudentName: student.FirstName + " " + student.LastName,
		BillID:      bill.ID.String(),
		Description: bill.Description,
		Amount:      event.Amount,
		Outstanding: bill.Outstanding,
		Settled:     event.BillSettled,
		Period:      event.Period,
	}
	if err := n.sender.SendReceipt(ctx, receipt); err != nil {
		return fmt.Errorf("send receipt for payment %s: %w", event.PaymentID, err)
	}

	n.logger.Info(ctx, "receipt sent", "paymentID", event.PaymentID, "to", receipt.To)
	return nil
}
