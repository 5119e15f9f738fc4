package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
)

const PaymentApprovedTopic eventbus.Topic = "billing.payment_approved"

var (
	BillExchange = eventbus.Exchange{
		Request:  "billing.bill.requested",
		Response: "billing.bill.retrieved",
	}
	CollectionTotalsExchange = eventbus.Exchange{
		Request:  "billing.monthly_collections.requested",
		Response: "billing.monthly_collections.retrieved",
	}
)

// PaymentApprovedEvent is published when a payment is approved.
// It carries ids only; subscribers ask billing for anything else.
type PaymentApprovedEvent struct {
	PaymentID   uuid.UUID
	BillID      uuid.UUID
	Amount      int64
	Period      string
	BillSettled bool
	ApprovedBy  uuid.UUID
	OccurredAt  time.Time
}

type BillRequest struct {
	BillID uuid.UUID
}

// BillRecord is the cross-context view of a bill.
type BillRecord struct {
	ID           uuid.UUID
	StudentID    uuid.UUID
	SchoolYear   int
	Description  string
	Amount       int64
	Discount     int64
	AmountPaid   int64
	Outstanding  int64
	Status       string
	// EnrollmentID is set on tuition bills only.
	EnrollmentID *uuid.UUID
}

type CollectionTotalsRequest struct {
	Year int
}

// CollectionTotals lists the twelve periods of the year in order with
// approved payments per period; months without payments are zero.
type CollectionTotals struct {
	Periods []string
	Totals  map[string]int64
}
