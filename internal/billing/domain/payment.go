package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCard         PaymentMethod = "card"
	MethodCheck        PaymentMethod = "check"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodCash, MethodBankTransfer, MethodCard, MethodCheck:
		return m, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
)

// Payment is money received against a bill. It counts toward the bill only
// once approved.
type Payment struct {
	ID         uuid.UUID
	BillID     uuid.UUID
	Amount     int64
	Method     PaymentMethod
	Reference  string
	Status     PaymentStatus
	RecordedBy uuid.UUID
	ApprovedBy *uuid.UUID
	PaidAt     time.Time
	ApprovedAt *time.Time
	CreatedAt  time.Time
}

func NewPayment(billID, recordedBy uuid.UUID, amount int64, method PaymentMethod, reference string, paidAt time.Time) (*Payment, error) {
	reference = strings.TrimSpace(reference)
	switch {
	case amount <= 0:
		return nil, ErrNonPositiveAmount
	case len(reference) > 100:
		return nil, ErrReferenceTooLong
	case paidAt.IsZero():
		return nil, ErrMissingPaymentDate
	}
	return &Payment{
		ID:         uuid.New(),
		BillID:     billID,
		Amount:     amount,
		Method:     method,
		Reference:  reference,
		Status:     PaymentPending,
		RecordedBy: recordedBy,
		PaidAt:     paidAt.UTC(),
		CreatedAt:  time.Now(),
	}, nil
}

func (p *Payment) Approve(actorID uuid.UUID) error {
	if p.Status != PaymentPending {
		return ErrPaymentNotPending
	}
	now := time.Now()
	p.Status = PaymentApproved
	p.ApprovedBy = &actorID
	p.ApprovedAt = &now
	return nil
}
