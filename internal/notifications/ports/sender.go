package ports

import "context"

// Receipt is what a guardian is told after a payment is approved. Amounts are in cents.
type Receipt struct {
	To          string
	StudentName string
	BillID      string
	Description string
	Amount      int64
	Outstanding int64
	Settled     bool
	Period      string
}

// ReceiptSender delivers receipts.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, receipt Receipt) error
}
