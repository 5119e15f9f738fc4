package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/platform/period"
)

var (
	ErrInvalidPeriod         = errors.New("period must be YYYY-MM")
	ErrNegativeGross         = errors.New("gross pay cannot be negative")
	ErrEmptyDeductionLabel   = errors.New("deduction label cannot be empty")
	ErrNonPositiveDeduction  = errors.New("deduction amount must be positive")
	ErrDeductionsExceedGross = errors.New("deductions exceed gross pay")
	ErrNotDraft              = errors.New("only draft payslips can be approved")
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
)

// Deduction is a labelled amount subtracted from gross pay.
type Deduction struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// Payslip is one staff member's pay for one period. Amounts are in cents.
type Payslip struct {
	ID         uuid.UUID
	StaffID    uuid.UUID
	Period     string
	Gross      int64
	Deductions []Deduction
	Net        int64
	Status     Status
	ApprovedBy *uuid.UUID
	ApprovedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewPayslip builds a draft payslip; Net is Gross minus the deductions and never negative.
func NewPayslip(staffID uuid.UUID, p string, gross int64, deductions []Deduction) (*Payslip, error) {
	if period.Validate(p) != nil {
		return nil, ErrInvalidPeriod
	}
	if gross < 0 {
		return nil, ErrNegativeGross
	}

	var total int64
	clean := make([]Deduction, 0, len(deductions))
	for _, d := range deductions {
		label := strings.TrimSpace(d.Label)
		if label == "" {
			return nil, ErrEmptyDeductionLabel
		}
		if d.Amount <= 0 {
			return nil, ErrNonPositiveDeduction
		}
		total += d.Amount
		clean = append(clean, Deduction{Label: label, Amount: d.Amount})
	}
	if total > gross {
		return nil, ErrDeductionsExceedGross
	}

	now := time.Now()
	return &Payslip{
		ID:         uuid.New(),
		StaffID:    staffID,
		Period:     p,
		Gross:      gross,
		Deductions: clean,
		Net:        gross - total,
		Status:     StatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (p *Payslip) Approve(actorID uuid.UUID) error {
	if p.Status != StatusDraft {
		return ErrNotDraft
	}
	now := time.Now()
	p.Status = StatusApproved
	p.ApprovedBy = &actorID
	p.ApprovedAt = &now
	p.UpdatedAt = now
	return nil
}
