package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNegativeTuition      = errors.New("tuition cannot be negative")
	ErrInvalidGradeLevel    = errors.New("grade level must be between 0 and 12")
	ErrInvalidSchoolYear    = errors.New("school year out of range")
	ErrEmptyDescription     = errors.New("description cannot be empty")
	ErrNonPositiveAmount    = errors.New("amount must be positive")
	ErrInvalidScholarship   = errors.New("scholarship percent must be between 0 and 100")
	ErrOverpayment          = errors.New("payment exceeds outstanding balance")
	ErrBillAlreadyPaid      = errors.New("bill is already paid")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrPaymentNotPending    = errors.New("payment is not pending")
	ErrMissingPaymentDate   = errors.New("payment date is required")
	ErrDescriptionTooLong   = errors.New("description must not exceed 200 characters")
	ErrReferenceTooLong     = errors.New("reference must not exceed 100 characters")
)

// FeeSchedule is the yearly tuition for a grade level, in cents.
type FeeSchedule struct {
	GradeLevel int
	SchoolYear int
	Tuition    int64
	UpdatedAt  time.Time
}

func NewFeeSchedule(gradeLevel, schoolYear int, tuition int64) (*FeeSchedule, error) {
	if gradeLevel < 0 || gradeLevel > 12 {
		return nil, ErrInvalidGradeLevel
	}
	if schoolYear < 2000 || schoolYear > 2100 {
		return nil, ErrInvalidSchoolYear
	}
	if tuition < 0 {
		return nil, ErrNegativeTuition
	}
	return &FeeSchedule{GradeLevel: gradeLevel, SchoolYear: schoolYear, Tuition: tuition, UpdatedAt: time.Now()}, nil
}

type BillStatus string

const (
	BillOpen BillStatus = "open"
	BillPaid BillStatus = "paid"
)

// Bill is an amount owed by a student. Outstanding is Amount - Discount - AmountPaid.
type Bill struct {
	ID           uuid.UUID
	StudentID    uuid.UUID
	EnrollmentID *uuid.UUID // set on tuition bills
	SchoolYear   int
	Description  string
	Amount       int64
	Discount     int64
	AmountPaid   int64
	Status       BillStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewBill creates an open bill discounted by the student's scholarship.
// A fully discounted bill starts out paid.
func NewBill(studentID uuid.UUID, schoolYear int, description string, amount int64, scholarshipPercent int) (*Bill, error) {
	description = strings.TrimSpace(description)
	switch {
	case description == "":
		return nil, ErrEmptyDescription
	case len(description) > 200:
		return nil, ErrDescriptionTooLong
	case amount <= 0:
		return nil, ErrNonPositiveAmount
	case scholarshipPercent < 0 || scholarshipPercent > 100:
		return nil, ErrInvalidScholarship
	case schoolYear < 2000 || schoolYear > 2100:
		return nil, ErrInvalidSchoolYear
	}

	now := time.Now()
	b := &Bill{
		ID:          uuid.New(),
		StudentID:   studentID,
		SchoolYear:  schoolYear,
		Description: description,
		Amount:      amount,
		Discount:    amount * int64(scholarshipPercent) / 100,
		Status:      BillOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if b.Outstanding() == 0 {
		b.Status = BillPaid
	}
	return b, nil
}

func (b *Bill) Outstanding() int64 {
	return b.Amount - b.Discount - b.AmountPaid
}

// ApplyPayment credits amount and reports whether the bill is now settled.
func (b *Bill) ApplyPayment(amount int64) (bool, error) {
	if b.Status == BillPaid {
		return false, ErrBillAlreadyPaid
	}
	if amount <= 0 {
		return false, ErrNonPositiveAmount
	}
	if amount > b.Outstanding() {
		return false, ErrOverpayment
	}
	b.AmountPaid += amount
	b.UpdatedAt = time.Now()
	if b.Outstanding() == 0 {
		b.Status = BillPaid
		return true, nil
	}
	return false, nil
}
