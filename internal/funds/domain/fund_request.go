package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrTitleTooLong      = errors.New("title must not exceed 200 characters")
	ErrEmptyPurpose      = errors.New("purpose cannot be empty")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrNotPending        = errors.New("fund request is no longer pending")
	ErrNotApproved       = errors.New("fund request is not approved")
	ErrReviewNoteMissing = errors.New("a note is required when rejecting")
	ErrExceedsApproved   = errors.New("usage exceeds the approved amount")
	ErrEmptyDescription  = errors.New("description cannot be empty")
	ErrMissingSpentOn    = errors.New("spent-on date is required")
)

const MaxTitleLength = 200

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// FundRequest asks for money for a purpose. Amounts are in cents.
type FundRequest struct {
	ID          uuid.UUID
	RequesterID uuid.UUID
	Title       string
	Purpose     string
	Amount      int64
	Status      Status
	ReviewedBy  *uuid.UUID
	ReviewNote  string
	ReviewedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewFundRequest(requesterID uuid.UUID, title, purpose string, amount int64) (*FundRequest, error) {
	r := &FundRequest{
		ID:          uuid.New(),
		RequesterID: requesterID,
		Status:      StatusPending,
	}
	if err := r.setContent(title, purpose, amount); err != nil {
		return nil, err
	}
	r.CreatedAt = r.UpdatedAt
	return r, nil
}

// Update edits a pending request.
func (r *FundRequest) Update(title, purpose string, amount int64) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	return r.setContent(title, purpose, amount)
}

func (r *FundRequest) setContent(title, purpose string, amount int64) error {
	title = strings.TrimSpace(title)
	purpose = strings.TrimSpace(purpose)
	switch {
	case title == "":
		return ErrEmptyTitle
	case len(title) > MaxTitleLength:
		return ErrTitleTooLong
	case purpose == "":
		return ErrEmptyPurpose
	case amount <= 0:
		return ErrNonPositiveAmount
	}
	r.Title = title
	r.Purpose = purpose
	r.Amount = amount
	r.UpdatedAt = time.Now()
	return nil
}

func (r *FundRequest) Approve(reviewerID uuid.UUID, note string) error {
	return r.review(StatusApproved, reviewerID, note)
}

func (r *FundRequest) Reject(reviewerID uuid.UUID, note string) error {
	if strings.TrimSpace(note) == "" {
		return ErrReviewNoteMissing
	}
	return r.review(StatusRejected, reviewerID, note)
}

func (r *FundRequest) review(to Status, reviewerID uuid.UUID, note string) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	now := time.Now()
	r.Status = to
	r.ReviewedBy = &reviewerID
	r.ReviewNote = strings.TrimSpace(note)
	r.ReviewedAt = &now
	r.UpdatedAt = now
	return nil
}

// CheckSpend verifies that amount more can be spent given what is already used.
func (r *FundRequest) CheckSpend(used, amount int64) error {
	if r.Status != StatusApproved {
		return ErrNotApproved
	}
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	if used+amount > r.Amount {
		return ErrExceedsApproved
	}
	return nil
}

// FundUsage records money spent against an approved request.
type FundUsage struct {
	ID          uuid.UUID
	RequestID   uuid.UUID
	Amount      int64
	Description string
	SpentOn     time.Time
	RecordedBy  uuid.UUID
	CreatedAt   time.Time
}

func NewFundUsage(requestID, recordedBy uuid.UUID, amount int64, description string, spentOn time.Time) (*FundUsage, error) {
	description = strings.TrimSpace(description)
	switch {
	case amount <= 0:
		return nil, ErrNonPositiveAmount
	case description == "":
		return nil, ErrEmptyDescription
	case spentOn.IsZero():
		return nil, ErrMissingSpentOn
	}
	return &FundUsage{
		ID:          uuid.New(),
		RequestID:   requestID,
		Amount:      amount,
		Description: description,
		SpentOn:     spentOn.UTC(),
		RecordedBy:  recordedBy,
		CreatedAt:   time.Now(),
	}, nil
}
