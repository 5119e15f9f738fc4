package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/school-finance/backend/internal/funds/domain"
)

func TestNewFundRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		purpose string
		amount  int64
		want    error
	}{
		{"ok", "Lab supplies", "Chemistry lab", 50000, nil},
		{"empty title", " ", "Chemistry lab", 50000, domain.ErrEmptyTitle},
		{"empty purpose", "Lab supplies", "", 50000, domain.ErrEmptyPurpose},
		{"zero amount", "Lab supplies", "Chemistry lab", 0, domain.ErrNonPositiveAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := domain.NewFundRequest(uuid.New(), tt.title, tt.purpose, tt.amount)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.StatusPending, r.Status)
		})
	}
}

func TestFundRequestLifecycle(t *testing.T) {
	r, err := domain.NewFundRequest(uuid.New(), "Books", "Library refresh", 10000)
	require.NoError(t, err)

	assert.ErrorIs(t, r.CheckSpend(0, 100), domain.ErrNotApproved)
	require.NoError(t, r.Update("Books", "Library refresh", 12000))

	reviewer := uuid.New()
	require.NoError(t, r.Approve(reviewer, ""))
	assert.ErrorIs(t, r.Update("Books", "x", 1), domain.ErrNotPending)
	assert.ErrorIs(t, r.Reject(reviewer, "late"), domain.ErrNotPending)

	assert.NoError(t, r.CheckSpend(2000, 10000))
	assert.ErrorIs(t, r.CheckSpend(2001, 10000), domain.ErrExceedsApproved)
}

func TestRejectNeedsNote(t *testing.T) {
	r, err := domain.NewFundRequest(uuid.New(), "Books", "Library refresh", 10000)
	require.NoError(t, err)
	assert.ErrorIs(t, r.Reject(uuid.New(), "  "), domain.ErrReviewNoteMissing)
	require.NoError(t, r.Reject(uuid.New(), "no budget"))
	assert.Equal(t, domain.StatusRejected, r.Status)
}

func TestNewFundUsage(t *testing.T) {
	_, err := domain.NewFundUsage(uuid.New(), uuid.New(), 100, "", time.Now())
	assert.ErrorIs(t, err, domain.ErrEmptyDescription)
	_, err = domain.NewFundUsage(uuid.New(), uuid.New(), 100, "paper", time.Time{})
	assert.ErrorIs(t, err, domain.ErrMissingSpentOn)

	u, err := domain.NewFundUsage(uuid.New(), uuid.New(), 100, " paper ", time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "paper", u.Description)
}
