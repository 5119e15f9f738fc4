package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/school-finance/backend/internal/billing/domain"
)

func TestNewBillAppliesScholarship(t *testing.T) {
	b, err := domain.NewBill(uuid.New(), 2025, "Tuition", 100000, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), b.Discount)
	assert.Equal(t, int64(75000), b.Outstanding())
	assert.Equal(t, domain.BillOpen, b.Status)

	full, err := domain.NewBill(uuid.New(), 2025, "Tuition", 100000, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.BillPaid, full.Status)
}

func TestNewBillValidation(t *testing.T) {
	_, err := domain.NewBill(uuid.New(), 2025, " ", 100, 0)
	assert.ErrorIs(t, err, domain.ErrEmptyDescription)
	_, err = domain.NewBill(uuid.New(), 2025, "Books", 0, 0)
	assert.ErrorIs(t, err, domain.ErrNonPositiveAmount)
	_, err = domain.NewBill(uuid.New(), 2025, "Books", 100, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidScholarship)
}

func TestApplyPayment(t *testing.T) {
	b, err := domain.NewBill(uuid.New(), 2025, "Tuition", 1000, 0)
	require.NoError(t, err)

	settled, err := b.ApplyPayment(400)
	require.NoError(t, err)
	assert.False(t, settled)

	_, err = b.ApplyPayment(601)
	assert.ErrorIs(t, err, domain.ErrOverpayment)

	settled, err = b.ApplyPayment(600)
	require.NoError(t, err)
	assert.True(t, settled)
	assert.Equal(t, domain.BillPaid, b.Status)

	_, err = b.ApplyPayment(1)
	assert.ErrorIs(t, err, domain.ErrBillAlreadyPaid)
}

func TestPayment(t *testing.T) {
	_, err := domain.ParsePaymentMethod("bitcoin")
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentMethod)

	m, err := domain.ParsePaymentMethod(" Bank_Transfer ")
	require.NoError(t, err)

	p, err := domain.NewPayment(uuid.New(), uuid.New(), 500, m, "ref-1", time.Now())
	require.NoError(t, err)
	require.NoError(t, p.Approve(uuid.New()))
	assert.ErrorIs(t, p.Approve(uuid.New()), domain.ErrPaymentNotPending)

	_, err = domain.NewPayment(uuid.New(), uuid.New(), 500, m, "", time.Time{})
	assert.ErrorIs(t, err, domain.ErrMissingPaymentDate)
}

func TestNewFeeSchedule(t *testing.T) {
	_, err := domain.NewFeeSchedule(13, 2025, 100)
	assert.ErrorIs(t, err, domain.ErrInvalidGradeLevel)
	_, err = domain.NewFeeSchedule(3, 2025, -1)
	assert.ErrorIs(t, err, domain.ErrNegativeTuition)
}
