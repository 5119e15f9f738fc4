package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/school-finance/backend/internal/balancesheet/domain"
)

func TestBuild(t *testing.T) {
	periods := []string{"2025-01", "2025-02", "2025-03"}
	sheet := domain.Build(2025, periods,
		map[string]int64{"2025-01": 50000, "2025-03": 20000},
		map[string]int64{"2025-01": 30000, "2025-02": 30000},
		map[string]int64{"2025-03": 5000},
	)

	require.Len(t, sheet.Lines, 3)
	assert.Equal(t, domain.Line{Period: "2025-01", Collections: 50000, Payroll: 30000, Net: 20000}, sheet.Lines[0])
	assert.Equal(t, int64(-30000), sheet.Lines[1].Net)
	assert.Equal(t, int64(15000), sheet.Lines[2].Net)
	assert.Equal(t, domain.Totals{Collections: 70000, Payroll: 60000, FundUsage: 5000, Net: 5000}, sheet.Totals)
}

func TestValidateYear(t *testing.T) {
	assert.NoError(t, domain.ValidateYear(2025))
	assert.ErrorIs(t, domain.ValidateYear(1999), domain.ErrInvalidYear)
	assert.ErrorIs(t, domain.ValidateYear(2101), domain.ErrInvalidYear)
}

func TestNewSnapshotCopiesSheet(t *testing.T) {
	sheet := domain.Build(2025, []string{"2025-01"}, nil, nil, nil)
	snap := domain.NewSnapshot(sheet, uuid.New())
	sheet.Year = 1

	assert.Equal(t, 2025, snap.Year)
	assert.Equal(t, 2025, snap.Sheet.Year)
}
