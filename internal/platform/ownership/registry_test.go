package ownership_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/school-finance/backend/internal/platform/ownership"
)

func TestRegistryDispatchesByResourceType(t *testing.T) {
	owner, resource := uuid.New(), uuid.New()
	reg := ownership.NewRegistry()
	reg.RegisterChecker("funds", ownership.CheckerFunc(func(ctx context.Context, staffID, resourceID uuid.UUID) (bool, error) {
		return staffID == owner && resourceID == resource, nil
	}))

	ok, err := reg.CheckOwnership(context.Background(), owner, "funds", resource)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reg.CheckOwnership(context.Background(), uuid.New(), "funds", resource)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = reg.CheckOwnership(context.Background(), owner, "payroll", resource)
	assert.ErrorIs(t, err, ownership.ErrNoChecker)
}

func TestRequireReportsMissingCheckers(t *testing.T) {
	reg := ownership.NewRegistry()
	reg.RegisterChecker("payroll", ownership.CheckerFunc(func(ctx context.Context, staffID, resourceID uuid.UUID) (bool, error) {
		return true, nil
	}))

	assert.NoError(t, ownership.Require(reg, "payroll"))
	assert.Equal(t, []string{"payroll"}, reg.Resources())

	err := ownership.Require(reg, "payroll", "funds", "bills")
	require.ErrorIs(t, err, ownership.ErrNoChecker)
	assert.Contains(t, err.Error(), "funds")
	assert.Contains(t, err.Error(), "bills")
}
