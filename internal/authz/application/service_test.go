package application_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/school-finance/backend/internal/authz/application"
	"github.com/philly/school-finance/backend/internal/authz/domain"
	"github.com/philly/school-finance/backend/internal/authz/permission"
	"github.com/philly/school-finance/backend/internal/platform/apperror"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/platform/ownership"
)

type mockLogger struct{}

func (mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (mockLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (mockLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (mockLogger) Error(ctx context.Context, msg string, args ...any) {}

type ownerChecker struct {
	owners map[uuid.UUID]uuid.UUID
}

func (c ownerChecker) CheckOwnership(ctx context.Context, staffID, resourceID uuid.UUID) (bool, error) {
	return c.owners[resourceID] == staffID, nil
}

type fixture struct {
	svc      *application.AuthzService
	admin    uuid.UUID
	teacher  uuid.UUID
	inactive uuid.UUID
	ownedReq uuid.UUID
}

func setup(t *testing.T) fixture {
	t.Helper()
	f := fixture{admin: uuid.New(), teacher: uuid.New(), inactive: uuid.New(), ownedReq: uuid.New()}

	roles := map[uuid.UUID]events.StaffRole{
		f.admin:    {StaffID: f.admin, Role: "admin", Active: true},
		f.teacher:  {StaffID: f.teacher, Role: "teacher", Active: true},
		f.inactive: {StaffID: f.inactive, Role: "admin", Active: false},
	}

	bus := eventbus.NewBus(mockLogger{})
	eventbus.Respond(bus, events.StaffRoleExchange, func(ctx context.Context, req events.StaffRoleRequest) (events.StaffRole, error) {
		r, ok := roles[req.StaffID]
		if !ok {
			return events.StaffRole{}, apperror.New(apperror.CodeNotFound, apperror.BusinessCodeStaffNotFound, "staff member not found", http.StatusNotFound)
		}
		return r, nil
	})

	registry := ownership.NewRegistry()
	registry.RegisterChecker("funds", ownerChecker{owners: map[uuid.UUID]uuid.UUID{f.ownedReq: f.teacher}})

	coord := eventbus.NewCoordinator(bus, mockLogger{}, eventbus.CoordinatorConfig{DefaultTimeout: time.Second})
	f.svc = application.NewAuthzService(coord, registry, domain.DefaultGrants(), mockLogger{})
	return f
}

func TestHasPermission(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		staffID uuid.UUID
		perm    string
		want    bool
	}{
		{"admin can create staff", f.admin, permission.StaffCreate, true},
		{"teacher cannot approve funds", f.teacher, permission.FundsApprove, false},
		{"teacher can submit funds", f.teacher, permission.FundsCreate, true},
		{"inactive staff has nothing", f.inactive, permission.StaffRead, false},
		{"unknown staff has nothing", uuid.New(), permission.StaffRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.HasPermission(ctx, tt.staffID, tt.perm)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := f.svc.HasPermission(ctx, f.admin, "posts:create")
	assert.ErrorIs(t, err, application.ErrInvalidPermission)
}

func TestCanUsesOwnership(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := uuid.New()

	ok, err := f.svc.Can(ctx, f.teacher, "funds", "update", &f.ownedReq)
	require.NoError(t, err)
	assert.True(t, ok, "teacher owns the request")

	ok, err = f.svc.Can(ctx, f.teacher, "funds", "update", &other)
	require.NoError(t, err)
	assert.False(t, ok, "teacher does not own the request")

	ok, err = f.svc.Can(ctx, f.admin, "funds", "update", &other)
	require.NoError(t, err)
	assert.True(t, ok, "admin holds funds:update:any")

	ok, err = f.svc.Can(ctx, f.teacher, "funds", "update", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.Can(ctx, f.admin, "funds", "approve", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.Can(ctx, f.admin, "funds", "delete", nil)
	assert.ErrorIs(t, err, application.ErrInvalidPermission)
}

func TestRolesAndPermissionLists(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ok, err := f.svc.HasRole(ctx, f.teacher, "teacher")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.HasAnyPermission(ctx, f.teacher, []string{permission.FundsApprove, permission.FundsCreate})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.HasAllPermissions(ctx, f.teacher, []string{permission.FundsApprove, permission.FundsCreate})
	require.NoError(t, err)
	assert.False(t, ok)

	perms, err := f.svc.GetStaffPermissions(ctx, f.inactive)
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestRoleGrants(t *testing.T) {
	f := setup(t)

	grants := f.svc.RoleGrants()
	require.Len(t, grants, 4)
	assert.Contains(t, grants["bursar"], permission.ReportsClose)
	assert.NotContains(t, grants["teacher"], permission.StaffRead)
	assert.Len(t, grants["admin"], len(permission.All()))
}
