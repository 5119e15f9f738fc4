package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/school-finance/backend/internal/adapters/auth"
	"github.com/philly/school-finance/backend/internal/adapters/rest"
	"github.com/philly/school-finance/backend/internal/adapters/rest/middleware"
	authzApp "github.com/philly/school-finance/backend/internal/authz/application"
	authzDomain "github.com/philly/school-finance/backend/internal/authz/domain"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/ownership"
	"github.com/philly/school-finance/backend/internal/server"
	staffDomain "github.com/philly/school-finance/backend/internal/staff/domain"
)

const testKey = "0123456789abcdef0123456789abcdef"

// newTestRouter wires the real middleware chain against a bus whose staff
// responders know a single member.
func newTestRouter(t *testing.T, member events.StaffMember, perMinute int) http.Handler {
	t.Helper()
	log := logger.Nop()
	bus := eventbus.NewBus(log)
	coord := eventbus.NewCoordinator(bus, log, eventbus.CoordinatorConfig{DefaultTimeout: time.Second})

	eventbus.Respond(bus, events.StaffLookupExchange, func(ctx context.Context, req events.StaffLookupRequest) (events.StaffMember, error) {
		return member, nil
	})
	eventbus.Respond(bus, events.StaffRoleExchange, func(ctx context.Context, req events.StaffRoleRequest) (events.StaffRole, error) {
		return events.StaffRole{StaffID: member.ID, Role: member.Role, Active: member.Active}, nil
	})

	jwtMW, err := middleware.NewJWTMiddleware(context.Background(), middleware.JWTConfig{Issuer: "school-finance", SigningKey: testKey})
	require.NoError(t, err)

	authzService := authzApp.NewAuthzService(coord, ownership.NewRegistry(), authzDomain.DefaultGrants(), log)
	base := rest.NewBaseHandler(log)
	handlers := server.Handlers{
		Health:       rest.NewHealthHandler(base, "test", rest.HealthChecks{}),
		Staff:        rest.NewStaffHandler(base, nil),
		Payroll:      rest.NewPayrollHandler(base, nil),
		Funds:        rest.NewFundsHandler(base, nil),
		Enrollment:   rest.NewEnrollmentHandler(base, nil),
		Billing:      rest.NewBillingHandler(base, nil),
		BalanceSheet: rest.NewBalanceSheetHandler(base, nil),
		Authz:        rest.NewAuthzHandler(base, authzService),
	}
	mws := server.Middlewares{
		JWT:         jwtMW,
		AuthAdapter: middleware.NewAuthAdapter(coord, log),
		Authz:       middleware.NewAuthorizationMiddleware(authzService, log),
		RateLimiter: middleware.NewRateLimiter(perMinute),
	}
	return server.NewRouter(handlers, mws, log)
}

func bearer(t *testing.T, member events.StaffMember) string {
	t.Helper()
	issuer, err := auth.NewHMACTokenIssuer([]byte(testKey), "school-finance", time.Hour)
	require.NoError(t, err)
	token, _, err := issuer.Issue(context.Background(), &staffDomain.Staff{
		ID:    member.ID,
		Email: member.Email,
		Role:  staffDomain.Role(member.Role),
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouterPublicEndpoints(t *testing.T) {
	router := newTestRouter(t, events.StaffMember{}, 0)

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterRequiresToken(t *testing.T) {
	router := newTestRouter(t, events.StaffMember{}, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/staff", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterEnforcesPermissions(t *testing.T) {
	teacher := events.StaffMember{ID: uuid.New(), Email: "t@school.test", Role: "teacher", Active: true}
	bursar := events.StaffMember{ID: uuid.New(), Email: "b@school.test", Role: "bursar", Active: true}

	t.Run("teacher cannot list staff", func(t *testing.T) {
		router := newTestRouter(t, teacher, 0)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/staff", nil)
		req.Header.Set("Authorization", bearer(t, teacher))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("bursar reaches the balance sheet handler", func(t *testing.T) {
		router := newTestRouter(t, bursar, 0)
		// no year: the handler itself rejects the request
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/balance-sheet", nil)
		req.Header.Set("Authorization", bearer(t, bursar))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("deactivated staff are refused", func(t *testing.T) {
		inactive := bursar
		inactive.Active = false
		router := newTestRouter(t, inactive, 0)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/balance-sheet?year=2025", nil)
		req.Header.Set("Authorization", bearer(t, inactive))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRouterListsOwnPermissions(t *testing.T) {
	teacher := events.StaffMember{ID: uuid.New(), Email: "t@school.test", Role: "teacher", Active: true}
	router := newTestRouter(t, teacher, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/permissions", nil)
	req.Header.Set("Authorization", bearer(t, teacher))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"funds:create"`)
	assert.NotContains(t, rec.Body.String(), `"staff:read"`)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/authz/roles", nil)
	req.Header.Set("Authorization", bearer(t, teacher))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouterRateLimitsLogin(t *testing.T) {
	router := newTestRouter(t, events.StaffMember{}, 60)

	var codes []int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`))
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{400, 400, 400, 400, 400, 429}, codes)
}
