package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/school-finance/backend/internal/adapters/auth"
	"github.com/philly/school-finance/backend/internal/platform/apperror"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/staff/domain"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

type mockLogger struct{}

func (mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (mockLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (mockLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (mockLogger) Error(ctx context.Context, msg string, args ...any) {}

func issueToken(t *testing.T, issuer string, ttl time.Duration, staff *domain.Staff) string {
	t.Helper()
	tokens, err := auth.NewHMACTokenIssuer([]byte(testSigningKey), issuer, ttl)
	require.NoError(t, err)
	signed, _, err := tokens.Issue(context.Background(), staff)
	require.NoError(t, err)
	return signed
}

func newJWT(t *testing.T) *JWTMiddleware {
	t.Helper()
	m, err := NewJWTMiddleware(context.Background(), JWTConfig{Issuer: "school-finance", SigningKey: testSigningKey})
	require.NoError(t, err)
	return m
}

func TestNewJWTMiddlewareRequiresKeySource(t *testing.T) {
	_, err := NewJWTMiddleware(context.Background(), JWTConfig{Issuer: "school-finance"})
	assert.ErrorIs(t, err, ErrNoKeySource)
}

func TestJWTMiddleware(t *testing.T) {
	staff := &domain.Staff{ID: uuid.New(), Email: "bursar@school.edu", Role: domain.RoleBursar}

	var gotSubject, gotEmail string
	handler := newJWT(t).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = GetJWTUserID(r.Context())
		gotEmail, _ = GetJWTUserEmail(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + issueToken(t, "school-finance", time.Hour, staff), http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"not a bearer token", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong issuer", "Bearer " + issueToken(t, "someone-else", time.Hour, staff), http.StatusUnauthorized},
		{"expired", "Bearer " + issueToken(t, "school-finance", -time.Hour, staff), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSubject, gotEmail = "", ""
			r := httptest.NewRequest(http.MethodGet, "/api/v1/staff", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, staff.ID.String(), gotSubject)
				assert.Equal(t, "bursar@school.edu", gotEmail)
			}
		})
	}
}

func TestAuthAdapterResolvesStaff(t *testing.T) {
	active := events.StaffMember{ID: uuid.New(), Email: "bursar@school.edu", Active: true}
	inactive := events.StaffMember{ID: uuid.New(), Email: "gone@school.edu", Active: false}

	bus := eventbus.NewBus(mockLogger{})
	coord := eventbus.NewCoordinator(bus, mockLogger{}, eventbus.CoordinatorConfig{DefaultTimeout: time.Second})
	eventbus.Respond(bus, events.StaffLookupExchange,
		func(ctx context.Context, req events.StaffLookupRequest) (events.StaffMember, error) {
			switch req.Email {
			case active.Email:
				return active, nil
			case inactive.Email:
				return inactive, nil
			}
			return events.StaffMember{}, apperror.New(apperror.CodeNotFound, apperror.BusinessCodeStaffNotFound, "staff member not found", http.StatusNotFound)
		})

	var gotID uuid.UUID
	handler := NewAuthAdapter(coord, mockLogger{}).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetUserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(email string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if email != "" {
			r = r.WithContext(context.WithValue(r.Context(), JWTUserEmailContextKey, email))
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, serve(active.Email))
	assert.Equal(t, active.ID, gotID)
	assert.Equal(t, http.StatusForbidden, serve(inactive.Email))
	assert.Equal(t, http.StatusUnauthorized, serve("stranger@school.edu"))
	assert.Equal(t, http.StatusUnauthorized, serve(""))
}
