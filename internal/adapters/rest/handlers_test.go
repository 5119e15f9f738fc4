package rest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/school-finance/backend/internal/adapters/auth"
	"github.com/philly/school-finance/backend/internal/adapters/rest"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/staff/application"
	"github.com/philly/school-finance/backend/internal/staff/domain"
	"github.com/philly/school-finance/backend/internal/staff/ports"
)

type memoryStaffRepo struct {
	mu    sync.Mutex
	staff map[uuid.UUID]*domain.Staff
}

func newMemoryStaffRepo() *memoryStaffRepo {
	return &memoryStaffRepo{staff: map[uuid.UUID]*domain.Staff{}}
}

func (m *memoryStaffRepo) Create(ctx context.Context, s *domain.Staff) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff[s.ID] = s
	return nil
}

func (m *memoryStaffRepo) Update(ctx context.Context, s *domain.Staff) error {
	return m.Create(ctx, s)
}

func (m *memoryStaffRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.staff[id]; ok {
		return s, nil
	}
	return nil, ports.ErrStaffNotFound
}

func (m *memoryStaffRepo) FindByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.staff {
		if s.Email == email {
			return s, nil
		}
	}
	return nil, ports.ErrStaffNotFound
}

func (m *memoryStaffRepo) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Staff, 0, len(m.staff))
	for _, s := range m.staff {
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryStaffRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	if errors.Is(err, ports.ErrStaffNotFound) {
		return false, nil
	}
	return err == nil, err
}

func newStaffRouter(t *testing.T) (*chi.Mux, *application.StaffService) {
	t.Helper()
	issuer, err := auth.NewHMACTokenIssuer([]byte("handler-test-key"), "school-finance", time.Hour)
	require.NoError(t, err)

	service := application.NewStaffService(newMemoryStaffRepo(), issuer, eventbus.NewBus(&mockLogger{}), &mockLogger{})
	handler := rest.NewStaffHandler(rest.NewBaseHandler(&mockLogger{}), service)

	router := chi.NewRouter()
	router.Post("/auth/login", handler.Login)
	router.Post("/staff", handler.CreateStaff)
	router.Get("/staff/{id}", handler.GetStaff)
	return router, service
}

func TestStaffHandlerLogin(t *testing.T) {
	router, service := newStaffRouter(t)
	_, err := service.CreateStaff(context.Background(), application.CreateStaffParams{
		Email:         "bursar@school.test",
		FullName:      "Ada Bursar",
		Role:          "bursar",
		MonthlySalary: 300000,
		Password:      "correct-horse",
	})
	require.NoError(t, err)

	t.Run("valid credentials return a token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"email":"bursar@school.test","password":"correct-horse"}`
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody(t, rec)
		assert.NotEmpty(t, resp["token"])
		staff, ok := resp["staff"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "bursar", staff["role"])
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"email":"bursar@school.test","password":"wrong-horse"}`
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeBody(t, rec)["business_code"])
	})

	t.Run("malformed email fails validation", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"email":"nope","password":"x"}`
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStaffHandlerCreateAndGet(t *testing.T) {
	router, _ := newStaffRouter(t)

	rec := httptest.NewRecorder()
	body := `{"email":"Teacher@School.test","fullName":"Tom Teacher","role":"teacher","monthlySalary":250000,"password":"long-enough"}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/staff", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decodeBody(t, rec)
	id, ok := created["id"].(string)
	require.True(t, ok)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/staff/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tom Teacher", decodeBody(t, rec)["fullName"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/staff/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/staff/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaffHandlerRejectsUnknownRole(t *testing.T) {
	router, _ := newStaffRouter(t)

	rec := httptest.NewRecorder()
	body := `{"email":"x@school.test","fullName":"X","role":"janitor","password":"long-enough"}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/staff", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeBody(t, rec)["error"])
}

func TestHealthHandler(t *testing.T) {
	base := rest.NewBaseHandler(&mockLogger{})

	t.Run("liveness is always healthy", func(t *testing.T) {
		handler := rest.NewHealthHandler(base, "v1.2.3", nil)
		rec := httptest.NewRecorder()
		handler.GetLiveness(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "v1.2.3", body["version"])
	})

	t.Run("readiness reports each check", func(t *testing.T) {
		handler := rest.NewHealthHandler(base, "v1", rest.HealthChecks{
			"database": func(ctx context.Context) error { return nil },
			"cache":    func(ctx context.Context) error { return errors.New("connection refused") },
		})
		rec := httptest.NewRecorder()
		handler.GetReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "unhealthy", body["status"])
		assert.Equal(t, map[string]any{"database": "up", "cache": "down"}, body["checks"])
	})

	t.Run("readiness without checks is degraded", func(t *testing.T) {
		handler := rest.NewHealthHandler(base, "v1", rest.HealthChecks{})
		rec := httptest.NewRecorder()
		handler.GetReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "degraded", decodeBody(t, rec)["status"])
	})
}

func TestEnrollmentHandlerValidatesBeforeCallingService(t *testing.T) {
	handler := rest.NewEnrollmentHandler(rest.NewBaseHandler(&mockLogger{}), nil)

	rec := httptest.NewRecorder()
	body := `{"firstName":"","lastName":"Doe","scholarshipPercent":150}`
	handler.RegisterStudent(rec, httptest.NewRequest(http.MethodPost, "/students", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_FORMAT", decodeBody(t, rec)["business_code"])
}

func TestBalanceSheetHandlerRequiresYear(t *testing.T) {
	handler := rest.NewBalanceSheetHandler(rest.NewBaseHandler(&mockLogger{}), nil)

	rec := httptest.NewRecorder()
	handler.Generate(rec, httptest.NewRequest(http.MethodGet, "/reports/balance-sheet", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeBody(t, rec)["error"])
}
