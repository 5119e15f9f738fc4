package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/school-finance/backend/internal/adapters/rest"
	"github.com/philly/school-finance/backend/internal/adapters/rest/middleware"
	"github.com/philly/school-finance/backend/internal/platform/apperror"
)

// mockLogger implements the logger.Logger interface for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any) {}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteJSONError(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		statusCode int
	}{
		{name: "writes not found error", code: "not_found", message: "Resource not found", statusCode: http.StatusNotFound},
		{name: "writes validation error", code: "validation_error", message: "Invalid input", statusCode: http.StatusBadRequest},
		{name: "writes internal server error", code: "internal_server_error", message: "Something went wrong", statusCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := rest.NewBaseHandler(&mockLogger{})
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()

			handler.WriteJSONError(rec, req, tt.code, tt.message, tt.statusCode)

			assert.Equal(t, tt.statusCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			body := decodeBody(t, rec)
			assert.Equal(t, tt.code, body["error"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestWriteJSONResponse(t *testing.T) {
	handler := rest.NewBaseHandler(&mockLogger{})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	handler.WriteJSONResponse(rec, req, map[string]string{"status": "created"}, http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"created"}`, rec.Body.String())
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedError   string
		expectedBizCode string
		expectedContext string
	}{
		{
			name:            "handles AppError with business code",
			err:             apperror.New(apperror.CodeNotFound, apperror.BusinessCodeStaffNotFound, "staff member not found", http.StatusNotFound),
			expectedStatus:  http.StatusNotFound,
			expectedError:   "NOT_FOUND",
			expectedBizCode: "STAFF_NOT_FOUND",
		},
		{
			name: "handles AppError with details",
			err: apperror.New(apperror.CodeValidationFailed, apperror.BusinessCodeInvalidEmail, "invalid email format", http.StatusBadRequest).
				WithDetails(map[string]string{"field": "email"}),
			expectedStatus:  http.StatusBadRequest,
			expectedError:   "VALIDATION_FAILED",
			expectedBizCode: "INVALID_EMAIL",
			expectedContext: `{"field":"email"}`,
		},
		{
			name:           "handles unknown error as internal server error",
			err:            errors.New("unexpected error"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "INTERNAL_SERVER_ERROR",
		},
		{
			name: "handles wrapped AppError",
			err: apperror.Wrap(errors.New("database error"), apperror.CodeInternalError, apperror.BusinessCodeGeneral,
				"failed to fetch data", http.StatusInternalServerError),
			expectedStatus:  http.StatusInternalServerError,
			expectedError:   "INTERNAL_SERVER_ERROR",
			expectedBizCode: "GENERAL",
		},
		{
			name:            "keeps the status of a timed out request",
			err:             apperror.New(apperror.CodeTimeout, apperror.BusinessCodeRequestTimeout, "request timed out", http.StatusGatewayTimeout),
			expectedStatus:  http.StatusGatewayTimeout,
			expectedError:   "TIMEOUT",
			expectedBizCode: "REQUEST_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := rest.NewBaseHandler(&mockLogger{})
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()

			handler.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.expectedError, body["error"])
			if tt.expectedBizCode != "" {
				assert.Equal(t, tt.expectedBizCode, body["business_code"])
			}
			if tt.expectedContext != "" {
				raw, err := json.Marshal(body["context"])
				require.NoError(t, err)
				assert.JSONEq(t, tt.expectedContext, string(raw))
			}
		})
	}
}

func TestParseUUID(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		paramName   string
		expectValid bool
		expectUUID  uuid.UUID
	}{
		{
			name:        "parses valid UUID",
			value:       "550e8400-e29b-41d4-a716-446655440000",
			paramName:   "staff_id",
			expectValid: true,
			expectUUID:  uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		},
		{name: "rejects invalid UUID", value: "not-a-uuid", paramName: "bill_id"},
		{name: "rejects empty string", value: "", paramName: "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := rest.NewBaseHandler(&mockLogger{})
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()

			result, valid := handler.ParseUUID(rec, req, tt.value, tt.paramName)

			assert.Equal(t, tt.expectValid, valid)
			assert.Equal(t, tt.expectUUID, result)
			if !tt.expectValid {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				body := decodeBody(t, rec)
				assert.Equal(t, "invalid_request", body["error"])
				assert.Equal(t, "Invalid "+tt.paramName, body["message"])
			}
		})
	}
}

func TestPathInt(t *testing.T) {
	handler := rest.NewBaseHandler(&mockLogger{})

	var got int
	var ok bool
	router := chi.NewRouter()
	router.Get("/snapshots/{year}", func(w http.ResponseWriter, r *http.Request) {
		ok = handler.PathInt(w, r, "year", &got)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshots/2025", nil))
	assert.True(t, ok)
	assert.Equal(t, 2025, got)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshots/last", nil))
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryInt(t *testing.T) {
	handler := rest.NewBaseHandler(&mockLogger{})

	t.Run("binds present value", func(t *testing.T) {
		rec := httptest.NewRecorder()
		var year int
		ok := handler.QueryInt(rec, httptest.NewRequest(http.MethodGet, "/x?year=2024", nil), "year", true, &year)
		assert.True(t, ok)
		assert.Equal(t, 2024, year)
	})

	t.Run("missing optional keeps default", func(t *testing.T) {
		rec := httptest.NewRecorder()
		limit := 20
		ok := handler.QueryInt(rec, httptest.NewRequest(http.MethodGet, "/x", nil), "limit", false, &limit)
		assert.True(t, ok)
		assert.Equal(t, 20, limit)
	})

	t.Run("missing required is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		var year int
		ok := handler.QueryInt(rec, httptest.NewRequest(http.MethodGet, "/x", nil), "year", true, &year)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDecodeAndValidate(t *testing.T) {
	type payload struct {
		Name  string `json:"name" validate:"required"`
		Count int    `json:"count" validate:"gte=1"`
	}
	handler := rest.NewBaseHandler(&mockLogger{})

	t.Run("accepts a valid body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"books","count":2}`))
		var dst payload
		require.True(t, handler.DecodeAndValidate(rec, req, &dst))
		assert.Equal(t, payload{Name: "books", Count: 2}, dst)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"books","count":2,"extra":true}`))
		var dst payload
		assert.False(t, handler.DecodeAndValidate(rec, req, &dst))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation_error", decodeBody(t, rec)["error"])
	})

	t.Run("reports validation failures", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"","count":0}`))
		var dst payload
		assert.False(t, handler.DecodeAndValidate(rec, req, &dst))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", decodeBody(t, rec)["error"])
	})
}

func TestGetUserIDFromContext(t *testing.T) {
	handler := rest.NewBaseHandler(&mockLogger{})

	t.Run("retrieves user ID from context", func(t *testing.T) {
		userID := uuid.New()
		ctx := middleware.SetUserID(context.Background(), userID)
		req := httptest.NewRequest(http.MethodGet, "/test", nil).WithContext(ctx)
		assert.Equal(t, userID, handler.GetUserIDFromContext(req))
	})

	t.Run("panics when user ID not in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		assert.Panics(t, func() { handler.GetUserIDFromContext(req) })
	})
}
