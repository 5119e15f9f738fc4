package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONError(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		message string
		status  int
	}{
		{"unauthorized", ErrorCodeUnauthorized, "Authentication required", http.StatusUnauthorized},
		{"forbidden", ErrorCodeForbidden, "Insufficient permissions", http.StatusForbidden},
		{"expired token", ErrorCodeTokenExpired, "token has expired", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteJSONError(w, tt.code, tt.message, tt.status)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, map[string]any{"error": tt.code, "message": tt.message}, body)
		})
	}
}

func TestWriteJSONErrorWithDetails(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONErrorWithDetails(w, ErrorCodeRateLimited, "Too many requests", http.StatusTooManyRequests,
		map[string]any{"retry_after": 60})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "rate_limited", body["error"])
	assert.Equal(t, "Too many requests", body["message"])
	assert.Equal(t, float64(60), body["retry_after"])
}
