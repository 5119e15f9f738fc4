package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func requestFrom(addr string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/bills", nil)
	r.RemoteAddr = addr
	return r
}

func TestRateLimiterPerClient(t *testing.T) {
	handler := NewRateLimiter(2).Middleware(okHandler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1:5000"))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// another client has its own bucket
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.2:5000"))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimiterLoginTier(t *testing.T) {
	limiter := NewRateLimiter(1000)
	handler := WithRateLimitTier(TierLogin)(limiter.Middleware(okHandler()))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1:5000"))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:5000"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "180", w.Header().Get("Retry-After"))
}

func TestRateLimiterDisabled(t *testing.T) {
	handler := NewRateLimiter(0).Middleware(okHandler())
	for i := 0; i < 100; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1:5000"))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(10)
	limiter.now = func() time.Time { return now }

	limiter.limiter(TierDefault, "10.0.0.1")
	now = now.Add(10 * time.Minute)
	limiter.limiter(TierDefault, "10.0.0.2")
	now = now.Add(10 * time.Minute)

	assert.Equal(t, 1, limiter.Cleanup(15*time.Minute))
	assert.Equal(t, 0, limiter.Cleanup(15*time.Minute))
}
