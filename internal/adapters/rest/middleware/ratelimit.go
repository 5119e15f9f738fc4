package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type RateLimitTier string

const (
	TierDefault RateLimitTier = "default"
	TierLogin   RateLimitTier = "login"
)

// loginRefill is the token refill interval on the login tier.
const loginRefill = 3 * time.Minute

type rateLimitKey string

const rateLimitTierKey rateLimitKey = "rateLimitTier"

// WithRateLimitTier switches the limiter tier for the routes it wraps. It must
// run before RateLimiter.Middleware in the chain.
func WithRateLimitTier(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), rateLimitTierKey, tier)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimiter keeps one token bucket per client address and tier.
type RateLimiter struct {
	perMinute  int
	loginBurst int

	mu       sync.Mutex
	limiters map[string]*limiterEntry
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per client; zero disables limiting.
// Login attempts get a burst of five refilled every three minutes.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		perMinute:  perMinute,
		loginBurst: 5,
		limiters:   make(map[string]*limiterEntry),
		now:        time.Now,
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.perMinute <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		tier := TierDefault
		if value, ok := r.Context().Value(rateLimitTierKey).(RateLimitTier); ok {
			tier = value
		}

		if !l.limiter(tier, clientKey(r)).Allow() {
			retryAfter := 60
			if tier == TierLogin {
				retryAfter = int(loginRefill.Seconds())
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			WriteJSONErrorWithDetails(w, ErrorCodeRateLimited, "Too many requests", http.StatusTooManyRequests,
				map[string]any{"retry_after": retryAfter})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) limiter(tier RateLimitTier, key string) *rate.Limiter {
	lookup := string(tier) + ":" + key

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.limiters[lookup]; ok {
		entry.lastSeen = l.now()
		return entry.limiter
	}

	var limiter *rate.Limiter
	if tier == TierLogin {
		limiter = rate.NewLimiter(rate.Every(loginRefill), l.loginBurst)
	} else {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
	}
	l.limiters[lookup] = &limiterEntry{limiter: limiter, lastSeen: l.now()}
	return limiter
}

// Cleanup drops buckets not used within ttl and returns how many were removed.
func (l *RateLimiter) Cleanup(ttl time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	now := l.now()
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > ttl {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}

// Run removes stale buckets every interval until ctx is done.
func (l *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Cleanup(15 * time.Minute)
		case <-ctx.Done():
			return
		}
	}
}

// clientKey uses the connection address. chi's RealIP middleware, mounted
// ahead of the limiter, rewrites RemoteAddr from trusted proxy headers.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
