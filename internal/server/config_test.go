package server_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/server"
)

func validConfig() server.Config {
	return server.Config{
		DatabaseMaxConns:   10,
		DatabaseMinConns:   2,
		JWTIssuer:          "school-finance",
		JWTSigningKey:      "0123456789abcdef0123456789abcdef",
		JWTTokenTTL:        time.Hour,
		BusRequestTimeout:  5 * time.Second,
		RateLimitPerMinute: 60,
		ReportCacheTTL:     time.Minute,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *server.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *server.Config) {}},
		{name: "jwks only", mutate: func(c *server.Config) { c.JWTSigningKey = ""; c.JWKSEndpoint = "https://id.example/jwks.json" }},
		{name: "missing issuer", mutate: func(c *server.Config) { c.JWTIssuer = "" }, wantErr: "JWT_ISSUER is required"},
		{name: "no key source", mutate: func(c *server.Config) { c.JWTSigningKey = "" }, wantErr: "one of JWKS_ENDPOINT or JWT_SIGNING_KEY"},
		{name: "short signing key", mutate: func(c *server.Config) { c.JWTSigningKey = "short" }, wantErr: "at least 32 bytes"},
		{name: "zero bus timeout", mutate: func(c *server.Config) { c.BusRequestTimeout = 0 }, wantErr: "BUS_REQUEST_TIMEOUT"},
		{name: "negative rate limit", mutate: func(c *server.Config) { c.RateLimitPerMinute = -1 }, wantErr: "RATE_LIMIT_PER_MINUTE"},
		{name: "min above max connections", mutate: func(c *server.Config) { c.DatabaseMinConns = 20 }, wantErr: "DATABASE_MIN_CONNECTIONS"},
		{name: "redis without ttl", mutate: func(c *server.Config) { c.RedisURL = "redis://localhost:6379"; c.ReportCacheTTL = 0 }, wantErr: "REPORT_CACHE_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("BUS_REQUEST_TIMEOUT", "750ms")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("JOBS_ENABLED", "false")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")

	config, err := server.LoadConfig(logger.NewBootstrapLogger())
	require.NoError(t, err)

	assert.Equal(t, 750*time.Millisecond, config.BusRequestTimeout)
	assert.Equal(t, "redis://cache:6379/1", config.RedisURL)
	assert.False(t, config.JobsEnabled)
	assert.Equal(t, 30, config.RateLimitPerMinute)
	assert.Equal(t, "school-finance", config.JWTIssuer)
	assert.Equal(t, 12*time.Hour, config.JWTTokenTTL)
	assert.Equal(t, ":8080", config.ServerAddress)
	assert.Equal(t, 25, config.DatabaseMaxConns)
}

func TestLoadConfigRejectsMissingKeySource(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "")
	t.Setenv("JWKS_ENDPOINT", "")

	_, err := server.LoadConfig(logger.NewBootstrapLogger())
	assert.Error(t, err)
}
