package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/philly/school-finance/backend/internal/platform/logger"
)

type Config struct {
	DatabaseURL      string `mapstructure:"DATABASE_URL"`
	DatabaseMaxConns int    `mapstructure:"DATABASE_MAX_CONNECTIONS"`
	DatabaseMinConns int    `mapstructure:"DATABASE_MIN_CONNECTIONS"`
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	Environment   string `mapstructure:"ENVIRONMENT"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`   // debug, info, warn, error
	LogBackend    string `mapstructure:"LOG_BACKEND"` // slog or zerolog

	JWKSEndpoint  string        `mapstructure:"JWKS_ENDPOINT"` // optional external key set
	JWTIssuer     string        `mapstructure:"JWT_ISSUER"`
	JWTSigningKey string        `mapstructure:"JWT_SIGNING_KEY"` // HMAC key for tokens issued at login
	JWTTokenTTL   time.Duration `mapstructure:"JWT_TOKEN_TTL"`

	BusRequestTimeout time.Duration `mapstructure:"BUS_REQUEST_TIMEOUT"`

	RedisURL       string        `mapstructure:"REDIS_URL"` // empty disables the report cache
	ReportCacheTTL time.Duration `mapstructure:"REPORT_CACHE_TTL"`

	ResendAPIKey     string `mapstructure:"RESEND_API_KEY"` // empty logs receipts instead of sending
	ReceiptFromEmail string `mapstructure:"RECEIPT_FROM_EMAIL"`

	RateLimitPerMinute int `mapstructure:"RATE_LIMIT_PER_MINUTE"`

	TracingEnabled    bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter   string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint      string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRate float64 `mapstructure:"TRACING_SAMPLE_RATE"`

	JobsEnabled    bool   `mapstructure:"JOBS_ENABLED"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`
}

// configKeys lists every key so AutomaticEnv can see keys without a default.
var configKeys = []string{
	"DATABASE_URL", "DATABASE_MAX_CONNECTIONS", "DATABASE_MIN_CONNECTIONS", "SERVER_ADDRESS", "ENVIRONMENT", "LOG_LEVEL", "LOG_BACKEND",
	"JWKS_ENDPOINT", "JWT_ISSUER", "JWT_SIGNING_KEY", "JWT_TOKEN_TTL",
	"BUS_REQUEST_TIMEOUT", "REDIS_URL", "REPORT_CACHE_TTL",
	"RESEND_API_KEY", "RECEIPT_FROM_EMAIL", "RATE_LIMIT_PER_MINUTE",
	"TRACING_ENABLED", "TRACING_EXPORTER", "OTLP_ENDPOINT", "TRACING_SAMPLE_RATE",
	"JOBS_ENABLED", "MIGRATIONS_PATH",
}

func LoadConfig(bootstrapLogger *logger.BootstrapLogger) (Config, error) {
	ctx := context.Background()

	// A missing .env is fine; the environment alone is enough.
	if err := godotenv.Load(); err != nil {
		bootstrapLogger.Info(ctx, "no .env file found, using environment variables only")
	} else {
		bootstrapLogger.Info(ctx, "loaded .env file")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		bootstrapLogger.Error(ctx, "failed to unmarshal configuration", "error", err)
		return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	bootstrapLogger.Info(ctx, "configuration loaded",
		"environment", config.Environment,
		"log_level", config.LogLevel,
		"server_address", config.ServerAddress,
		"jobs_enabled", config.JobsEnabled,
		"report_cache", config.RedisURL != "",
	)

	if err := config.Validate(); err != nil {
		bootstrapLogger.Error(ctx, "configuration validation failed", "error", err)
		return Config{}, err
	}

	bootstrapLogger.Info(ctx, "configuration validated successfully")
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_URL", "postgresql://localhost:5432/schoolfinance?sslmode=disable")
	v.SetDefault("DATABASE_MAX_CONNECTIONS", 25)
	v.SetDefault("DATABASE_MIN_CONNECTIONS", 5)
	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_BACKEND", "slog")
	v.SetDefault("JWT_ISSUER", "school-finance")
	v.SetDefault("JWT_TOKEN_TTL", 12*time.Hour)
	v.SetDefault("BUS_REQUEST_TIMEOUT", 5*time.Second)
	v.SetDefault("REPORT_CACHE_TTL", 10*time.Minute)
	v.SetDefault("RECEIPT_FROM_EMAIL", "Bursar <bursar@school.local>")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("TRACING_SAMPLE_RATE", 1.0)
	v.SetDefault("JOBS_ENABLED", true)
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseMaxConns <= 0 || c.DatabaseMinConns < 0 || c.DatabaseMinConns > c.DatabaseMaxConns {
		errs = append(errs, errors.New("DATABASE_MIN_CONNECTIONS must be between 0 and DATABASE_MAX_CONNECTIONS, which must be positive"))
	}
	if c.JWTIssuer == "" {
		errs = append(errs, errors.New("JWT_ISSUER is required"))
	}
	if c.JWKSEndpoint == "" && c.JWTSigningKey == "" {
		errs = append(errs, errors.New("one of JWKS_ENDPOINT or JWT_SIGNING_KEY is required"))
	}
	if c.JWTSigningKey != "" && len(c.JWTSigningKey) < 32 {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be at least 32 bytes"))
	}
	if c.JWTTokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TOKEN_TTL must be positive"))
	}
	if c.BusRequestTimeout <= 0 {
		errs = append(errs, errors.New("BUS_REQUEST_TIMEOUT must be positive"))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must not be negative"))
	}
	if c.RedisURL != "" && c.ReportCacheTTL <= 0 {
		errs = append(errs, errors.New("REPORT_CACHE_TTL must be positive when REDIS_URL is set"))
	}
	return errors.Join(errs...)
}
