package server

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/resend/resend-go/v2"

	"github.com/philly/school-finance/backend/internal/adapters/auth"
	"github.com/philly/school-finance/backend/internal/adapters/email"
	"github.com/philly/school-finance/backend/internal/adapters/jobs"
	"github.com/philly/school-finance/backend/internal/adapters/redis"
	"github.com/philly/school-finance/backend/internal/adapters/rest"
	"github.com/philly/school-finance/backend/internal/adapters/rest/middleware"
	balanceApp "github.com/philly/school-finance/backend/internal/balancesheet/application"
	balancePorts "github.com/philly/school-finance/backend/internal/balancesheet/ports"
	billingApp "github.com/philly/school-finance/backend/internal/billing/application"
	enrollmentApp "github.com/philly/school-finance/backend/internal/enrollment/application"
	fundsApp "github.com/philly/school-finance/backend/internal/funds/application"
	fundsPorts "github.com/philly/school-finance/backend/internal/funds/ports"
	notificationsApp "github.com/philly/school-finance/backend/internal/notifications/application"
	notificationPorts "github.com/philly/school-finance/backend/internal/notifications/ports"
	payrollApp "github.com/philly/school-finance/backend/internal/payroll/application"
	payrollPorts "github.com/philly/school-finance/backend/internal/payroll/ports"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/metrics"
	"github.com/philly/school-finance/backend/internal/platform/ownership"
	"github.com/philly/school-finance/backend/internal/platform/telemetry"
	staffApp "github.com/philly/school-finance/backend/internal/staff/application"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

const serviceName = "school-finance-api"

func provideVersion() string {
	return Version
}

func provideLoggerConfig(config Config) logger.Config {
	return logger.Config{
		Environment: config.Environment,
		LogLevel:    config.LogLevel,
		Backend:     config.LogBackend,
	}
}

func provideCoordinatorConfig(config Config) eventbus.CoordinatorConfig {
	return eventbus.CoordinatorConfig{DefaultTimeout: config.BusRequestTimeout}
}

func provideJWTConfig(config Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		JWKS:       config.JWKSEndpoint,
		Issuer:     config.JWTIssuer,
		SigningKey: config.JWTSigningKey,
	}
}

func provideTokenConfig(config Config) auth.TokenConfig {
	return auth.TokenConfig{
		SigningKey: config.JWTSigningKey,
		Issuer:     config.JWTIssuer,
		TTL:        config.JWTTokenTTL,
	}
}

func provideRateLimitConfig(config Config) middleware.RateLimitConfig {
	return middleware.RateLimitConfig{PerMinute: config.RateLimitPerMinute}
}

// Telemetry marks tracing and metrics as initialised.
type Telemetry struct{}

func provideTelemetry(ctx context.Context, config Config, log logger.Logger) (Telemetry, func(), error) {
	metrics.Init(Version, config.Environment)

	shutdown, err := telemetry.InitTracing(ctx, telemetry.Config{
		Enabled:      config.TracingEnabled,
		Exporter:     config.TracingExporter,
		OTLPEndpoint: config.OTLPEndpoint,
		ServiceName:  serviceName,
		SampleRate:   config.TracingSampleRate,
	}, Version)
	if err != nil {
		return Telemetry{}, nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	cleanup := func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn(context.Background(), "tracing shutdown failed", "error", err)
		}
	}
	return Telemetry{}, cleanup, nil
}

// provideRedisClient returns nil when REDIS_URL is empty.
func provideRedisClient(ctx context.Context, config Config, log logger.Logger) (*goredis.Client, func(), error) {
	if config.RedisURL == "" {
		log.Info(ctx, "REDIS_URL not set, balance sheet cache disabled")
		return nil, func() {}, nil
	}
	client, cleanup, err := redis.Connect(ctx, config.RedisURL)
	if err != nil {
		log.Error(ctx, "failed to connect to redis", "error", err)
		return nil, nil, err
	}
	log.Info(ctx, "redis connection established")
	return client, cleanup, nil
}

func provideSheetCache(client *goredis.Client, config Config) balancePorts.SheetCache {
	if client == nil {
		return redis.NopSheetCache{}
	}
	return redis.NewBalanceSheetCache(client, config.ReportCacheTTL)
}

// provideReceiptSender sends through Resend when an API key is set and only
// logs receipts otherwise.
func provideReceiptSender(config Config, log logger.Logger) notificationPorts.ReceiptSender {
	if config.ResendAPIKey == "" {
		return email.NewLogReceiptSender(log)
	}
	return email.NewResendReceiptSender(resend.NewClient(config.ResendAPIKey), config.ReceiptFromEmail, log)
}

func provideHealthChecks(pool *pgxpool.Pool, client *goredis.Client) rest.HealthChecks {
	checks := rest.HealthChecks{
		"database": pool.Ping,
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}

// provideJobClient returns nil when JOBS_ENABLED is false.
func provideJobClient(config Config, pool *pgxpool.Pool, payroll *payrollApp.PayrollService, log logger.Logger) (JobClient, error) {
	if !config.JobsEnabled {
		return nil, nil
	}
	workers := jobs.NewWorkers(payroll, log)
	client, err := jobs.NewClient(pool, workers, logger.NewSlogLogger(config.Environment, config.LogLevel), jobs.NewPeriodicJobs())
	if err != nil {
		return nil, fmt.Errorf("failed to create job client: %w", err)
	}
	return client, nil
}

// BusSubscriptions marks every bus responder, subscriber and ownership
// checker as registered.
type BusSubscriptions struct{}

func registerBusSubscriptions(
	bus *eventbus.Bus,
	registry ownership.Registry,
	staff *staffApp.StaffService,
	payroll *payrollApp.PayrollService,
	payslips payrollPorts.PayslipRepository,
	funds *fundsApp.FundsService,
	fundRequests fundsPorts.FundRequestRepository,
	enrollment *enrollmentApp.EnrollmentService,
	billing *billingApp.BillingService,
	balance *balanceApp.BalanceSheetService,
	notifier *notificationsApp.ReceiptNotifier,
	log logger.Logger,
) (BusSubscriptions, error) {
	staffApp.RegisterStaffResponders(bus, staff)
	payrollApp.RegisterPayrollResponders(bus, payroll)
	payrollApp.RegisterPayrollOwnership(registry, payslips, log)
	fundsApp.RegisterFundsResponders(bus, funds)
	fundsApp.RegisterFundsOwnership(registry, fundRequests, log)
	enrollmentApp.RegisterEnrollmentHandlers(bus, enrollment)
	billingApp.RegisterBillingHandlers(bus, billing)
	balanceApp.RegisterBalanceSheetHandlers(bus, balance)
	notificationsApp.RegisterNotificationHandlers(bus, notifier)

	if err := ownership.Require(registry, "payroll", "funds"); err != nil {
		return BusSubscriptions{}, err
	}
	return BusSubscriptions{}, nil
}
