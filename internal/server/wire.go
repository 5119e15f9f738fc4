//go:build wireinject
// +build wireinject

package server

import (
	"context"

	"github.com/google/wire"

	"github.com/philly/school-finance/backend/internal/adapters/auth"
	"github.com/philly/school-finance/backend/internal/adapters/authz_adapter"
	"github.com/philly/school-finance/backend/internal/adapters/postgres"
	"github.com/philly/school-finance/backend/internal/adapters/rest"
	"github.com/philly/school-finance/backend/internal/adapters/rest/middleware"
	authzApp "github.com/philly/school-finance/backend/internal/authz/application"
	balanceApp "github.com/philly/school-finance/backend/internal/balancesheet/application"
	billingApp "github.com/philly/school-finance/backend/internal/billing/application"
	enrollmentApp "github.com/philly/school-finance/backend/internal/enrollment/application"
	fundsApp "github.com/philly/school-finance/backend/internal/funds/application"
	notificationsApp "github.com/philly/school-finance/backend/internal/notifications/application"
	payrollApp "github.com/philly/school-finance/backend/internal/payroll/application"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/ownership"
	platformPostgres "github.com/philly/school-finance/backend/internal/platform/postgres"
	staffApp "github.com/philly/school-finance/backend/internal/staff/application"
)

// InitializeApp creates a fully configured App with all dependencies
func InitializeApp(ctx context.Context) (*App, func(), error) {
	wire.Build(
		// Bootstrap phase
		logger.NewBootstrapLogger,
		LoadConfig,

		// Logger
		provideLoggerConfig,
		logger.NewConfiguredLogger,

		// Infrastructure
		ConnectDatabase,
		platformPostgres.NewTransactionManager,
		provideRedisClient,
		provideSheetCache,
		provideReceiptSender,
		provideTelemetry,

		// Event bus
		provideCoordinatorConfig,
		eventbus.ProviderSet,

		// Repositories
		postgres.ProviderSet,

		// Platform services
		ownership.ProviderSet,
		authzApp.ProviderSet,
		authz_adapter.ProviderSet,
		provideTokenConfig,
		auth.ProviderSet,

		// Bounded contexts
		staffApp.ProviderSet,
		payrollApp.ProviderSet,
		fundsApp.ProviderSet,
		enrollmentApp.ProviderSet,
		billingApp.ProviderSet,
		balanceApp.ProviderSet,
		notificationsApp.ProviderSet,
		registerBusSubscriptions,

		// Background jobs
		provideJobClient,

		// REST handlers
		rest.ProviderSet,
		provideVersion,
		provideHealthChecks,
		rest.NewHealthHandler,
		wire.Struct(new(Handlers), "*"),

		// Middleware
		provideJWTConfig,
		provideRateLimitConfig,
		middleware.ProviderSet,
		wire.Struct(new(Middlewares), "*"),

		// HTTP server and app
		NewHTTPServer,
		NewApp,
	)

	return nil, nil, nil
}
