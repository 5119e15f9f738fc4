package middleware

import (
	"context"

	"github.com/google/wire"

	authzApp "github.com/philly/school-finance/backend/internal/authz/application"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/logger"
)

// ProviderSet is the wire provider set for middleware components
var ProviderSet = wire.NewSet(
	ProvideJWTMiddleware,
	ProvideAuthAdapter,
	ProvideAuthorizationMiddleware,
	ProvideRateLimiter,
)

// JWTConfig carries the settings needed to construct the JWT middleware.
// JWKS wins when both JWKS and SigningKey are set.
type JWTConfig struct {
	JWKS       string
	Issuer     string
	SigningKey string
}

// RateLimitConfig carries the per-client request budget
type RateLimitConfig struct {
	PerMinute int
}

func ProvideJWTMiddleware(ctx context.Context, cfg JWTConfig) (*JWTMiddleware, error) {
	return NewJWTMiddleware(ctx, cfg)
}

func ProvideAuthAdapter(coordinator *eventbus.Coordinator, log logger.Logger) *AuthAdapter {
	return NewAuthAdapter(coordinator, log)
}

func ProvideAuthorizationMiddleware(authzService *authzApp.AuthzService, log logger.Logger) *AuthorizationMiddleware {
	return NewAuthorizationMiddleware(authzService, log)
}

func ProvideRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return NewRateLimiter(cfg.PerMinute)
}
