package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/wire"

	"github.com/philly/school-finance/backend/internal/staff/domain"
	"github.com/philly/school-finance/backend/internal/staff/ports"
)

// ProviderSet is the wire provider set for token issuing
var ProviderSet = wire.NewSet(
	ProvideTokenIssuer,
)

// TokenConfig carries the settings for tokens issued at login.
type TokenConfig struct {
	SigningKey string
	Issuer     string
	TTL        time.Duration
}

// ErrExternalIdentity is returned by logins when tokens come from an external
// identity provider configured through JWKS.
var ErrExternalIdentity = errors.New("login tokens are issued by the external identity provider")

// ProvideTokenIssuer returns the HMAC issuer, or an issuer that refuses every
// login when no signing key is configured.
func ProvideTokenIssuer(cfg TokenConfig) (ports.TokenIssuer, error) {
	if cfg.SigningKey == "" {
		return externalTokenIssuer{}, nil
	}
	return NewHMACTokenIssuer([]byte(cfg.SigningKey), cfg.Issuer, cfg.TTL)
}

type externalTokenIssuer struct{}

func (externalTokenIssuer) Issue(ctx context.Context, staff *domain.Staff) (string, time.Time, error) {
	return "", time.Time{}, ErrExternalIdentity
}
