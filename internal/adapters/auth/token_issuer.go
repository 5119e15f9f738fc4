package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/philly/school-finance/backend/internal/staff/domain"
)

var ErrEmptySigningKey = errors.New("jwt signing key is empty")

// RoleClaim carries the staff role so clients can shape their UI. Authorization
// never trusts it and asks the staff context instead.
const RoleClaim = "role"

// HMACTokenIssuer signs HS256 access tokens for staff logins.
type HMACTokenIssuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewHMACTokenIssuer(key []byte, issuer string, ttl time.Duration) (*HMACTokenIssuer, error) {
	if len(key) == 0 {
		return nil, ErrEmptySigningKey
	}
	return &HMACTokenIssuer{key: key, issuer: issuer, ttl: ttl, now: time.Now}, nil
}

func (i *HMACTokenIssuer) Issue(ctx context.Context, staff *domain.Staff) (string, time.Time, error) {
	now := i.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(i.ttl)

	token, err := jwt.NewBuilder().
		Issuer(i.issuer).
		Subject(staff.ID.String()).
		IssuedAt(now).
		Expiration(expiresAt).
		Claim("email", staff.Email).
		Claim(RoleClaim, string(staff.Role)).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), i.key))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), expiresAt, nil
}
