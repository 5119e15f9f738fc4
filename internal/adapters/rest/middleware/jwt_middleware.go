package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

var (
	ErrMissingToken   = errors.New("missing authentication token")
	ErrInvalidToken   = errors.New("invalid authentication token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrMissingSubject = errors.New("missing subject in token")
	ErrMissingEmail   = errors.New("missing email in token")
	ErrNoKeySource    = errors.New("either a JWKS endpoint or a signing key is required")
)

type jwtContextKey string

const (
	JWTUserIDContextKey    jwtContextKey = "jwt_user_id"
	JWTUserEmailContextKey jwtContextKey = "jwt_email"
)

// JWTMiddleware verifies bearer tokens. Keys come from a remote JWKS endpoint
// when one is configured, otherwise from the shared HMAC key that also signs
// our own login tokens.
type JWTMiddleware struct {
	jwksEndpoint string
	issuer       string
	cache        *jwk.Cache
	signingKey   []byte
}

func NewJWTMiddleware(ctx context.Context, cfg JWTConfig) (*JWTMiddleware, error) {
	m := &JWTMiddleware{issuer: cfg.Issuer}

	if cfg.JWKS == "" {
		if len(cfg.SigningKey) == 0 {
			return nil, ErrNoKeySource
		}
		m.signingKey = []byte(cfg.SigningKey)
		return m, nil
	}

	// Create a cache with automatic refresh
	cache, err := jwk.NewCache(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	if err := cache.Register(ctx, cfg.JWKS); err != nil {
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}

	// Perform initial fetch to validate the URL
	if _, err := cache.Lookup(ctx, cfg.JWKS); err != nil {
		return nil, fmt.Errorf("failed to fetch initial JWKS: %w", err)
	}

	m.jwksEndpoint = cfg.JWKS
	m.cache = cache
	return m, nil
}

func (m *JWTMiddleware) keyOption(ctx context.Context) (jwt.ParseOption, error) {
	if m.cache == nil {
		return jwt.WithKey(jwa.HS256(), m.signingKey), nil
	}
	keySet, err := m.cache.Lookup(ctx, m.jwksEndpoint)
	if err != nil {
		return nil, err
	}
	return jwt.WithKeySet(keySet), nil
}

func (m *JWTMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			WriteJSONError(w, ErrorCodeUnauthorized, ErrMissingToken.Error(), http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			WriteJSONError(w, ErrorCodeUnauthorized, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		keyOpt, err := m.keyOption(r.Context())
		if err != nil {
			WriteJSONError(w, ErrorCodeInternalServerError, "Failed to get JWKS", http.StatusInternalServerError)
			return
		}

		token, err := jwt.ParseString(
			tokenString,
			keyOpt,
			jwt.WithValidate(true),
			jwt.WithIssuer(m.issuer),
		)
		if err != nil {
			if err.Error() == "exp not satisfied" || strings.Contains(err.Error(), "expired") {
				WriteJSONError(w, ErrorCodeTokenExpired, ErrTokenExpired.Error(), http.StatusUnauthorized)
				return
			}
			WriteJSONError(w, ErrorCodeInvalidToken, ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}

		var subject string
		if err := token.Get("sub", &subject); err != nil || subject == "" {
			WriteJSONError(w, ErrorCodeInvalidToken, ErrMissingSubject.Error(), http.StatusUnauthorized)
			return
		}

		var email string
		if err := token.Get("email", &email); err != nil || email == "" {
			WriteJSONError(w, ErrorCodeInvalidToken, ErrMissingEmail.Error(), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), JWTUserIDContextKey, subject)
		ctx = context.WithValue(ctx, JWTUserEmailContextKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetJWTUserID extracts the token subject set by the JWT middleware
func GetJWTUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(JWTUserIDContextKey).(string)
	return userID, ok
}

// GetJWTUserEmail extracts the token email set by the JWT middleware
func GetJWTUserEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(JWTUserEmailContextKey).(string)
	return email, ok
}
