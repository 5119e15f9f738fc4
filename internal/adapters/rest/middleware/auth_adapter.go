package middleware

import (
	"context"
	"net/http"

	"github.com/philly/school-finance/backend/internal/platform/apperror"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/platform/logger"
)

// AuthAdapter resolves the verified token email to a staff member through the
// staff context and stores the internal staff ID in the request context.
// Tokens from an external identity provider carry a foreign subject, so the
// email is the key both token sources share.
//
// NOTE: this is one bus round trip per authenticated request. The staff
// responder is a single indexed lookup.
type AuthAdapter struct {
	coordinator *eventbus.Coordinator
	logger      logger.Logger
}

func NewAuthAdapter(coordinator *eventbus.Coordinator, logger logger.Logger) *AuthAdapter {
	return &AuthAdapter{
		coordinator: coordinator,
		logger:      logger,
	}
}

// Middleware must be placed AFTER the JWT middleware and BEFORE authorization middleware
func (a *AuthAdapter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		email, ok := GetJWTUserEmail(ctx)
		if !ok {
			a.logger.Warn(ctx, "email not found in context")
			WriteJSONError(w, ErrorCodeUnauthorized, "Authentication required", http.StatusUnauthorized)
			return
		}

		member, err := eventbus.Request[events.StaffMember](ctx, a.coordinator, eventbus.Call{
			Exchange: events.StaffLookupExchange,
			Payload:  events.StaffLookupRequest{Email: email},
		})
		if err != nil {
			if apperror.StatusOf(err) == http.StatusNotFound {
				WriteJSONError(w, ErrorCodeUnauthorized, "Staff account not found", http.StatusUnauthorized)
				return
			}
			a.logger.Error(ctx, "failed to resolve staff member", "error", err)
			WriteJSONError(w, ErrorCodeInternalServerError, "Failed to resolve staff account", http.StatusInternalServerError)
			return
		}
		if !member.Active {
			WriteJSONError(w, ErrorCodeForbidden, "Staff account is inactive", http.StatusForbidden)
			return
		}

		ctx = SetUserID(ctx, member.ID)
		ctx = context.WithValue(ctx, UserEmailKey, member.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserEmail is a helper to get the staff email from context
func GetUserEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}
