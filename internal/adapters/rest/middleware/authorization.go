package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/authz/application"
	"github.com/philly/school-finance/backend/internal/platform/logger"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserIDKey is the context key for the authenticated staff member's ID
	UserIDKey contextKey = "userID"

	// ResourceIDKey is the context key for the resource ID in ownership checks
	ResourceIDKey contextKey = "resourceID"

	// UserEmailKey is the context key for the authenticated staff member's email
	UserEmailKey contextKey = "userEmail"
)

// AuthorizationMiddleware provides permission-based authorization for HTTP handlers
type AuthorizationMiddleware struct {
	authzService *application.AuthzService
	logger       logger.Logger
}

func NewAuthorizationMiddleware(authzService *application.AuthzService, logger logger.Logger) *AuthorizationMiddleware {
	return &AuthorizationMiddleware{
		authzService: authzService,
		logger:       logger,
	}
}

// RequirePermission checks that the staff member holds a specific permission
func (m *AuthorizationMiddleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID, ok := GetUserID(ctx)
			if !ok {
				m.logger.Warn(ctx, "user ID not found in context")
				WriteJSONError(w, ErrorCodeUnauthorized, "Authentication required", http.StatusUnauthorized)
				return
			}

			hasPermission, err := m.authzService.HasPermission(ctx, userID, permission)
			if err != nil {
				m.logger.Error(ctx, "failed to check permission",
					"user_id", userID,
					"permission", permission,
					"error", err,
				)
				WriteJSONError(w, ErrorCodeInternalServerError, "Failed to check permissions", http.StatusInternalServerError)
				return
			}

			if !hasPermission {
				m.logger.Warn(ctx, "permission denied",
					"user_id", userID,
					"permission", permission,
				)
				WriteJSONError(w, ErrorCodeForbidden, "Insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyPermission checks that the staff member holds at least one of permissions
func (m *AuthorizationMiddleware) RequireAnyPermission(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID, ok := GetUserID(ctx)
			if !ok {
				m.logger.Warn(ctx, "user ID not found in context")
				WriteJSONError(w, ErrorCodeUnauthorized, "Authentication required", http.StatusUnauthorized)
				return
			}

			hasPermission, err := m.authzService.HasAnyPermission(ctx, userID, permissions)
			if err != nil {
				m.logger.Error(ctx, "failed to check permissions",
					"user_id", userID,
					"permissions", permissions,
					"error", err,
				)
				WriteJSONError(w, ErrorCodeInternalServerError, "Failed to check permissions", http.StatusInternalServerError)
				return
			}

			if !hasPermission {
				m.logger.Warn(ctx, "permission denied",
					"user_id", userID,
					"required_permissions", permissions,
				)
				WriteJSONError(w, ErrorCodeForbidden, "Insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireResourceAccess checks resource:action for the resource named by the
// URL parameter, honouring ":own" grants through the ownership registry.
func (m *AuthorizationMiddleware) RequireResourceAccess(resource, action, urlParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID, ok := GetUserID(ctx)
			if !ok {
				m.logger.Warn(ctx, "user ID not found in context")
				WriteJSONError(w, ErrorCodeUnauthorized, "Authentication required", http.StatusUnauthorized)
				return
			}

			resourceID, err := uuid.Parse(r.PathValue(urlParam))
			if err != nil {
				m.logger.Warn(ctx, "invalid resource ID",
					"param", urlParam,
					"error", err,
				)
				WriteJSONError(w, ErrorCodeValidationError, "Invalid request parameters", http.StatusBadRequest)
				return
			}

			allowed, err := m.authzService.Can(ctx, userID, resource, action, &resourceID)
			if err != nil {
				m.logger.Error(ctx, "failed to check resource permission",
					"user_id", userID,
					"resource_type", resource,
					"action", action,
					"resource_id", resourceID,
					"error", err,
				)
				WriteJSONError(w, ErrorCodeInternalServerError, "Failed to check permissions", http.StatusInternalServerError)
				return
			}

			if !allowed {
				m.logger.Warn(ctx, "resource permission denied",
					"user_id", userID,
					"resource_type", resource,
					"action", action,
					"resource_id", resourceID,
				)
				WriteJSONError(w, ErrorCodeForbidden, "Insufficient permissions", http.StatusForbidden)
				return
			}

			ctx = context.WithValue(ctx, ResourceIDKey, resourceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the authenticated staff ID from the request context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetResourceID returns the resource ID checked by RequireResourceAccess
func GetResourceID(ctx context.Context) (uuid.UUID, bool) {
	resourceID, ok := ctx.Value(ResourceIDKey).(uuid.UUID)
	return resourceID, ok
}

// SetUserID stores the authenticated staff ID in the request context
func SetUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
