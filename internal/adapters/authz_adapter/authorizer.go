package authz_adapter

import (
	"context"

	"github.com/google/uuid"

	authzApp "github.com/philly/school-finance/backend/internal/authz/application"
	fundsPorts "github.com/philly/school-finance/backend/internal/funds/ports"
)

// AuthzAdapter bridges the authz service to the bounded contexts that run
// ownership-aware checks inside their own services.
type AuthzAdapter struct {
	authzService *authzApp.AuthzService
}

// NewAuthzAdapter creates a new authorization adapter
func NewAuthzAdapter(authzService *authzApp.AuthzService) *AuthzAdapter {
	return &AuthzAdapter{
		authzService: authzService,
	}
}

// Can checks whether a staff member may perform action on a resource,
// resolving :own permissions through the ownership registry.
func (a *AuthzAdapter) Can(ctx context.Context, staffID uuid.UUID, resource string, action string, resourceID *uuid.UUID) (bool, error) {
	return a.authzService.Can(ctx, staffID, resource, action, resourceID)
}

var _ fundsPorts.Authorizer = (*AuthzAdapter)(nil)
