package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/authz/domain"
	"github.com/philly/school-finance/backend/internal/authz/permission"
	"github.com/philly/school-finance/backend/internal/platform/apperror"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/ownership"
)

// Error definitions for service operations using AppError
var (
	ErrInvalidPermission = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodeInvalidFormat,
		"invalid permission",
		http.StatusBadRequest,
	)
)

// AuthzService answers authorization questions for staff members.
// Roles come from the staff context over the bus; grants are static.
type AuthzService struct {
	coordinator       *eventbus.Coordinator
	grants            domain.Grants
	ownershipRegistry ownership.Registry
	logger            logger.Logger
}

func NewAuthzService(
	coordinator *eventbus.Coordinator,
	ownershipRegistry ownership.Registry,
	grants domain.Grants,
	logger logger.Logger,
) *AuthzService {
	return &AuthzService{
		coordinator:       coordinator,
		grants:            grants,
		ownershipRegistry: ownershipRegistry,
		logger:            logger,
	}
}

// roleOf returns the role of an active staff member, or "" when the staff
// member is unknown or inactive.
func (s *AuthzService) roleOf(ctx context.Context, staffID uuid.UUID) (string, error) {
	role, err := eventbus.Request[events.StaffRole](ctx, s.coordinator, eventbus.Call{
		Exchange: events.StaffRoleExchange,
		Payload:  events.StaffRoleRequest{StaffID: staffID},
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("AuthzService.roleOf: %w", err)
	}
	if !role.Active {
		return "", nil
	}
	return role.Role, nil
}

func (s *AuthzService) allows(ctx context.Context, role, permissionID string) bool {
	if role == "" {
		return false
	}
	ok, err := s.grants.Allows(role, permissionID)
	if err != nil {
		s.logger.Warn(ctx, "staff member has an unknown role", "role", role)
		return false
	}
	return ok
}

// HasPermission checks if a staff member has a specific permission
func (s *AuthzService) HasPermission(ctx context.Context, staffID uuid.UUID, permissionID string) (bool, error) {
	if !permission.IsValid(permissionID) {
		s.logger.Warn(ctx, "invalid permission requested", "staff_id", staffID, "permission", permissionID)
		return false, ErrInvalidPermission
	}

	role, err := s.roleOf(ctx, staffID)
	if err != nil {
		s.logger.Error(ctx, "failed to check permission",
			"staff_id", staffID,
			"permission", permissionID,
			"error", err,
		)
		return false, err
	}
	return s.allows(ctx, role, permissionID), nil
}

// HasAnyPermission checks if a staff member has any of the specified permissions
func (s *AuthzService) HasAnyPermission(ctx context.Context, staffID uuid.UUID, permissionIDs []string) (bool, error) {
	if err := validatePermissionIDs(permissionIDs); err != nil {
		return false, err
	}
	role, err := s.roleOf(ctx, staffID)
	if err != nil {
		return false, err
	}
	for _, p := range permissionIDs {
		if s.allows(ctx, role, p) {
			return true, nil
		}
	}
	return false, nil
}

// HasAllPermissions checks if a staff member has all of the specified permissions
func (s *AuthzService) HasAllPermissions(ctx context.Context, staffID uuid.UUID, permissionIDs []string) (bool, error) {
	if err := validatePermissionIDs(permissionIDs); err != nil {
		return false, err
	}
	role, err := s.roleOf(ctx, staffID)
	if err != nil {
		return false, err
	}
	for _, p := range permissionIDs {
		if !s.allows(ctx, role, p) {
			return false, nil
		}
	}
	return true, nil
}

// HasRole checks if an active staff member has the named role
func (s *AuthzService) HasRole(ctx context.Context, staffID uuid.UUID, roleName string) (bool, error) {
	role, err := s.roleOf(ctx, staffID)
	if err != nil {
		return false, err
	}
	return role != "" && role == roleName, nil
}

// GetStaffPermissions lists the permissions a staff member currently holds
func (s *AuthzService) GetStaffPermissions(ctx context.Context, staffID uuid.UUID) ([]string, error) {
	role, err := s.roleOf(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if role == "" {
		return []string{}, nil
	}
	return s.grants.PermissionsOf(role), nil
}

// RoleGrants lists every role with the permissions it carries.
func (s *AuthzService) RoleGrants() map[string][]string {
	out := make(map[string][]string, len(s.grants))
	for _, role := range s.grants.Roles() {
		out[role] = s.grants.PermissionsOf(role)
	}
	return out
}

// Can checks whether a staff member may perform action on resource.
// Unscoped permissions ("funds:approve") are checked directly. Otherwise the
// ":any" variant wins outright, and the ":own" variant requires resourceID to
// belong to the staff member according to the ownership registry.
func (s *AuthzService) Can(ctx context.Context, staffID uuid.UUID, resource string, action string, resourceID *uuid.UUID) (bool, error) {
	base := fmt.Sprintf("%s:%s", resource, action)
	anyPerm, ownPerm := base+":any", base+":own"

	if !permission.IsValid(base) && !permission.IsValid(anyPerm) && !permission.IsValid(ownPerm) {
		return false, fmt.Errorf("%w: %s", ErrInvalidPermission, base)
	}

	role, err := s.roleOf(ctx, staffID)
	if err != nil {
		return false, err
	}

	if permission.IsValid(base) {
		return s.allows(ctx, role, base), nil
	}
	if s.allows(ctx, role, anyPerm) {
		return true, nil
	}
	if resourceID == nil || !s.allows(ctx, role, ownPerm) {
		return false, nil
	}
	return s.checkOwnership(ctx, staffID, resource, *resourceID)
}

func validatePermissionIDs(permissionIDs []string) error {
	for _, id := range permissionIDs {
		if !permission.IsValid(id) {
			return fmt.Errorf("%w: %s", ErrInvalidPermission, id)
		}
	}
	return nil
}

func (s *AuthzService) checkOwnership(ctx context.Context, staffID uuid.UUID, resourceType string, resourceID uuid.UUID) (bool, error) {
	if s.ownershipRegistry == nil {
		s.logger.Warn(ctx, "ownership registry not configured",
			"resource_type", resourceType,
		)
		return false, nil
	}

	isOwner, err := s.ownershipRegistry.CheckOwnership(ctx, staffID, resourceType, resourceID)
	if err != nil {
		return false, fmt.Errorf("checkOwnership: %w", err)
	}

	return isOwner, nil
}
