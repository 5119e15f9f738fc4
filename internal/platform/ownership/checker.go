package ownership

import (
	"context"

	"github.com/google/uuid"
)

// Checker reports whether a staff member owns a resource.
// Each context with ownership-scoped permissions implements one.
type Checker interface {
	CheckOwnership(ctx context.Context, staffID uuid.UUID, resourceID uuid.UUID) (bool, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, staffID uuid.UUID, resourceID uuid.UUID) (bool, error)

func (f CheckerFunc) CheckOwnership(ctx context.Context, staffID uuid.UUID, resourceID uuid.UUID) (bool, error) {
	return f(ctx, staffID, resourceID)
}

// Registry holds ownership checkers keyed by resource type ("funds", "payroll").
type Registry interface {
	RegisterChecker(resourceType string, checker Checker)
	GetChecker(resourceType string) (Checker, bool)
	CheckOwnership(ctx context.Context, staffID uuid.UUID, resourceType string, resourceID uuid.UUID) (bool, error)
}
