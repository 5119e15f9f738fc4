package ports

import (
	"context"

	"github.com/google/uuid"
)

// Authorizer is a driven port for ownership-aware permission checks.
// The funds module depends on this capability but does not know how it is implemented.
type Authorizer interface {
	Can(ctx context.Context, staffID uuid.UUID, resource string, action string, resourceID *uuid.UUID) (bool, error)
}
