package ownership

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	NewRegistry,
	wire.Bind(new(Registry), new(*DefaultRegistry)),
)

// ErrNoChecker is returned when no checker is registered for a resource type.
var ErrNoChecker = errors.New("no ownership checker registered")

// DefaultRegistry keeps one checker per resource type ("payroll", "funds").
type DefaultRegistry struct {
	checkers map[string]Checker
	mu       sync.RWMutex
}

func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		checkers: make(map[string]Checker),
	}
}

// RegisterChecker registers (or replaces) the checker for a resource type
func (r *DefaultRegistry) RegisterChecker(resourceType string, checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[resourceType] = checker
}

func (r *DefaultRegistry) GetChecker(resourceType string) (Checker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	checker, exists := r.checkers[resourceType]
	return checker, exists
}

// CheckOwnership dispatches to the checker registered for resourceType.
func (r *DefaultRegistry) CheckOwnership(ctx context.Context, staffID uuid.UUID, resourceType string, resourceID uuid.UUID) (bool, error) {
	checker, exists := r.GetChecker(resourceType)
	if !exists {
		return false, fmt.Errorf("%w: %s", ErrNoChecker, resourceType)
	}
	return checker.CheckOwnership(ctx, staffID, resourceID)
}

// Resources lists the resource types with a registered checker.
func (r *DefaultRegistry) Resources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.checkers))
	for resourceType := range r.checkers {
		out = append(out, resourceType)
	}
	sort.Strings(out)
	return out
}

// Require fails for every resource type that has no checker. Routes guarded
// by ":own" permissions on such a type would otherwise deny everyone.
func Require(r Registry, resourceTypes ...string) error {
	var errs []error
	for _, resourceType := range resourceTypes {
		if _, ok := r.GetChecker(resourceType); !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNoChecker, resourceType))
		}
	}
	return errors.Join(errs...)
}
