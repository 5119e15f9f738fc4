package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/philly/school-finance/backend/internal/staff/domain"
)

// ErrStaffNotFound is returned by repositories when no row matches.
var ErrStaffNotFound = errors.New("staff member not found")

// ListFilter narrows ListStaff results.
type ListFilter struct {
	ActiveOnly bool
	Role       domain.Role
	Limit      int // zero means no limit
	Offset     int
}

type StaffRepository interface {
	Create(ctx context.Context, staff *domain.Staff) error
	Update(ctx context.Context, staff *domain.Staff) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error)
	FindByEmail(ctx context.Context, email string) (*domain.Staff, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Staff, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// TokenIssuer signs access tokens for authenticated staff.
type TokenIssuer interface {
	Issue(ctx context.Context, staff *domain.Staff) (token string, expiresAt time.Time, err error)
}
