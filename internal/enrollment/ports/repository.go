package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/enrollment/domain"
)

var (
	ErrStudentNotFound    = errors.New("student not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrAlreadyEnrolled is returned by Create when the student already has an
	// active enrollment for the school year.
	ErrAlreadyEnrolled = errors.New("student already enrolled for school year")
)

type StudentFilter struct {
	Search string // matches first or last name, case-insensitive
	Limit  int
	Offset int
}

type StudentRepository interface {
	Create(ctx context.Context, student *domain.Student) error
	Update(ctx context.Context, student *domain.Student) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Student, error)
	List(ctx context.Context, filter StudentFilter) ([]*domain.Student, error)
}

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *domain.Enrollment) error
	Update(ctx context.Context, enrollment *domain.Enrollment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Enrollment, error)
	// FindActive returns the student's enrolled (not withdrawn) enrollment for schoolYear.
	FindActive(ctx context.Context, studentID uuid.UUID, schoolYear int) (*domain.Enrollment, error)
	// ListByStudent returns enrollments newest school year first.
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.Enrollment, error)
}
