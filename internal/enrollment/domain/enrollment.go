package domain

import (
	"time"

	"github.com/google/uuid"
)

type EnrollmentStatus string

const (
	EnrollmentEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentWithdrawn EnrollmentStatus = "withdrawn"
)

// Enrollment places a student in a grade for one school year. Cleared is set
// once the year's tuition is fully paid.
type Enrollment struct {
	ID          uuid.UUID
	StudentID   uuid.UUID
	SchoolYear  int
	GradeLevel  int
	Status      EnrollmentStatus
	Cleared     bool
	EnrolledAt  time.Time
	WithdrawnAt *time.Time
	UpdatedAt   time.Time
}

func NewEnrollment(studentID uuid.UUID, schoolYear, gradeLevel int) (*Enrollment, error) {
	if schoolYear < 2000 || schoolYear > 2100 {
		return nil, ErrInvalidSchoolYear
	}
	if gradeLevel < 0 || gradeLevel > 12 {
		return nil, ErrInvalidGradeLevel
	}
	now := time.Now()
	return &Enrollment{
		ID:         uuid.New(),
		StudentID:  studentID,
		SchoolYear: schoolYear,
		GradeLevel: gradeLevel,
		Status:     EnrollmentEnrolled,
		EnrolledAt: now,
		UpdatedAt:  now,
	}, nil
}

func (e *Enrollment) Withdraw() error {
	if e.Status != EnrollmentEnrolled {
		return ErrEnrollmentNotActive
	}
	now := time.Now()
	e.Status = EnrollmentWithdrawn
	e.WithdrawnAt = &now
	e.UpdatedAt = now
	return nil
}

// MarkCleared records that the enrollment's tuition is settled.
func (e *Enrollment) MarkCleared() error {
	if e.Status != EnrollmentEnrolled {
		return ErrEnrollmentNotActive
	}
	if e.Cleared {
		return ErrAlreadyCleared
	}
	e.Cleared = true
	e.UpdatedAt = time.Now()
	return nil
}
