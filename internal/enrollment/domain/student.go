package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyName            = errors.New("first and last name are required")
	ErrNameTooLong          = errors.New("names must not exceed 80 characters")
	ErrInvalidGuardianEmail = errors.New("invalid guardian email")
	ErrInvalidScholarship   = errors.New("scholarship percent must be between 0 and 100")
	ErrInvalidSchoolYear    = errors.New("school year out of range")
	ErrInvalidGradeLevel    = errors.New("grade level must be between 0 and 12")
	ErrEnrollmentNotActive  = errors.New("enrollment is not active")
	ErrAlreadyCleared       = errors.New("enrollment already cleared")
)

const maxNameLength = 80

type Student struct {
	ID                 uuid.UUID
	FirstName          string
	LastName           string
	GuardianEmail      string
	ScholarshipPercent int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func NewStudent(firstName, lastName, guardianEmail string, scholarshipPercent int) (*Student, error) {
	s := &Student{ID: uuid.New()}
	if err := s.Update(firstName, lastName, guardianEmail, scholarshipPercent); err != nil {
		return nil, err
	}
	s.CreatedAt = s.UpdatedAt
	return s, nil
}

// Update replaces the student's details.
func (s *Student) Update(firstName, lastName, guardianEmail string, scholarshipPercent int) error {
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	guardianEmail = strings.ToLower(strings.TrimSpace(guardianEmail))

	if firstName == "" || lastName == "" {
		return ErrEmptyName
	}
	if len(firstName) > maxNameLength || len(lastName) > maxNameLength {
		return ErrNameTooLong
	}
	if addr, err := mail.ParseAddress(guardianEmail); err != nil || addr.Address != guardianEmail {
		return ErrInvalidGuardianEmail
	}
	if scholarshipPercent < 0 || scholarshipPercent > 100 {
		return ErrInvalidScholarship
	}

	s.FirstName = firstName
	s.LastName = lastName
	s.GuardianEmail = guardianEmail
	s.ScholarshipPercent = scholarshipPercent
	s.UpdatedAt = time.Now()
	return nil
}

func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
