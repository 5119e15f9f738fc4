package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrEmptyFullName   = errors.New("full name cannot be empty")
	ErrFullNameTooLong = errors.New("full name must not exceed 120 characters")
	ErrInvalidRole     = errors.New("invalid role")
	ErrNegativeSalary  = errors.New("monthly salary cannot be negative")
	ErrAlreadyInactive = errors.New("staff member is already inactive")
)

// Role is the job function of a staff member; it drives authorization.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleBursar    Role = "bursar"
	RoleRegistrar Role = "registrar"
	RoleTeacher   Role = "teacher"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleBursar, RoleRegistrar, RoleTeacher:
		return r, nil
	default:
		return "", ErrInvalidRole
	}
}

type Staff struct {
	ID            uuid.UUID
	Email         string
	FullName      string
	Role          Role
	MonthlySalary int64 // cents
	PasswordHash  string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewStaff(email, fullName string, role Role, monthlySalary int64, passwordHash string) (*Staff, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	fullName = strings.TrimSpace(fullName)
	if err := validateFullName(fullName); err != nil {
		return nil, err
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	if monthlySalary < 0 {
		return nil, ErrNegativeSalary
	}

	now := time.Now()
	return &Staff{
		ID:            uuid.New(),
		Email:         email,
		FullName:      fullName,
		Role:          role,
		MonthlySalary: monthlySalary,
		PasswordHash:  passwordHash,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Update changes the mutable profile fields; zero values leave a field unchanged.
func (s *Staff) Update(fullName string, role Role, monthlySalary *int64) error {
	if fullName = strings.TrimSpace(fullName); fullName != "" {
		if err := validateFullName(fullName); err != nil {
			return err
		}
		s.FullName = fullName
	}
	if role != "" {
		r, err := ParseRole(string(role))
		if err != nil {
			return err
		}
		s.Role = r
	}
	if monthlySalary != nil {
		if *monthlySalary < 0 {
			return ErrNegativeSalary
		}
		s.MonthlySalary = *monthlySalary
	}
	s.UpdatedAt = time.Now()
	return nil
}

func (s *Staff) Deactivate() error {
	if !s.Active {
		return ErrAlreadyInactive
	}
	s.Active = false
	s.UpdatedAt = time.Now()
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

func validateFullName(name string) error {
	if name == "" {
		return ErrEmptyFullName
	}
	if len(name) > 120 {
		return ErrFullNameTooLong
	}
	return nil
}
