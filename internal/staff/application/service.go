package application

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/philly/school-finance/backend/internal/platform/apperror"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/staff/domain"
	"github.com/philly/school-finance/backend/internal/staff/ports"
)

// Error definitions for service operations
var (
	ErrStaffNotFound = apperror.New(
		apperror.CodeNotFound,
		apperror.BusinessCodeStaffNotFound,
		"staff member not found",
		http.StatusNotFound,
	)

	ErrEmailTaken = apperror.New(
		apperror.CodeConflict,
		apperror.BusinessCodeEmailAlreadyExists,
		"email already registered",
		http.StatusConflict,
	)

	ErrInvalidStaffData = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodeInvalidFormat,
		"invalid staff data",
		http.StatusBadRequest,
	)

	ErrInvalidCredentials = apperror.New(
		apperror.CodeUnauthorized,
		apperror.BusinessCodeInvalidLogin,
		"invalid email or password",
		http.StatusUnauthorized,
	)

	ErrStaffInactive = apperror.New(
		apperror.CodeConflict,
		apperror.BusinessCodeStaffInactive,
		"staff member is inactive",
		http.StatusConflict,
	)
)

const minPasswordLength = 8

// StaffService manages staff records and credentials.
type StaffService struct {
	repo       ports.StaffRepository
	tokens     ports.TokenIssuer
	eventBus   *eventbus.Bus
	logger     logger.Logger
	bcryptCost int
}

// NewStaffService creates a new staff service
func NewStaffService(
	repo ports.StaffRepository,
	tokens ports.TokenIssuer,
	eventBus *eventbus.Bus,
	logger logger.Logger,
) *StaffService {
	return &StaffService{
		repo:       repo,
		tokens:     tokens,
		eventBus:   eventBus,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// CreateStaffParams contains parameters for creating a staff member
type CreateStaffParams struct {
	Email         string
	FullName      string
	Role          string
	MonthlySalary int64
	Password      string
}

// CreateStaff validates and stores a new staff member and announces it.
func (s *StaffService) CreateStaff(ctx context.Context, params CreateStaffParams) (*domain.Staff, error) {
	role, err := domain.ParseRole(params.Role)
	if err != nil {
		return nil, ErrInvalidStaffData.WithDetails(err.Error())
	}
	if len(params.Password) < minPasswordLength {
		return nil, ErrInvalidStaffData.WithDetails("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		// bcrypt rejects passwords longer than 72 bytes
		return nil, ErrInvalidStaffData.WithDetails(err.Error())
	}

	staff, err := domain.NewStaff(params.Email, params.FullName, role, params.MonthlySalary, string(hash))
	if err != nil {
		return nil, ErrInvalidStaffData.WithDetails(err.Error())
	}

	exists, err := s.repo.ExistsByEmail(ctx, staff.Email)
	if err != nil {
		s.logger.Error(ctx, "failed to check email availability", "error", err)
		return nil, apperror.Internal("failed to create staff member")
	}
	if exists {
		return nil, ErrEmailTaken
	}

	if err := s.repo.Create(ctx, staff); err != nil {
		s.logger.Error(ctx, "failed to create staff member", "error", err)
		return nil, apperror.Internal("failed to create staff member")
	}

	s.eventBus.Publish(ctx, events.StaffCreatedTopic, events.StaffCreatedEvent{
		StaffID:    staff.ID,
		Email:      staff.Email,
		Role:       string(staff.Role),
		OccurredAt: time.Now(),
	})

	return staff, nil
}

// GetStaff returns a staff member by ID
func (s *StaffService) GetStaff(ctx context.Context, id uuid.UUID) (*domain.Staff, error) {
	staff, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrStaffNotFound) {
			return nil, ErrStaffNotFound
		}
		s.logger.Error(ctx, "failed to get staff member", "error", err, "staffID", id)
		return nil, apperror.Internal("failed to get staff member")
	}
	return staff, nil
}

// ListStaff returns staff members matching filter
func (s *StaffService) ListStaff(ctx context.Context, filter ports.ListFilter) ([]*domain.Staff, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	staff, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error(ctx, "failed to list staff", "error", err)
		return nil, apperror.Internal("failed to list staff")
	}
	return staff, nil
}

// UpdateStaffParams contains the mutable staff fields; empty values are left unchanged
type UpdateStaffParams struct {
	FullName      string
	Role          string
	MonthlySalary *int64
}

// UpdateStaff changes a staff member's profile, role or salary.
func (s *StaffService) UpdateStaff(ctx context.Context, id uuid.UUID, params UpdateStaffParams) (*domain.Staff, error) {
	staff, err := s.GetStaff(ctx, id)
	if err != nil {
		return nil, err
	}
	if !staff.Active {
		return nil, ErrStaffInactive
	}

	if err := staff.Update(params.FullName, domain.Role(params.Role), params.MonthlySalary); err != nil {
		return nil, ErrInvalidStaffData.WithDetails(err.Error())
	}

	if err := s.repo.Update(ctx, staff); err != nil {
		s.logger.Error(ctx, "failed to update staff member", "error", err, "staffID", id)
		return nil, apperror.Internal("failed to update staff member")
	}
	return staff, nil
}

// DeactivateStaff marks a staff member inactive; inactive staff cannot log in or be paid.
func (s *StaffService) DeactivateStaff(ctx context.Context, actorID, id uuid.UUID) (*domain.Staff, error) {
	staff, err := s.GetStaff(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := staff.Deactivate(); err != nil {
		return nil, ErrStaffInactive
	}

	if err := s.repo.Update(ctx, staff); err != nil {
		s.logger.Error(ctx, "failed to deactivate staff member", "error", err, "staffID", id)
		return nil, apperror.Internal("failed to deactivate staff member")
	}

	s.eventBus.Publish(ctx, events.StaffDeactivatedTopic, events.StaffDeactivatedEvent{
		StaffID:    staff.ID,
		ActorID:    actorID,
		OccurredAt: time.Now(),
	})

	return staff, nil
}

// AuthResult is a successful login
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Staff     *domain.Staff
}

// Authenticate checks credentials and issues an access token.
// Unknown emails, wrong passwords and inactive accounts all yield ErrInvalidCredentials.
func (s *StaffService) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	staff, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ports.ErrStaffNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error(ctx, "failed to load staff for login", "error", err)
		return nil, apperror.Internal("login failed")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !staff.Active {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(ctx, staff)
	if err != nil {
		s.logger.Error(ctx, "failed to issue token", "error", err, "staffID", staff.ID)
		return nil, apperror.Internal("login failed")
	}

	s.logger.Info(ctx, "staff member logged in", "staffID", staff.ID)
	return &AuthResult{Token: token, ExpiresAt: expiresAt, Staff: staff}, nil
}

func toStaffMember(s *domain.Staff) events.StaffMember {
	return events.StaffMember{
		ID:            s.ID,
		Email:         s.Email,
		FullName:      s.FullName,
		Role:          string(s.Role),
		MonthlySalary: s.MonthlySalary,
		Active:        s.Active,
	}
}
