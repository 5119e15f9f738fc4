package application

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/enrollment/domain"
	"github.com/philly/school-finance/backend/internal/enrollment/ports"
	"github.com/philly/school-finance/backend/internal/platform/apperror"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/validator"
)

// Error definitions for service operations
var (
	ErrStudentNotFound = apperror.New(
		apperror.CodeNotFound,
		apperror.BusinessCodeStudentNotFound,
		"student not found",
		http.StatusNotFound,
	)

	ErrInvalidStudentData = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodeInvalidFormat,
		"invalid student data",
		http.StatusBadRequest,
	)

	ErrAlreadyEnrolled = apperror.New(
		apperror.CodeConflict,
		apperror.BusinessCodeAlreadyEnrolled,
		"student is already enrolled for this school year",
		http.StatusConflict,
	)

	ErrNotEnrolled = apperror.New(
		apperror.CodeConflict,
		apperror.BusinessCodeNotEnrolled,
		"student is not enrolled for this school year",
		http.StatusConflict,
	)
)

// EnrollmentService registers students and manages their enrollments.
type EnrollmentService struct {
	students    ports.StudentRepository
	enrollments ports.EnrollmentRepository
	coordinator *eventbus.Coordinator
	eventBus    *eventbus.Bus
	logger      logger.Logger
}

func NewEnrollmentService(
	students ports.StudentRepository,
	enrollments ports.EnrollmentRepository,
	coordinator *eventbus.Coordinator,
	logger logger.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		students:    students,
		enrollments: enrollments,
		coordinator: coordinator,
		eventBus:    coordinator.Bus(),
		logger:      logger,
	}
}

// StudentParams contains a student's editable details
type StudentParams struct {
	FirstName          string
	LastName           string
	GuardianEmail      string
	ScholarshipPercent int
}

func (s *EnrollmentService) RegisterStudent(ctx context.Context, params StudentParams) (*domain.Student, error) {
	student, err := domain.NewStudent(
		validator.SanitizeText(params.FirstName),
		validator.SanitizeText(params.LastName),
		params.GuardianEmail,
		params.ScholarshipPercent,
	)
	if err != nil {
		return nil, ErrInvalidStudentData.WithDetails(err.Error())
	}

	if err := s.students.Create(ctx, student); err != nil {
		s.logger.Error(ctx, "failed to register student", "error", err)
		return nil, apperror.Internal("failed to register student")
	}
	return student, nil
}

func (s *EnrollmentService) UpdateStudent(ctx context.Context, id uuid.UUID, params StudentParams) (*domain.Student, error) {
	student, err := s.getStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := student.Update(
		validator.SanitizeText(params.FirstName),
		validator.SanitizeText(params.LastName),
		params.GuardianEmail,
		params.ScholarshipPercent,
	); err != nil {
		return nil, ErrInvalidStudentData.WithDetails(err.Error())
	}
	if err := s.students.Update(ctx, student); err != nil {
		s.logger.Error(ctx, "failed to update student", "error", err, "studentID", id)
		return nil, apperror.Internal("failed to update student")
	}
	return student, nil
}

// StudentDetails is a student with every enrollment, newest first
type StudentDetails struct {
	Student     *domain.Student
	Enrollments []*domain.Enrollment
}

func (s *EnrollmentService) GetStudent(ctx context.Context, id uuid.UUID) (*StudentDetails, error) {
	student, err := s.getStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.enrollments.ListByStudent(ctx, id)
	if err != nil {
		s.logger.Error(ctx, "failed to list enrollments", "error", err, "studentID", id)
		return nil, apperror.Internal("failed to get student")
	}
	return &StudentDetails{Student: student, Enrollments: enrollments}, nil
}

func (s *EnrollmentService) ListStudents(ctx context.Context, filter ports.StudentFilter) ([]*domain.Student, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	students, err := s.students.List(ctx, filter)
	if err != nil {
		s.logger.Error(ctx, "failed to list students", "error", err)
		return nil, apperror.Internal("failed to list students")
	}
	return students, nil
}

// EnrollParams selects the school year and grade
type EnrollParams struct {
	SchoolYear int
	GradeLevel int
}

// EnrollStudent enrolls a student for a school year and announces it. A
// student has at most one active enrollment per school year.
func (s *EnrollmentService) EnrollStudent(ctx context.Context, studentID uuid.UUID, params EnrollParams) (*domain.Enrollment, error) {
	if _, err := s.getStudent(ctx, studentID); err != nil {
		return nil, err
	}

	enrollment, err := domain.NewEnrollment(studentID, params.SchoolYear, params.GradeLevel)
	if err != nil {
		return nil, ErrInvalidStudentData.WithDetails(err.Error())
	}

	if _, err := s.enrollments.FindActive(ctx, studentID, params.SchoolYear); err == nil {
		return nil, ErrAlreadyEnrolled
	} else if !errors.Is(err, ports.ErrEnrollmentNotFound) {
		s.logger.Error(ctx, "failed to check enrollment", "error", err, "studentID", studentID)
		return nil, apperror.Internal("failed to enroll student")
	}

	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		if errors.Is(err, ports.ErrAlreadyEnrolled) {
			return nil, ErrAlreadyEnrolled
		}
		s.logger.Error(ctx, "failed to enroll student", "error", err, "studentID", studentID)
		return nil, apperror.Internal("failed to enroll student")
	}

	s.eventBus.Publish(ctx, events.StudentEnrolledTopic, events.StudentEnrolledEvent{
		EnrollmentID: enrollment.ID,
		StudentID:    studentID,
		SchoolYear:   enrollment.SchoolYear,
		GradeLevel:   enrollment.GradeLevel,
		OccurredAt:   time.Now(),
	})
	return enrollment, nil
}

// WithdrawStudent ends the student's active enrollment for schoolYear.
func (s *EnrollmentService) WithdrawStudent(ctx context.Context, studentID uuid.UUID, schoolYear int) (*domain.Enrollment, error) {
	enrollment, err := s.activeEnrollment(ctx, studentID, schoolYear)
	if err != nil {
		return nil, err
	}
	if err := enrollment.Withdraw(); err != nil {
		return nil, ErrNotEnrolled
	}
	if err := s.enrollments.Update(ctx, enrollment); err != nil {
		s.logger.Error(ctx, "failed to withdraw student", "error", err, "studentID", studentID)
		return nil, apperror.Internal("failed to withdraw student")
	}

	s.eventBus.Publish(ctx, events.StudentWithdrawnTopic, events.StudentWithdrawnEvent{
		EnrollmentID: enrollment.ID,
		StudentID:    studentID,
		SchoolYear:   schoolYear,
		OccurredAt:   time.Now(),
	})
	return enrollment, nil
}

// MarkCleared flags the enrollment as paid up. Clearing an already cleared
// enrollment is a no-op; a withdrawn one cannot be cleared.
func (s *EnrollmentService) MarkCleared(ctx context.Context, enrollmentID uuid.UUID) error {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, ports.ErrEnrollmentNotFound) {
			return ErrNotEnrolled
		}
		s.logger.Error(ctx, "failed to get enrollment", "error", err, "enrollmentID", enrollmentID)
		return apperror.Internal("failed to get enrollment")
	}
	if err := enrollment.MarkCleared(); err != nil {
		if errors.Is(err, domain.ErrAlreadyCleared) {
			return nil
		}
		return ErrNotEnrolled
	}
	if err := s.enrollments.Update(ctx, enrollment); err != nil {
		s.logger.Error(ctx, "failed to clear enrollment", "error", err, "enrollmentID", enrollment.ID)
		return apperror.Internal("failed to clear enrollment")
	}
	s.logger.Info(ctx, "enrollment cleared", "enrollmentID", enrollment.ID, "studentID", enrollment.StudentID, "schoolYear", enrollment.SchoolYear)
	return nil
}

// StudentRecord builds the cross-context view: the student and the newest
// active enrollment, if any.
func (s *EnrollmentService) StudentRecord(ctx context.Context, id uuid.UUID) (events.StudentRecord, error) {
	details, err := s.GetStudent(ctx, id)
	if err != nil {
		return events.StudentRecord{}, err
	}
	record := events.StudentRecord{
		ID:                 details.Student.ID,
		FirstName:          details.Student.FirstName,
		LastName:           details.Student.LastName,
		GuardianEmail:      details.Student.GuardianEmail,
		ScholarshipPercent: details.Student.ScholarshipPercent,
	}
	for _, e := range details.Enrollments {
		if e.Status == domain.EnrollmentEnrolled {
			record.Enrollment = &events.EnrollmentRecord{
				ID:         e.ID,
				SchoolYear: e.SchoolYear,
				GradeLevel: e.GradeLevel,
				Status:     string(e.Status),
				Cleared:    e.Cleared,
			}
			break
		}
	}
	return record, nil
}

func (s *EnrollmentService) getStudent(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrStudentNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error(ctx, "failed to get student", "error", err, "studentID", id)
		return nil, apperror.Internal("failed to get student")
	}
	return student, nil
}

func (s *EnrollmentService) activeEnrollment(ctx context.Context, studentID uuid.UUID, schoolYear int) (*domain.Enrollment, error) {
	enrollment, err := s.enrollments.FindActive(ctx, studentID, schoolYear)
	if err != nil {
		if errors.Is(err, ports.ErrEnrollmentNotFound) {
			return nil, ErrNotEnrolled
		}
		s.logger.Error(ctx, "failed to get enrollment", "error", err, "studentID", studentID)
		return nil, apperror.Internal("failed to get enrollment")
	}
	return enrollment, nil
}
