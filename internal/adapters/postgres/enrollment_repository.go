package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/philly/school-finance/backend/internal/enrollment/domain"
	"github.com/philly/school-finance/backend/internal/enrollment/ports"
	"github.com/philly/school-finance/backend/internal/platform/postgres"
)

var studentColumns = []string{
	"id", "first_name", "last_name", "guardian_email", "scholarship_percent", "created_at", "updated_at",
}

// StudentRepository implements ports.StudentRepository using PostgreSQL
type StudentRepository struct {
	postgres.BaseRepository
}

func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{BaseRepository: postgres.NewBaseRepository(db)}
}

func (r *StudentRepository) Create(ctx context.Context, s *domain.Student) error {
	query, args, err := r.SB.
		Insert("students").
		Columns(studentColumns...).
		Values(pgUUID(s.ID), s.FirstName, s.LastName, s.GuardianEmail, s.ScholarshipPercent, pgTime(s.CreatedAt), pgTime(s.UpdatedAt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("StudentRepository.Create: build query: %w", err)
	}
	if _, err := r.DB.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("StudentRepository.Create: %w", err)
	}
	return nil
}

func (r *StudentRepository) Update(ctx context.Context, s *domain.Student) error {
	query, args, err := r.SB.
		Update("students").
		Set("first_name", s.FirstName).
		Set("last_name", s.LastName).
		Set("guardian_email", s.GuardianEmail).
		Set("scholarship_percent", s.ScholarshipPercent).
		Set("updated_at", pgTime(s.UpdatedAt)).
		Where(sq.Eq{"id": pgUUID(s.ID)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("StudentRepository.Update: build query: %w", err)
	}

	result, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("StudentRepository.Update: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrStudentNotFound
	}
	return nil
}

func (r *StudentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	query, args, err := r.SB.Select(studentColumns...).From("students").Where(sq.Eq{"id": pgUUID(id)}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("StudentRepository.FindByID: build query: %w", err)
	}

	s, err := scanStudent(r.DB.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrStudentNotFound
		}
		return nil, fmt.Errorf("StudentRepository.FindByID: %w", err)
	}
	return s, nil
}

func (r *StudentRepository) List(ctx context.Context, filter ports.StudentFilter) ([]*domain.Student, error) {
	qb := r.SB.Select(studentColumns...).From("students").OrderBy("lower(last_name) ASC", "lower(first_name) ASC")
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		qb = qb.Where(sq.Or{
			sq.ILike{"first_name": pattern},
			sq.ILike{"last_name": pattern},
		})
	}
	qb = postgres.Page(qb, filter.Limit, filter.Offset)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("StudentRepository.List: build query: %w", err)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("StudentRepository.List: %w", err)
	}
	defer rows.Close()

	var out []*domain.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("StudentRepository.List: rows error: %w", err)
	}
	return out, nil
}

func scanStudent(row pgx.Row) (*domain.Student, error) {
	var s domain.Student
	var id pgtype.UUID
	if err := row.Scan(&id, &s.FirstName, &s.LastName, &s.GuardianEmail, &s.ScholarshipPercent, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scanStudent: %w", err)
	}
	s.ID = uuid.UUID(id.Bytes)
	return &s, nil
}

var enrollmentColumns = []string{
	"id", "student_id", "school_year", "grade_level", "status", "cleared", "enrolled_at", "withdrawn_at", "updated_at",
}

// EnrollmentRepository implements ports.EnrollmentRepository using PostgreSQL
type EnrollmentRepository struct {
	postgres.BaseRepository
}

func NewEnrollmentRepository(db *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{BaseRepository: postgres.NewBaseRepository(db)}
}

func (r *EnrollmentRepository) Create(ctx context.Context, e *domain.Enrollment) error {
	query, args, err := r.SB.
		Insert("enrollments").
		Columns(enrollmentColumns...).
		Values(
			pgUUID(e.ID),
			pgUUID(e.StudentID),
			e.SchoolYear,
			e.GradeLevel,
			string(e.Status),
			e.Cleared,
			pgTime(e.EnrolledAt),
			pgTimePtr(e.WithdrawnAt),
			pgTime(e.UpdatedAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("EnrollmentRepository.Create: build query: %w", err)
	}

	if _, err := r.DB.Exec(ctx, query, args...); err != nil {
		if postgres.IsUniqueViolation(err, "enrollments_active_year_key") {
			return ports.ErrAlreadyEnrolled
		}
		if postgres.IsForeignKeyViolation(err) {
			return ports.ErrStudentNotFound
		}
		return fmt.Errorf("EnrollmentRepository.Create: %w", err)
	}
	return nil
}

func (r *EnrollmentRepository) Update(ctx context.Context, e *domain.Enrollment) error {
	query, args, err := r.SB.
		Update("enrollments").
		Set("status", string(e.Status)).
		Set("cleared", e.Cleared).
		Set("withdrawn_at", pgTimePtr(e.WithdrawnAt)).
		Set("updated_at", pgTime(e.UpdatedAt)).
		Where(sq.Eq{"id": pgUUID(e.ID)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("EnrollmentRepository.Update: build query: %w", err)
	}

	result, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("EnrollmentRepository.Update: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrEnrollmentNotFound
	}
	return nil
}

func (r *EnrollmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Enrollment, error) {
	query, args, err := r.SB.
		Select(enrollmentColumns...).
		From("enrollments").
		Where(sq.Eq{"id": pgUUID(id)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("EnrollmentRepository.FindByID: build query: %w", err)
	}

	e, err := scanEnrollment(r.DB.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("EnrollmentRepository.FindByID: %w", err)
	}
	return e, nil
}

func (r *EnrollmentRepository) FindActive(ctx context.Context, studentID uuid.UUID, schoolYear int) (*domain.Enrollment, error) {
	query, args, err := r.SB.
		Select(enrollmentColumns...).
		From("enrollments").
		Where(sq.Eq{
			"student_id":  pgUUID(studentID),
			"school_year": schoolYear,
			"status":      string(domain.EnrollmentEnrolled),
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("EnrollmentRepository.FindActive: build query: %w", err)
	}

	e, err := scanEnrollment(r.DB.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("EnrollmentRepository.FindActive: %w", err)
	}
	return e, nil
}

// ListByStudent returns enrollments newest school year first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.Enrollment, error) {
	query, args, err := r.SB.
		Select(enrollmentColumns...).
		From("enrollments").
		Where(sq.Eq{"student_id": pgUUID(studentID)}).
		OrderBy("school_year DESC", "enrolled_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("EnrollmentRepository.ListByStudent: build query: %w", err)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("EnrollmentRepository.ListByStudent: %w", err)
	}
	defer rows.Close()

	var out []*domain.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("EnrollmentRepository.ListByStudent: rows error: %w", err)
	}
	return out, nil
}

func scanEnrollment(row pgx.Row) (*domain.Enrollment, error) {
	var e domain.Enrollment
	var id, studentID pgtype.UUID
	var withdrawnAt pgtype.Timestamptz
	var status string

	err := row.Scan(&id, &studentID, &e.SchoolYear, &e.GradeLevel, &status, &e.Cleared, &e.EnrolledAt, &withdrawnAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scanEnrollment: %w", err)
	}
	e.ID = uuid.UUID(id.Bytes)
	e.StudentID = uuid.UUID(studentID.Bytes)
	e.Status = domain.EnrollmentStatus(status)
	e.WithdrawnAt = timePtr(withdrawnAt)
	return &e, nil
}
