package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
)

const (
	StudentEnrolledTopic  eventbus.Topic = "enrollment.student_enrolled"
	StudentWithdrawnTopic eventbus.Topic = "enrollment.student_withdrawn"
)

var StudentExchange = eventbus.Exchange{
	Request:  "enrollment.student.requested",
	Response: "enrollment.student.retrieved",
}

// StudentEnrolledEvent is published when a student is enrolled for a school year
type StudentEnrolledEvent struct {
	EnrollmentID uuid.UUID
	StudentID    uuid.UUID
	SchoolYear   int
	GradeLevel   int
	OccurredAt   time.Time
}

// StudentWithdrawnEvent is published when an enrollment is withdrawn
type StudentWithdrawnEvent struct {
	EnrollmentID uuid.UUID
	StudentID    uuid.UUID
	SchoolYear   int
	OccurredAt   time.Time
}

type StudentRequest struct {
	StudentID uuid.UUID
}

// StudentRecord is the cross-context view of a student and the current enrollment, if any.
type StudentRecord struct {
	ID                 uuid.UUID
	FirstName          string
	LastName           string
	GuardianEmail      string
	ScholarshipPercent int
	Enrollment         *EnrollmentRecord
}

type EnrollmentRecord struct {
	ID         uuid.UUID
	SchoolYear int
	GradeLevel int
	Status     string
	Cleared    bool
}
