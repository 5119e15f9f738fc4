package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
)

// Notification topics for staff
const (
	StaffCreatedTopic     eventbus.Topic = "staff.created"
	StaffDeactivatedTopic eventbus.Topic = "staff.deactivated"
)

// Request/reply exchanges answered by the staff context
var (
	StaffMemberExchange = eventbus.Exchange{
		Request:  "staff.member.requested",
		Response: "staff.member.retrieved",
	}
	StaffLookupExchange = eventbus.Exchange{
		Request:  "staff.lookup.requested",
		Response: "staff.lookup.retrieved",
	}
	ActiveStaffExchange = eventbus.Exchange{
		Request:  "staff.active.requested",
		Response: "staff.active.retrieved",
	}
	StaffRoleExchange = eventbus.Exchange{
		Request:  "staff.role.requested",
		Response: "staff.role.retrieved",
	}
)

// StaffCreatedEvent is published when a staff member is created
type StaffCreatedEvent struct {
	StaffID    uuid.UUID
	Email      string
	Role       string
	OccurredAt time.Time
}

// StaffDeactivatedEvent is published when a staff member is deactivated
type StaffDeactivatedEvent struct {
	StaffID    uuid.UUID
	ActorID    uuid.UUID
	OccurredAt time.Time
}

type StaffMemberRequest struct {
	StaffID uuid.UUID
}

type StaffLookupRequest struct {
	Email string
}

type ActiveStaffRequest struct{}

type StaffRoleRequest struct {
	StaffID uuid.UUID
}

// StaffMember is the cross-context view of a staff member.
type StaffMember struct {
	ID            uuid.UUID
	Email         string
	FullName      string
	Role          string
	MonthlySalary int64 // cents
	Active        bool
}

type ActiveStaff struct {
	Members []StaffMember
}

type StaffRole struct {
	StaffID uuid.UUID
	Role    string
	Active  bool
}
