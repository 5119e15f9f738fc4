package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
)

const (
	FundRequestApprovedTopic eventbus.Topic = "funds.request_approved"
	FundRequestRejectedTopic eventbus.Topic = "funds.request_rejected"
	FundUsageRecordedTopic   eventbus.Topic = "funds.usage_recorded"
)

var FundUsageTotalsExchange = eventbus.Exchange{
	Request:  "funds.monthly_usage.requested",
	Response: "funds.monthly_usage.retrieved",
}

// FundRequestReviewedEvent is published on approval and on rejection
type FundRequestReviewedEvent struct {
	RequestID   uuid.UUID
	RequesterID uuid.UUID
	ReviewerID  uuid.UUID
	Amount      int64
	Note        string
	OccurredAt  time.Time
}

// FundUsageRecordedEvent is published when spending is recorded against a request
type FundUsageRecordedEvent struct {
	UsageID    uuid.UUID
	RequestID  uuid.UUID
	Amount     int64
	Period     string
	OccurredAt time.Time
}

type FundUsageTotalsRequest struct {
	Periods []string
}

type FundUsageTotals struct {
	Totals map[string]int64
}
