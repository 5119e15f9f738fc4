package eventbus

import (
	"context"
	"time"
)

// Topic is the process-wide name of a request, response or notification.
type Topic string

// Exchange pairs a request topic with the topic its reply is published on.
// The bus cannot check the pairing; declare each pair once and reuse it.
type Exchange struct {
	Request  Topic
	Response Topic
}

func (e Exchange) String() string { return string(e.Request) }

// Envelope is what handlers receive. Data holds either a domain value or a
// Failure. CorrelationID is set on request/reply traffic and empty on
// notifications.
type Envelope struct {
	Topic         Topic
	Data          any
	OccurredAt    time.Time
	CorrelationID string
}

// Handler processes an envelope. A returned error is logged by the bus and
// never reaches the publisher.
type Handler func(ctx context.Context, env Envelope) error
