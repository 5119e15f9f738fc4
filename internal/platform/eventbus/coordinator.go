package eventbus

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/philly/school-finance/backend/internal/platform/apperror"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/metrics"
	"github.com/philly/school-finance/backend/internal/platform/telemetry"
)

// DefaultRequestTimeout bounds a round trip when neither the call nor the
// coordinator configuration sets one.
const DefaultRequestTimeout = 5 * time.Second

const (
	outcomeResolved   = "resolved"
	outcomeRejected   = "rejected"
	outcomeTimeout    = "timeout"
	outcomeCancelled  = "cancelled"
	outcomeUnexpected = "unexpected"
)

// Call describes one request/reply round trip.
type Call struct {
	Exchange Exchange
	Payload  any
	Timeout  time.Duration // zero means the coordinator default
}

// CoordinatorConfig holds the coordinator settings.
type CoordinatorConfig struct {
	DefaultTimeout time.Duration
}

// Coordinator turns a request publish plus a reply subscription into a single
// awaitable outcome.
type Coordinator struct {
	bus            *Bus
	logger         logger.Logger
	tracer         trace.Tracer
	defaultTimeout time.Duration
}

// NewCoordinator creates a coordinator on top of bus.
func NewCoordinator(bus *Bus, logger logger.Logger, cfg CoordinatorConfig) *Coordinator {
	timeout := cfg.DefaultTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Coordinator{
		bus:            bus,
		logger:         logger,
		tracer:         telemetry.Tracer("github.com/philly/school-finance/backend/internal/platform/eventbus"),
		defaultTimeout: timeout,
	}
}

// Bus returns the bus the coordinator publishes on.
func (c *Coordinator) Bus() *Bus { return c.bus }

// Request publishes call.Payload on the exchange's request topic and waits for
// the reply carrying the same correlation id.
//
// A Failure reply is returned as an *apperror.AppError. A reply of any type
// other than T is rejected as UNEXPECTED_PAYLOAD. When no reply arrives in
// time the call fails with REQUEST_TIMEOUT; a cancelled ctx fails with
// REQUEST_CANCELLED wrapping ctx.Err().
func Request[T any](ctx context.Context, c *Coordinator, call Call) (T, error) {
	var zero T

	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "bus.request",
		trace.WithAttributes(
			attribute.String("bus.request_topic", string(call.Exchange.Request)),
			attribute.String("bus.response_topic", string(call.Exchange.Response)),
		),
	)
	defer span.End()

	data, outcome, err := c.roundTrip(ctx, call, span)
	if err != nil {
		c.observe(ctx, span, call, start, outcome, err)
		return zero, err
	}

	switch v := data.(type) {
	case Failure:
		appErr := v.Err()
		c.observe(ctx, span, call, start, outcomeRejected, appErr)
		return zero, appErr
	case T:
		c.observe(ctx, span, call, start, outcomeResolved, nil)
		return v, nil
	default:
		appErr := apperror.New(
			apperror.CodeInternalError,
			apperror.BusinessCodeUnexpectedPayload,
			fmt.Sprintf("unexpected reply payload %T on %s", data, call.Exchange.Response),
			http.StatusInternalServerError,
		)
		c.observe(ctx, span, call, start, outcomeUnexpected, appErr)
		return zero, appErr
	}
}

func (c *Coordinator) roundTrip(ctx context.Context, call Call, span trace.Span) (any, string, error) {
	timeout := call.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	correlationID := NewCorrelationID()
	span.SetAttributes(attribute.String("bus.correlation_id", correlationID))

	reply := make(chan any, 1)
	var once sync.Once

	// Subscribe before publishing: a responder may reply inside the dispatch.
	id := c.bus.subscribe(call.Exchange.Response, func(_ context.Context, env Envelope) error {
		if env.CorrelationID != correlationID {
			return nil
		}
		once.Do(func() { reply <- env.Data })
		return nil
	})
	defer c.bus.unsubscribe(call.Exchange.Response, id)

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	go c.bus.Dispatch(reqCtx, Envelope{
		Topic:         call.Exchange.Request,
		Data:          call.Payload,
		CorrelationID: correlationID,
	})

	select {
	case data := <-reply:
		return data, "", nil
	case <-reqCtx.Done():
		// A reply that raced the deadline still wins.
		select {
		case data := <-reply:
			return data, "", nil
		default:
		}
		if ctx.Err() != nil {
			return nil, outcomeCancelled, apperror.Wrap(ctx.Err(),
				apperror.CodeServiceUnavailable,
				apperror.BusinessCodeRequestCancelled,
				fmt.Sprintf("request %s cancelled", call.Exchange.Request),
				http.StatusServiceUnavailable,
			)
		}
		return nil, outcomeTimeout, apperror.New(
			apperror.CodeTimeout,
			apperror.BusinessCodeRequestTimeout,
			fmt.Sprintf("no reply on %s within %s", call.Exchange.Response, timeout),
			http.StatusGatewayTimeout,
		)
	}
}

func (c *Coordinator) observe(ctx context.Context, span trace.Span, call Call, start time.Time, outcome string, err error) {
	elapsed := time.Since(start)
	exchange := call.Exchange.String()

	metrics.BusRequestsTotal.WithLabelValues(exchange, outcome).Inc()
	metrics.BusRequestDuration.WithLabelValues(exchange).Observe(elapsed.Seconds())

	span.SetAttributes(attribute.String("bus.outcome", outcome))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}

	switch outcome {
	case outcomeTimeout, outcomeUnexpected:
		c.logger.Error(ctx, "bus request failed",
			"exchange", exchange,
			"outcome", outcome,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
	default:
		c.logger.Debug(ctx, "bus request completed",
			"exchange", exchange,
			"outcome", outcome,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
}
