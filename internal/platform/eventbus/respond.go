package eventbus

import (
	"context"
	"fmt"
	"net/http"

	"github.com/philly/school-finance/backend/internal/platform/apperror"
)

// ResponderFunc answers one request. Returned errors are converted to a
// Failure reply with FailureFrom.
type ResponderFunc[Req, Res any] func(ctx context.Context, req Req) (Res, error)

// Respond registers fn as the responder for exchange. Whatever happens inside
// fn, exactly one reply is published on exchange.Response carrying the
// request's correlation id.
func Respond[Req, Res any](bus *Bus, exchange Exchange, fn ResponderFunc[Req, Res]) {
	bus.Subscribe(exchange.Request, responder(bus, exchange, fn))
}

// RespondExclusive removes one earlier responder on the request topic before
// registering fn, so an exchange registered once per startup keeps a single
// responder.
func RespondExclusive[Req, Res any](bus *Bus, exchange Exchange, fn ResponderFunc[Req, Res]) {
	bus.RemoveSpecificListener(exchange.Request)
	Respond(bus, exchange, fn)
}

func responder[Req, Res any](bus *Bus, exchange Exchange, fn ResponderFunc[Req, Res]) Handler {
	return func(ctx context.Context, env Envelope) error {
		reply := func(data any) {
			bus.Dispatch(ctx, Envelope{
				Topic:         exchange.Response,
				Data:          data,
				CorrelationID: env.CorrelationID,
			})
		}

		req, ok := env.Data.(Req)
		if !ok {
			bus.logger.Warn(ctx, "malformed request payload",
				"topic", exchange.Request,
				"payload_type", fmt.Sprintf("%T", env.Data),
			)
			reply(Failure{
				Code:         http.StatusBadRequest,
				Message:      fmt.Sprintf("malformed payload for %s", exchange.Request),
				BusinessCode: apperror.BusinessCodeMalformedPayload,
			})
			return nil
		}

		res, err := safeCall(ctx, fn, req)
		if err != nil {
			if _, ok := apperror.As(err); !ok {
				bus.logger.Error(ctx, "responder failed", "topic", exchange.Request, "error", err)
			}
			reply(FailureFrom(err))
			return nil
		}

		reply(res)
		return nil
	}
}

func safeCall[Req, Res any](ctx context.Context, fn ResponderFunc[Req, Res], req Req) (res Res, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("responder panicked: %v", r)
		}
	}()
	return fn(ctx, req)
}
