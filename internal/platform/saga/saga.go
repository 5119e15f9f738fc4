// Package saga composes dependent request/reply round trips into one
// sequential operation. A step runs only after every earlier step succeeded;
// the first failure aborts the rest and is returned unchanged. No
// compensation is performed.
package saga

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/telemetry"
)

// ErrAlreadyStarted is returned when Run is called more than once.
var ErrAlreadyStarted = errors.New("saga already started")

// Status is the lifecycle position of a saga.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusFailed  Status = "failed"
	StatusDone    Status = "done"
)

// StepFunc performs one step. Data flows between steps through variables the
// step closures share.
type StepFunc func(ctx context.Context) error

// State is a snapshot of a saga's progress.
type State struct {
	Status     Status
	Current    string
	Completed  []string
	FailedStep string
	Err        error
}

type step struct {
	name string
	fn   StepFunc
}

// Saga is a named, ordered list of steps.
type Saga struct {
	name   string
	steps  []step
	logger logger.Logger

	mu    sync.Mutex
	state State
}

// New creates an empty saga.
func New(name string, logger logger.Logger) *Saga {
	return &Saga{
		name:   name,
		logger: logger,
		state:  State{Status: StatusPending},
	}
}

// Step appends a step and returns the saga for chaining.
func (s *Saga) Step(name string, fn StepFunc) *Saga {
	s.steps = append(s.steps, step{name: name, fn: fn})
	return s
}

// Run executes the steps in order.
func (s *Saga) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Status != StatusPending {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state.Status = StatusRunning
	s.mu.Unlock()

	ctx, span := telemetry.Tracer("github.com/philly/school-finance/backend/internal/platform/saga").
		Start(ctx, "saga."+s.name)
	defer span.End()

	for _, st := range s.steps {
		s.setCurrent(st.name)

		if err := ctx.Err(); err != nil {
			s.fail(ctx, st.name, err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		if err := st.fn(ctx); err != nil {
			s.fail(ctx, st.name, err)
			span.SetAttributes(attribute.String("saga.failed_step", st.name))
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		s.complete(st.name)
	}

	s.mu.Lock()
	s.state.Status = StatusDone
	s.state.Current = ""
	s.mu.Unlock()

	s.logger.Debug(ctx, "saga completed", "saga", s.name, "steps", len(s.steps))
	return nil
}

// State returns a copy of the current progress.
func (s *Saga) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Completed = append([]string(nil), s.state.Completed...)
	return st
}

func (s *Saga) setCurrent(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Current = name
}

func (s *Saga) complete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Completed = append(s.state.Completed, name)
}

func (s *Saga) fail(ctx context.Context, name string, err error) {
	s.mu.Lock()
	s.state.Status = StatusFailed
	s.state.FailedStep = name
	s.state.Err = err
	s.mu.Unlock()

	s.logger.Warn(ctx, "saga step failed", "saga", s.name, "step", name, "error", err)
}
