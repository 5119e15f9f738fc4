package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/metrics"
)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is an in-process, synchronous fan-out dispatcher.
// Handlers for a topic run in registration order in the publisher's goroutine.
type Bus struct {
	subscriptions map[Topic][]subscription
	nextID        uint64
	mu            sync.RWMutex // Protects subscriptions and nextID
	logger        logger.Logger
}

// NewBus creates a new event bus.
func NewBus(logger logger.Logger) *Bus {
	return &Bus{
		subscriptions: make(map[Topic][]subscription),
		logger:        logger,
	}
}

// Subscribe registers handler for every future publish of topic.
func (b *Bus) Subscribe(topic Topic, handler Handler) {
	b.subscribe(topic, handler)
}

func (b *Bus) subscribe(topic Topic, handler Handler) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subscriptions[topic] = append(b.subscriptions[topic], subscription{id: b.nextID, handler: handler})
	return b.nextID
}

// unsubscribe removes the registration with the given id, if still present.
func (b *Bus) unsubscribe(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscriptions[topic]
	for i, s := range subs {
		if s.id == id {
			b.setLocked(topic, append(append(subs[:0:0], subs[:i]...), subs[i+1:]...))
			return
		}
	}
}

// RemoveSpecificListener removes the oldest remaining registration for topic.
// It is a no-op when nothing is registered.
func (b *Bus) RemoveSpecificListener(topic Topic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscriptions[topic]
	if len(subs) == 0 {
		return
	}
	b.setLocked(topic, append(subs[:0:0], subs[1:]...))
}

func (b *Bus) setLocked(topic Topic, subs []subscription) {
	if len(subs) == 0 {
		delete(b.subscriptions, topic)
		return
	}
	b.subscriptions[topic] = subs
}

// HandlerCount reports how many registrations topic currently has.
func (b *Bus) HandlerCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions[topic])
}

// Publish sends data to every current subscriber of topic (fire-and-forget).
// Publishing to a topic with no subscribers is a silent no-op.
func (b *Bus) Publish(ctx context.Context, topic Topic, data any) {
	b.Dispatch(ctx, Envelope{Topic: topic, Data: data})
}

// Dispatch delivers a pre-built envelope, stamping OccurredAt when unset.
func (b *Bus) Dispatch(ctx context.Context, env Envelope) {
	if env.OccurredAt.IsZero() {
		env.OccurredAt = time.Now()
	}

	// Snapshot so handlers can subscribe, publish and await without deadlocking.
	b.mu.RLock()
	subs := b.subscriptions[env.Topic]
	handlers := make([]Handler, len(subs))
	for i, s := range subs {
		handlers[i] = s.handler
	}
	b.mu.RUnlock()

	metrics.BusPublishedTotal.WithLabelValues(string(env.Topic)).Inc()

	for _, h := range handlers {
		b.invoke(ctx, env, h)
	}
}

func (b *Bus) invoke(ctx context.Context, env Envelope, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			metrics.BusHandlerFailuresTotal.WithLabelValues(string(env.Topic), "panic").Inc()
			b.logger.Error(ctx, "event handler panicked", "topic", env.Topic, "panic", r)
		}
	}()

	if err := h(ctx, env); err != nil {
		metrics.BusHandlerFailuresTotal.WithLabelValues(string(env.Topic), "error").Inc()
		b.logger.Error(ctx, "event handler failed", "topic", env.Topic, "error", err)
	}
}
