package event

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mes/backend/internal/domain/shared"
)

// InMemoryEventBus dispatches domain events to in-process handlers. Handlers
// run synchronously in subscription order; a failing handler is logged and
// skipped so one subscriber cannot starve the others.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	all      []shared.EventHandler
	logger   *zap.Logger
	started  bool
}

// NewInMemoryEventBus creates an in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		handlers: make(map[string][]shared.EventHandler),
		logger:   logger,
	}
}

// Subscribe registers a handler for specific event types. With no types the
// handler receives every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	if len(eventTypes) == 0 {
		b.all = append(b.all, handler)
		return
	}
	for _, t := range eventTypes {
		b.handlers[t] = append(b.handlers[t], handler)
	}
}

// Unsubscribe removes a handler everywhere it is registered
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for t, hs := range b.handlers {
		b.handlers[t] = removeHandler(hs, handler)
	}
	b.all = removeHandler(b.all, handler)
}

func removeHandler(hs []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	out := hs[:0]
	for _, h := range hs {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}

// Publish delivers events to matching handlers
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, event := range events {
		for _, h := range b.handlers[event.EventType()] {
			b.dispatch(ctx, h, event)
		}
		for _, h := range b.all {
			b.dispatch(ctx, h, event)
		}
	}
	return nil
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, h shared.EventHandler, event shared.DomainEvent) {
	if err := h.Handle(ctx, event); err != nil {
		b.logger.Warn("event handler failed",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err))
	}
}

// Start implements shared.EventBus
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = true
	return nil
}

// Stop implements shared.EventBus
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = false
	return nil
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
