// Package events provides a simple event bus for publish/subscribe
// patterns between the provisioning flow and notification adapters.
package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Event names published by the application.
const (
	CredentialIssued  = "credential.issued"
	CredentialRevoked = "credential.revoked"
)

// Event represents a published event.
type Event struct {
	// Name is the event name (e.g., "credential.issued").
	Name string

	// Data contains the event payload.
	Data map[string]any
}

// Handler is a function that processes an event.
type Handler func(ctx context.Context, event Event) error

// Bus is a simple publish/subscribe event bus. Handlers run
// synchronously in publish order; a failing handler is logged and does
// not stop the others.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   zerolog.Logger
}

// NewBus creates a new event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event name.
func (b *Bus) Subscribe(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// Publish emits an event to all handlers registered for its name.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]Handler{}, b.handlers[event.Name]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			b.logger.Warn().
				Err(err).
				Str("event", event.Name).
				Msg("event handler failed")
		}
	}
}
