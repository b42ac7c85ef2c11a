// Package eventbus provides in-process and broker-backed implementations of
// the payment event bus.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/amirasaad/africapayments/pkg/eventbus"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
)

// MemoryEventBus dispatches events synchronously to in-process handlers.
// Handler errors and panics are logged and do not affect other handlers.
type MemoryEventBus struct {
	handlers  map[payment.EventType][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	record    bool
	published []payment.Event
}

// MemoryOption configures a MemoryEventBus.
type MemoryOption func(*MemoryEventBus)

// WithRecording keeps every emitted event for Published. Only tests should
// enable it: the record is never trimmed.
func WithRecording() MemoryOption {
	return func(b *MemoryEventBus) {
		b.record = true
	}
}

// NewWithMemory creates a new in-memory event bus.
func NewWithMemory(logger *slog.Logger, opts ...MemoryOption) *MemoryEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &MemoryEventBus{
		handlers: make(map[payment.EventType][]eventbus.HandlerFunc),
		logger:   logger.With("bus", "memory"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register registers a handler for a specific event type.
func (b *MemoryEventBus) Register(eventType payment.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit dispatches the event to all registered handlers for its type.
func (b *MemoryEventBus) Emit(ctx context.Context, event payment.Event) error {
	b.mu.Lock()
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[event.Type]...)
	if b.record {
		b.published = append(b.published, event)
	}
	b.mu.Unlock()

	for _, handler := range handlers {
		b.run(ctx, handler, event)
	}
	return nil
}

func (b *MemoryEventBus) run(ctx context.Context, handler eventbus.HandlerFunc, event payment.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic recovered in event handler",
				"type", event.Type,
				"transaction_id", event.TransactionID,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	if err := handler(ctx, event); err != nil {
		b.logger.Error("failed to process event",
			"type", event.Type,
			"transaction_id", event.TransactionID,
			"error", err,
		)
	}
}

// ClearPublished clears the list of published events.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
}

// Published returns a copy of every event emitted so far. It is empty unless
// the bus was built WithRecording.
func (b *MemoryEventBus) Published() []payment.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]payment.Event(nil), b.published...)
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)
