// Package eventbus defines the contract for publishing and subscribing to
// payment lifecycle events.
package eventbus

import (
	"context"

	"github.com/amirasaad/africapayments/pkg/provider/payment"
)

// HandlerFunc handles one event. A returned error is logged by the bus and
// never reaches the emitter's caller.
type HandlerFunc func(ctx context.Context, event payment.Event) error

// Bus dispatches events to the handlers registered for their type.
type Bus interface {
	Register(eventType payment.EventType, handler HandlerFunc)
	Emit(ctx context.Context, event payment.Event) error
}

// Publisher only emits. Forwarders to external brokers implement it.
type Publisher interface {
	Emit(ctx context.Context, event payment.Event) error
}

// SinkFunc adapts a function to payment.EventSink.
type SinkFunc func(ctx context.Context, event payment.Event) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, event payment.Event) error {
	return f(ctx, event)
}
