package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/amirasaad/africapayments/pkg/provider/payment"
)

// Base holds the state every provider shares: its configured name, a logger
// and the attached event sink. Concrete providers embed it.
type Base struct {
	name   string
	logger *slog.Logger

	mu   sync.RWMutex
	sink payment.EventSink
}

// NewBase creates a Base for the provider called name.
func NewBase(name string, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{
		name:   name,
		logger: logger.With("provider", name),
	}
}

// Name returns the provider identifier.
func (b *Base) Name() string {
	return b.name
}

// Logger returns the provider scoped logger.
func (b *Base) Logger() *slog.Logger {
	return b.logger
}

// AttachEventSink replaces the sink used by subsequent calls.
func (b *Base) AttachEventSink(sink payment.EventSink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sink = sink
}

// Emit pushes event to the attached sink. Sink errors and panics are logged
// and never reach the caller.
func (b *Base) Emit(ctx context.Context, event payment.Event) {
	b.mu.RLock()
	sink := b.sink
	b.mu.RUnlock()
	if sink == nil {
		return
	}
	if event.PaymentProvider == "" {
		event.PaymentProvider = b.name
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event sink panicked",
				"event_type", event.Type,
				"transaction_id", event.TransactionID,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	if err := sink.Emit(ctx, event); err != nil {
		b.logger.Warn("failed to emit event",
			"event_type", event.Type,
			"transaction_id", event.TransactionID,
			"error", err,
		)
	}
}

// Unsupported builds the error returned for operations a provider does not
// serve.
func (b *Base) Unsupported(operation string) error {
	return payment.Errorf(
		payment.ErrorUnsupportedPaymentMethod,
		"%s does not support %s",
		b.name,
		operation,
	)
}
