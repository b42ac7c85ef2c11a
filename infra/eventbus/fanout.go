package eventbus

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amirasaad/africapayments/pkg/eventbus"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
)

// Fanout registers handlers on a local bus and copies every emitted event to
// a set of broker publishers.
type Fanout struct {
	local      eventbus.Bus
	publishers []eventbus.Publisher
	logger     *slog.Logger
}

// NewFanout creates a Fanout over local. Nil publishers are skipped.
func NewFanout(local eventbus.Bus, logger *slog.Logger, publishers ...eventbus.Publisher) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Fanout{local: local, logger: logger.With("bus", "fanout")}
	for _, p := range publishers {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

// Register registers handler on the local bus.
func (f *Fanout) Register(eventType payment.EventType, handler eventbus.HandlerFunc) {
	f.local.Register(eventType, handler)
}

// Emit delivers event locally, then to every publisher. Publisher failures
// are logged and joined into the returned error.
func (f *Fanout) Emit(ctx context.Context, event payment.Event) error {
	var errs []error
	if err := f.local.Emit(ctx, event); err != nil {
		errs = append(errs, err)
	}
	for _, p := range f.publishers {
		if err := p.Emit(ctx, event); err != nil {
			f.logger.Warn("failed to forward event",
				"type", event.Type,
				"transaction_id", event.TransactionID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ eventbus.Bus = (*Fanout)(nil)
