package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/eventbus"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/nats-io/nats.go"
)

// NATSEventBus publishes events to one subject per event type.
type NATSEventBus struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewWithNATS connects to the NATS server at cfg.URL.
func NewWithNATS(cfg *config.NATS, logger *slog.Logger) (*NATSEventBus, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("nats event bus: url is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("bus", "nats")
	conn, err := nats.Connect(cfg.URL,
		nats.Name("africapayments"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("disconnected from nats", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("reconnected to nats", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats event bus: connect: %w", err)
	}
	return &NATSEventBus{conn: conn, prefix: cfg.SubjectPrefix, logger: logger}, nil
}

// Emit publishes the event. ctx is only checked before publishing; NATS core
// publishes do not block on the server.
func (b *NATSEventBus) Emit(ctx context.Context, event payment.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := buildEnvelope(event)
	if err != nil {
		return fmt.Errorf("nats event bus: %w", err)
	}
	if err := b.conn.Publish(subjectFor(b.prefix, event.Type), data); err != nil {
		return fmt.Errorf("nats event bus: publish failed: %w", err)
	}
	return nil
}

// Register subscribes handler to the event subject.
func (b *NATSEventBus) Register(eventType payment.EventType, handler eventbus.HandlerFunc) {
	subject := subjectFor(b.prefix, eventType)
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		event, err := decodeEnvelope(msg.Data)
		if err != nil {
			b.logger.Error("failed to decode event", "error", err, "subject", msg.Subject)
			return
		}
		if err := handler(context.Background(), event); err != nil {
			b.logger.Error("handler error", "error", err, "event_type", eventType)
		}
	})
	if err != nil {
		b.logger.Error("failed to subscribe", "error", err, "subject", subject)
		return
	}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
}

// Close drains subscriptions and closes the connection.
func (b *NATSEventBus) Close() error {
	return b.conn.Drain()
}

var _ eventbus.Bus = (*NATSEventBus)(nil)
