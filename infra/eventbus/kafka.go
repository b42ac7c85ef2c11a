package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/eventbus"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/segmentio/kafka-go"
)

// KafkaEventBus publishes events to one topic per event type.
type KafkaEventBus struct {
	brokers []string
	prefix  string
	writer  *kafka.Writer
	logger  *slog.Logger

	handlers    map[payment.EventType][]eventbus.HandlerFunc
	handlersMtx sync.RWMutex
	readers     map[payment.EventType]*kafka.Reader
	readersMtx  sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithKafka creates a Kafka-backed event bus. Topics are created on first
// write.
func NewWithKafka(cfg *config.Kafka, logger *slog.Logger) (*KafkaEventBus, error) {
	if cfg == nil {
		return nil, fmt.Errorf("kafka event bus: config is required")
	}
	brokers := parseBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := &KafkaEventBus{
		brokers: brokers,
		prefix:  cfg.TopicPrefix,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireOne,
			Balancer:               &kafka.Hash{},
		},
		logger:   logger.With("bus", "kafka"),
		handlers: make(map[payment.EventType][]eventbus.HandlerFunc),
		readers:  make(map[payment.EventType]*kafka.Reader),
		ctx:      ctx,
		cancel:   cancel,
	}
	bus.logger.Info("🚀 Kafka event bus initialized", "brokers", brokers, "topic_prefix", cfg.TopicPrefix)
	return bus, nil
}

// Emit writes the event keyed by transaction id so one transaction's events
// stay ordered within a partition.
func (b *KafkaEventBus) Emit(ctx context.Context, event payment.Event) error {
	data, err := buildEnvelope(event)
	if err != nil {
		return fmt.Errorf("kafka event bus: %w", err)
	}
	msg := kafka.Message{
		Topic: topicNameFor(b.prefix, event.Type),
		Key:   []byte(event.TransactionID),
		Value: data,
		Time:  time.Now(),
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

// Register adds a handler and starts a reader for the event topic.
func (b *KafkaEventBus) Register(eventType payment.EventType, handler eventbus.HandlerFunc) {
	b.handlersMtx.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.handlersMtx.Unlock()

	b.readersMtx.Lock()
	defer b.readersMtx.Unlock()
	if _, ok := b.readers[eventType]; ok {
		return
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: b.brokers,
		GroupID: DefaultConsumerGroup,
		Topic:   topicNameFor(b.prefix, eventType),
	})
	b.readers[eventType] = reader
	b.wg.Add(1)
	go b.consumeLoop(eventType, reader)
}

func (b *KafkaEventBus) consumeLoop(eventType payment.EventType, reader *kafka.Reader) {
	defer b.wg.Done()
	for {
		msg, err := reader.ReadMessage(b.ctx)
		if err != nil {
			if b.ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			b.logger.Error("failed to read message", "error", err, "event_type", eventType)
			time.Sleep(time.Second)
			continue
		}
		event, err := decodeEnvelope(msg.Value)
		if err != nil {
			b.logger.Error("failed to decode event", "error", err, "offset", msg.Offset)
			continue
		}

		b.handlersMtx.RLock()
		handlers := append([]eventbus.HandlerFunc(nil), b.handlers[eventType]...)
		b.handlersMtx.RUnlock()
		for _, handler := range handlers {
			if err := handler(b.ctx, event); err != nil {
				b.logger.Error("handler error", "error", err, "event_type", eventType, "offset", msg.Offset)
			}
		}
	}
}

// Close stops readers and flushes the writer.
func (b *KafkaEventBus) Close() error {
	b.cancel()
	b.readersMtx.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.readersMtx.Unlock()
	b.wg.Wait()
	return b.writer.Close()
}

func parseBrokers(brokers []string) []string {
	out := make([]string, 0, len(brokers))
	for _, entry := range brokers {
		for _, p := range strings.Split(entry, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
