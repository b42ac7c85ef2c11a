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
	"github.com/redis/go-redis/v9"
)

// DefaultConsumerGroup is the consumer group used by broker-backed buses.
const DefaultConsumerGroup = "africapayments"

// RedisEventBus publishes events to a Redis stream and, once a handler is
// registered, consumes the stream through a consumer group.
type RedisEventBus struct {
	client *redis.Client
	stream string
	group  string
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[payment.EventType][]eventbus.HandlerFunc
	start    sync.Once

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithRedis connects to Redis and prepares the stream and consumer group.
func NewWithRedis(cfg *config.Redis, logger *slog.Logger) (*RedisEventBus, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("redis event bus: url is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis event bus: invalid URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opt.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opt.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opt.WriteTimeout = cfg.WriteTimeout
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithCancel(context.Background())
	if err := client.Ping(ctx).Err(); err != nil {
		cancel()
		_ = client.Close()
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}

	stream := cfg.Stream
	if stream == "" {
		stream = "payments:events"
	}
	bus := &RedisEventBus{
		client:   client,
		stream:   stream,
		group:    DefaultConsumerGroup,
		logger:   logger.With("bus", "redis", "stream", stream),
		handlers: make(map[payment.EventType][]eventbus.HandlerFunc),
		ctx:      ctx,
		cancel:   cancel,
	}

	err = client.XGroupCreateMkStream(ctx, stream, bus.group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		_ = bus.Close()
		return nil, fmt.Errorf("redis event bus: create group: %w", err)
	}
	return bus, nil
}

// Emit appends the event to the stream.
func (b *RedisEventBus) Emit(ctx context.Context, event payment.Event) error {
	data, err := buildEnvelope(event)
	if err != nil {
		return fmt.Errorf("redis event bus: %w", err)
	}
	_, err = b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{
			"type":  event.Type.String(),
			"event": string(data),
		},
	}).Result()
	if err != nil {
		b.logger.Error("failed to emit event", "error", err, "type", event.Type)
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	b.logger.Debug("event emitted", "type", event.Type, "transaction_id", event.TransactionID)
	return nil
}

// Register adds a handler and starts the stream consumer on first use.
func (b *RedisEventBus) Register(eventType payment.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()

	b.start.Do(func() {
		consumer := fmt.Sprintf("consumer-%d", time.Now().UnixNano())
		b.logger.Info("starting stream consumer", "group", b.group, "consumer", consumer)
		b.wg.Add(1)
		go b.consume(consumer)
	})
}

func (b *RedisEventBus) consume(consumer string) {
	defer b.wg.Done()
	for {
		res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: consumer,
			Streams:  []string{b.stream, ">"},
			Count:    10,
			Block:    time.Second,
		}).Result()
		if b.ctx.Err() != nil {
			return
		}
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				b.logger.Error("error reading from stream", "error", err, "consumer", consumer)
				time.Sleep(time.Second)
			}
			continue
		}
		for _, stream := range res {
			for _, msg := range stream.Messages {
				b.process(msg)
			}
		}
	}
}

func (b *RedisEventBus) process(msg redis.XMessage) {
	defer func() {
		if err := b.client.XAck(b.ctx, b.stream, b.group, msg.ID).Err(); err != nil {
			b.logger.Error("failed to acknowledge message", "error", err, "msg_id", msg.ID)
		}
	}()

	raw, ok := msg.Values["event"].(string)
	if !ok {
		b.pushToDLQ(msg.Values)
		return
	}
	event, err := decodeEnvelope([]byte(raw))
	if err != nil {
		b.logger.Error("failed to decode event", "error", err, "msg_id", msg.ID)
		b.pushToDLQ(msg.Values)
		return
	}

	b.mu.RLock()
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("handler panic recovered", "panic", r, "event_type", event.Type)
					b.pushToDLQ(msg.Values)
				}
			}()
			if err := handler(b.ctx, event); err != nil {
				b.logger.Error("handler error", "error", err, "event_type", event.Type)
				b.pushToDLQ(msg.Values)
			}
		}()
	}
}

// pushToDLQ keeps the raw message for inspection or reprocessing.
func (b *RedisEventBus) pushToDLQ(values map[string]any) {
	dlq := dlqStreamName(b.stream)
	if err := b.client.XAdd(b.ctx, &redis.XAddArgs{Stream: dlq, Values: values}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "error", err, "stream", dlq)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", dlq)
}

// Close stops the consumer and closes the client.
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return b.client.Close()
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
