package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyProviderOrder = errors.New("payment provider order is empty")
	ErrUnknownProvider    = errors.New("unknown payment provider")
	ErrInvalidMode        = errors.New("invalid provider mode")
	ErrUnknownBusDriver   = errors.New("unknown event bus driver")
	ErrUnknownCacheStore  = errors.New("unknown idempotency store")
)

// Known provider kinds accepted in PaymentProviders.Order.
const (
	ProviderPaydunya = "paydunya"
	ProviderTaarih   = "taarih"
	ProviderStripe   = "stripe"
	ProviderBogus    = "bogus"
)

// Known event bus drivers accepted in EventBus.Drivers.
const (
	DriverRedis = "redis"
	DriverKafka = "kafka"
	DriverNATS  = "nats"
)

// Known idempotency stores.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Validate checks cross-field constraints envconfig cannot express.
func (a *App) Validate() error {
	if a.PaymentProviders == nil || len(a.PaymentProviders.Order) == 0 {
		return ErrEmptyProviderOrder
	}
	for _, name := range a.PaymentProviders.Order {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case ProviderPaydunya:
			if err := validMode(a.PaymentProviders.Paydunya.Mode); err != nil {
				return fmt.Errorf("paydunya: %w", err)
			}
		case ProviderTaarih:
			if err := validMode(a.PaymentProviders.Taarih.Mode); err != nil {
				return fmt.Errorf("taarih: %w", err)
			}
		case ProviderStripe, ProviderBogus:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownProvider, name)
		}
	}
	if a.EventBus != nil {
		for _, d := range a.EventBus.Drivers {
			switch strings.ToLower(strings.TrimSpace(d)) {
			case DriverRedis, DriverKafka, DriverNATS:
			default:
				return fmt.Errorf("%w: %q", ErrUnknownBusDriver, d)
			}
		}
	}
	if a.Idempotency != nil && a.Idempotency.Enabled {
		switch strings.ToLower(a.Idempotency.Store) {
		case StoreMemory, StoreRedis:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownCacheStore, a.Idempotency.Store)
		}
	}
	return nil
}

func validMode(mode string) error {
	switch mode {
	case "test", "live":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}
