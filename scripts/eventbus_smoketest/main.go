// Command eventbus_smoketest publishes a payment event through each
// configured broker and waits for it to come back, to verify a local broker
// setup.
//
// Usage: go run ./scripts/eventbus_smoketest [redis|kafka|nats ...]
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	infra_eventbus "github.com/amirasaad/africapayments/infra/eventbus"
	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/eventbus"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/google/uuid"
)

const (
	warmUp      = 2 * time.Second
	waitTimeout = 15 * time.Second
)

type broker interface {
	eventbus.Bus
	io.Closer
}

// RunSmokeTest round-trips one event through every driver.
func RunSmokeTest(cfg *config.EventBus, drivers []string, logger *slog.Logger) error {
	for _, driver := range drivers {
		if err := roundTrip(cfg, strings.ToLower(strings.TrimSpace(driver)), logger); err != nil {
			logger.Error("smoke test failed", "driver", driver, "error", err)
			return err
		}
		logger.Info("smoke test passed", "driver", driver)
	}
	return nil
}

func roundTrip(cfg *config.EventBus, driver string, logger *slog.Logger) error {
	var (
		bus broker
		err error
	)
	switch driver {
	case config.DriverRedis:
		bus, err = infra_eventbus.NewWithRedis(cfg.Redis, logger)
	case config.DriverKafka:
		bus, err = infra_eventbus.NewWithKafka(cfg.Kafka, logger)
	case config.DriverNATS:
		bus, err = infra_eventbus.NewWithNATS(cfg.NATS, logger)
	default:
		return fmt.Errorf("%w: %q", config.ErrUnknownBusDriver, driver)
	}
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	txnID := "smoke-" + uuid.NewString()
	received := make(chan struct{})
	var once sync.Once
	bus.Register(payment.EventPaymentSuccessful, func(_ context.Context, e payment.Event) error {
		if e.TransactionID == txnID {
			once.Do(func() { close(received) })
		}
		return nil
	})
	time.Sleep(warmUp)

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	event := payment.NewSuccessful(payment.EventDetails{
		TransactionID:        txnID,
		TransactionReference: "smoke",
		TransactionAmount:    100,
		TransactionCurrency:  payment.CurrencyXOF,
		PaymentMethod:        payment.MethodWave,
		PaymentProvider:      "smoketest",
	})
	if err := bus.Emit(ctx, event); err != nil {
		return fmt.Errorf("emit failed: %w", err)
	}
	logger.Info("produced", "driver", driver, "transaction_id", txnID)

	select {
	case <-received:
		logger.Info("consumed", "driver", driver, "transaction_id", txnID)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event not received within %s", waitTimeout)
	}
}

// main runs the smoke test and exits non-zero on failure.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(".env")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	drivers := os.Args[1:]
	if len(drivers) == 0 {
		drivers = cfg.EventBus.Drivers
	}
	if len(drivers) == 0 {
		drivers = []string{config.DriverRedis, config.DriverKafka, config.DriverNATS}
	}
	if err := RunSmokeTest(cfg.EventBus, drivers, logger); err != nil {
		os.Exit(1)
	}
}
