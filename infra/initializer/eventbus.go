package initializer

import (
	"io"
	"log/slog"
	"strings"

	infra_eventbus "github.com/amirasaad/africapayments/infra/eventbus"
	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/eventbus"
)

// initEventBus returns the in-memory bus, fanned out to every configured
// broker. A broker that cannot be reached is logged and skipped so the
// service still starts with in-process listeners.
func initEventBus(cfg *config.EventBus, logger *slog.Logger) (eventbus.Bus, []io.Closer) {
	memory := infra_eventbus.NewWithMemory(logger)
	if cfg == nil || len(cfg.Drivers) == 0 {
		return memory, nil
	}

	var (
		publishers []eventbus.Publisher
		closers    []io.Closer
	)
	for _, raw := range cfg.Drivers {
		driver := strings.ToLower(strings.TrimSpace(raw))
		var (
			bus interface {
				eventbus.Publisher
				io.Closer
			}
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
			logger.Warn("Unknown event bus driver, skipping", "driver", raw)
			continue
		}
		if err != nil {
			logger.Error("Failed to create event forwarder, skipping", "driver", driver, "error", err)
			continue
		}
		logger.Info("Event forwarder enabled", "driver", driver)
		publishers = append(publishers, bus)
		closers = append(closers, bus)
	}
	if len(publishers) == 0 {
		return memory, nil
	}
	return infra_eventbus.NewFanout(memory, logger, publishers...), closers
}
