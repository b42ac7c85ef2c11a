package initializer

import (
	"fmt"
	"log/slog"

	"github.com/amirasaad/africapayments/pkg/app"
	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/orchestrator"
)

// InitializeDependencies builds the logger, providers, event bus and
// orchestrator described by cfg.
func InitializeDependencies(cfg *config.App) (*app.Deps, error) {
	logger := SetupLogger(cfg.Log)
	return initialize(cfg, logger)
}

func initialize(cfg *config.App, logger *slog.Logger) (*app.Deps, error) {
	deps := &app.Deps{Logger: logger}

	providers, err := buildProviders(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment providers: %w", err)
	}

	bus, closers := initEventBus(cfg.EventBus, logger)
	deps.EventBus = bus
	deps.Closers = closers

	store, closer := initIdempotencyStore(cfg.Idempotency, logger)
	deps.Idempotency = store
	if closer != nil {
		deps.Closers = append(deps.Closers, closer)
	}

	deps.Payments, err = orchestrator.New(providers,
		orchestrator.WithEventBus(bus),
		orchestrator.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orchestrator: %w", err)
	}

	logger.Info("🚀 Payment providers initialized", "order", deps.Payments.Providers())
	return deps, nil
}
