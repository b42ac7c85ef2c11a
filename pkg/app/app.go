// Package app assembles the payment orchestrator with its event listeners.
package app

import (
	"errors"
	"io"
	"log/slog"

	"github.com/amirasaad/africapayments/pkg/cache"
	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/eventbus"
	"github.com/amirasaad/africapayments/pkg/orchestrator"
)

// Deps contains the dependencies built by the initializer.
type Deps struct {
	Payments    *orchestrator.AfricaPaymentsProvider
	EventBus    eventbus.Bus
	Logger      *slog.Logger
	// Idempotency remembers responses to POSTs sent with an
	// Idempotency-Key header. Nil disables replay.
	Idempotency cache.Store
	// Closers release broker and cache connections on shutdown.
	Closers []io.Closer
}

type App struct {
	Deps   *Deps
	Config *config.App
}

// New creates an App and registers the default event listeners.
func New(deps *Deps, cfg *config.App) *App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	a := &App{
		Deps:   deps,
		Config: cfg,
	}
	a.setupEventBus()
	return a
}

// Close releases every closer, joining their errors.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.Deps.Closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
