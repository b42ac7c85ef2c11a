// Package orchestrator routes payment operations across an ordered list of
// providers and gives callers one subscription point for lifecycle events.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	infra_eventbus "github.com/amirasaad/africapayments/infra/eventbus"
	"github.com/amirasaad/africapayments/pkg/eventbus"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
)

// Name is the identifier the orchestrator reports as a payment.Provider.
const Name = "africapayments"

var (
	// ErrNoProviderAvailable is wrapped when every provider declined an
	// operation as unsupported.
	ErrNoProviderAvailable = errors.New("no provider could process the request")
	// ErrProviderNotFound is wrapped when a named provider is not configured.
	ErrProviderNotFound = errors.New("payment provider not found")
	// ErrEmptyProviderList is returned by New without providers.
	ErrEmptyProviderList = errors.New("at least one payment provider is required")
)

// AfricaPaymentsProvider tries providers in priority order. Checkouts and
// payouts move to the next provider only when the current one reports
// ErrorUnsupportedPaymentMethod; any other failure stops the search. Refunds,
// webhooks and status polling go to exactly one provider, selected by name.
type AfricaPaymentsProvider struct {
	providers []payment.Provider
	byName    map[string]payment.Provider
	bus       eventbus.Bus
	logger    *slog.Logger

	mu   sync.RWMutex
	sink payment.EventSink
}

var (
	_ payment.Provider  = (*AfricaPaymentsProvider)(nil)
	_ payment.EventSink = (*AfricaPaymentsProvider)(nil)
)

// Option configures an AfricaPaymentsProvider.
type Option func(*AfricaPaymentsProvider)

// WithEventBus replaces the default in-memory bus.
func WithEventBus(bus eventbus.Bus) Option {
	return func(a *AfricaPaymentsProvider) {
		if bus != nil {
			a.bus = bus
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *AfricaPaymentsProvider) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an AfricaPaymentsProvider and attaches it as the event sink of
// every provider. The first provider is tried first.
func New(providers []payment.Provider, opts ...Option) (*AfricaPaymentsProvider, error) {
	if len(providers) == 0 {
		return nil, ErrEmptyProviderList
	}
	a := &AfricaPaymentsProvider{
		providers: append([]payment.Provider(nil), providers...),
		byName:    make(map[string]payment.Provider, len(providers)),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "orchestrator")
	if a.bus == nil {
		a.bus = infra_eventbus.NewWithMemory(a.logger)
	}

	for _, p := range a.providers {
		if p == nil {
			return nil, fmt.Errorf("nil payment provider")
		}
		if _, dup := a.byName[p.Name()]; dup {
			return nil, fmt.Errorf("duplicate payment provider name %q", p.Name())
		}
		a.byName[p.Name()] = p
		p.AttachEventSink(a)
	}
	return a, nil
}

// Name returns the orchestrator identifier.
func (a *AfricaPaymentsProvider) Name() string {
	return Name
}

// Providers returns the provider names in priority order.
func (a *AfricaPaymentsProvider) Providers() []string {
	names := make([]string, len(a.providers))
	for i, p := range a.providers {
		names[i] = p.Name()
	}
	return names
}

// Provider looks up a provider by name.
func (a *AfricaPaymentsProvider) Provider(name string) (payment.Provider, bool) {
	p, ok := a.byName[name]
	return p, ok
}

// On registers handler for eventType.
func (a *AfricaPaymentsProvider) On(eventType payment.EventType, handler eventbus.HandlerFunc) {
	a.bus.Register(eventType, handler)
}

// AttachEventSink adds an external sink that receives every event after the
// bus listeners.
func (a *AfricaPaymentsProvider) AttachEventSink(sink payment.EventSink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sink = sink
}

// Emit is the sink every provider emits into. It never fails: listener and
// forwarder errors are logged.
func (a *AfricaPaymentsProvider) Emit(ctx context.Context, event payment.Event) error {
	if err := a.bus.Emit(ctx, event); err != nil {
		a.logger.Warn("event bus emit failed", "event_type", event.Type, "error", err)
	}
	a.mu.RLock()
	sink := a.sink
	a.mu.RUnlock()
	if sink != nil {
		if err := sink.Emit(ctx, event); err != nil {
			a.logger.Warn("external sink emit failed", "event_type", event.Type, "error", err)
		}
	}
	return nil
}

// tryEachProvider runs op against each provider in order.
func tryEachProvider[T any](
	ctx context.Context,
	a *AfricaPaymentsProvider,
	operation string,
	op func(context.Context, payment.Provider) (*T, error),
) (*T, error) {
	log := a.logger.With("operation", operation)
	for _, p := range a.providers {
		result, err := op(ctx, p)
		if err == nil {
			log.Debug("provider processed request", "provider", p.Name())
			return result, nil
		}
		if !payment.IsUnsupported(err) {
			log.Warn("provider failed", "provider", p.Name(), "error", err, "error_type", payment.TypeOf(err))
			return nil, err
		}
		log.Debug("provider declined, trying next", "provider", p.Name(), "reason", err)
	}
	return nil, payment.WrapError(ErrNoProviderAvailable, payment.ErrorUnknown, "")
}

// CheckoutMobileMoney tries each provider in order.
func (a *AfricaPaymentsProvider) CheckoutMobileMoney(
	ctx context.Context,
	opts payment.MobileMoneyCheckout,
) (*payment.CheckoutResult, error) {
	return tryEachProvider(ctx, a, "checkout_mobile_money",
		func(ctx context.Context, p payment.Provider) (*payment.CheckoutResult, error) {
			return p.CheckoutMobileMoney(ctx, opts)
		})
}

// CheckoutCreditCard tries each provider in order.
func (a *AfricaPaymentsProvider) CheckoutCreditCard(
	ctx context.Context,
	opts *payment.CreditCardCheckout,
) (*payment.CheckoutResult, error) {
	return tryEachProvider(ctx, a, "checkout_credit_card",
		func(ctx context.Context, p payment.Provider) (*payment.CheckoutResult, error) {
			return p.CheckoutCreditCard(ctx, opts)
		})
}

// CheckoutRedirect tries each provider in order.
func (a *AfricaPaymentsProvider) CheckoutRedirect(
	ctx context.Context,
	opts *payment.RedirectCheckout,
) (*payment.CheckoutResult, error) {
	return tryEachProvider(ctx, a, "checkout_redirect",
		func(ctx context.Context, p payment.Provider) (*payment.CheckoutResult, error) {
			return p.CheckoutRedirect(ctx, opts)
		})
}

// PayoutMobileMoney tries each provider in order.
func (a *AfricaPaymentsProvider) PayoutMobileMoney(
	ctx context.Context,
	opts *payment.MobileMoneyPayout,
) (*payment.PayoutResult, error) {
	return tryEachProvider(ctx, a, "payout_mobile_money",
		func(ctx context.Context, p payment.Provider) (*payment.PayoutResult, error) {
			return p.PayoutMobileMoney(ctx, opts)
		})
}

// Refund goes to the provider named in opts, or the first provider.
func (a *AfricaPaymentsProvider) Refund(ctx context.Context, opts *payment.RefundOptions) (*payment.RefundResult, error) {
	if opts == nil {
		return nil, payment.NewError("missing refund options", payment.ErrorUnknown)
	}
	p, err := a.selectProvider(opts.ProviderName)
	if err != nil {
		return nil, err
	}
	return p.Refund(ctx, opts)
}

// HandleWebhook goes to the provider named in opts, or the first provider.
func (a *AfricaPaymentsProvider) HandleWebhook(
	ctx context.Context,
	body payment.WebhookBody,
	opts *payment.HandleWebhookOptions,
) (*payment.Event, error) {
	var name string
	if opts != nil {
		name = opts.ProviderName
	}
	p, err := a.selectProvider(name)
	if err != nil {
		return nil, err
	}
	return p.HandleWebhook(ctx, body, opts)
}

// Callback polls the status of correlationID on the named provider, or the
// first provider. Providers that do not poll fail with
// ErrorUnsupportedPaymentMethod.
func (a *AfricaPaymentsProvider) Callback(
	ctx context.Context,
	providerName string,
	correlationID string,
	interval time.Duration,
	maxAttempts int,
) (*payment.StatusSnapshot, error) {
	p, err := a.selectProvider(providerName)
	if err != nil {
		return nil, err
	}
	poller, ok := p.(payment.Poller)
	if !ok {
		return nil, payment.Errorf(payment.ErrorUnsupportedPaymentMethod,
			"%s does not support status polling", p.Name())
	}
	return poller.Callback(ctx, correlationID, interval, maxAttempts)
}

func (a *AfricaPaymentsProvider) selectProvider(name string) (payment.Provider, error) {
	if name == "" {
		return a.providers[0], nil
	}
	p, ok := a.byName[name]
	if !ok {
		return nil, payment.WrapError(
			fmt.Errorf("%w: %s", ErrProviderNotFound, name),
			payment.ErrorUnknown,
			"Provider not found",
		)
	}
	return p, nil
}
