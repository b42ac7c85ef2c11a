// Package breaker guards a payment provider with a circuit breaker.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/sony/gobreaker"
)

// Provider decorates a payment.Provider. Each operation, and each payment
// method within an operation, has its own circuit so a failing flow never
// blocks one the provider declines as unsupported. Only ErrorUnknown failures
// count toward opening a circuit. While open, guarded calls fail with
// ErrorUnknown so they never trigger an orchestrator fallback.
type Provider struct {
	next     payment.Provider
	settings gobreaker.Settings
	logger   *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

var (
	_ payment.Provider = (*Provider)(nil)
	_ payment.Poller   = (*Provider)(nil)
)

// Circuit names.
const (
	OpMobileMoneyCheckout = "checkout.mobile_money"
	OpCreditCardCheckout  = "checkout.credit_card"
	OpRedirectCheckout    = "checkout.redirect"
	OpPayout              = "payout"
	OpRefund              = "refund"
	OpCallback            = "callback"
)

// Wrap guards next with circuit breakers built from cfg.
func Wrap(next payment.Provider, cfg config.Breaker, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("provider", next.Name(), "component", "breaker")
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 1
	}
	settings := gobreaker.Settings{
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"circuit", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: countsAsSuccess,
	}
	return &Provider{
		next:     next,
		settings: settings,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, payment.ErrInvalidAmount) {
		return true
	}
	return payment.TypeOf(err) != payment.ErrorUnknown
}

// circuitName joins an operation and an optional payment method.
func circuitName(op string, method payment.PaymentMethod) string {
	if method == "" {
		return op
	}
	return op + ":" + string(method)
}

func (p *Provider) breaker(name string) *gobreaker.CircuitBreaker {
	p.mu.Lock()
	defer p.mu.Unlock()
	cb, ok := p.breakers[name]
	if !ok {
		settings := p.settings
		settings.Name = name
		cb = gobreaker.NewCircuitBreaker(settings)
		p.breakers[name] = cb
	}
	return cb
}

func execute[T any](p *Provider, circuit string, fn func() (*T, error)) (*T, error) {
	cb := p.breaker(circuit)
	out, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		p.logger.Warn("call rejected by circuit breaker",
			"circuit", circuit,
			"state", cb.State().String(),
		)
		return nil, payment.WrapError(err, payment.ErrorUnknown, p.Name()+" is temporarily unavailable")
	}
	if err != nil {
		return nil, err
	}
	result, _ := out.(*T)
	return result, nil
}

// Unwrap returns the decorated provider.
func (p *Provider) Unwrap() payment.Provider {
	return p.next
}

// State reports the state of one circuit, as named by an Op constant and an
// optional payment method. Circuits that never ran are closed.
func (p *Provider) State(op string, method payment.PaymentMethod) gobreaker.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	cb, ok := p.breakers[circuitName(op, method)]
	if !ok {
		return gobreaker.StateClosed
	}
	return cb.State()
}

func (p *Provider) Name() string {
	return p.next.Name()
}

func (p *Provider) AttachEventSink(sink payment.EventSink) {
	p.next.AttachEventSink(sink)
}

func (p *Provider) CheckoutMobileMoney(
	ctx context.Context,
	opts payment.MobileMoneyCheckout,
) (*payment.CheckoutResult, error) {
	var method payment.PaymentMethod
	if opts != nil {
		method = opts.Method()
	}
	return execute(p, circuitName(OpMobileMoneyCheckout, method), func() (*payment.CheckoutResult, error) {
		return p.next.CheckoutMobileMoney(ctx, opts)
	})
}

func (p *Provider) CheckoutCreditCard(
	ctx context.Context,
	opts *payment.CreditCardCheckout,
) (*payment.CheckoutResult, error) {
	return execute(p, OpCreditCardCheckout, func() (*payment.CheckoutResult, error) {
		return p.next.CheckoutCreditCard(ctx, opts)
	})
}

func (p *Provider) CheckoutRedirect(
	ctx context.Context,
	opts *payment.RedirectCheckout,
) (*payment.CheckoutResult, error) {
	var method payment.PaymentMethod
	if opts != nil {
		method = opts.PaymentMethod
	}
	return execute(p, circuitName(OpRedirectCheckout, method), func() (*payment.CheckoutResult, error) {
		return p.next.CheckoutRedirect(ctx, opts)
	})
}

func (p *Provider) PayoutMobileMoney(
	ctx context.Context,
	opts *payment.MobileMoneyPayout,
) (*payment.PayoutResult, error) {
	var method payment.PaymentMethod
	if opts != nil {
		method = opts.PaymentMethod
	}
	return execute(p, circuitName(OpPayout, method), func() (*payment.PayoutResult, error) {
		return p.next.PayoutMobileMoney(ctx, opts)
	})
}

func (p *Provider) Refund(ctx context.Context, opts *payment.RefundOptions) (*payment.RefundResult, error) {
	return execute(p, OpRefund, func() (*payment.RefundResult, error) {
		return p.next.Refund(ctx, opts)
	})
}

// HandleWebhook is not guarded.
func (p *Provider) HandleWebhook(
	ctx context.Context,
	body payment.WebhookBody,
	opts *payment.HandleWebhookOptions,
) (*payment.Event, error) {
	return p.next.HandleWebhook(ctx, body, opts)
}

// Callback forwards to the decorated provider when it polls, and fails with
// ErrorUnsupportedPaymentMethod otherwise.
func (p *Provider) Callback(
	ctx context.Context,
	correlationID string,
	interval time.Duration,
	maxAttempts int,
) (*payment.StatusSnapshot, error) {
	poller, ok := p.next.(payment.Poller)
	if !ok {
		return nil, payment.Errorf(payment.ErrorUnsupportedPaymentMethod,
			"%s does not support status polling", p.Name())
	}
	return execute(p, OpCallback, func() (*payment.StatusSnapshot, error) {
		return poller.Callback(ctx, correlationID, interval, maxAttempts)
	})
}
