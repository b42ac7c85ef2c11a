package initializer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/africapayments/infra/provider/breaker"
	"github.com/amirasaad/africapayments/infra/provider/mockpayment"
	"github.com/amirasaad/africapayments/infra/provider/paydunya"
	"github.com/amirasaad/africapayments/infra/provider/stripepayment"
	"github.com/amirasaad/africapayments/infra/provider/taarih"
	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/stripe/stripe-go/v82"
)

type providerFactory func(cfg *config.PaymentProviders, logger *slog.Logger) (payment.Provider, error)

var providerFactories = map[string]providerFactory{
	config.ProviderPaydunya: func(cfg *config.PaymentProviders, logger *slog.Logger) (payment.Provider, error) {
		return paydunya.New(cfg.Paydunya, logger)
	},
	config.ProviderTaarih: func(cfg *config.PaymentProviders, logger *slog.Logger) (payment.Provider, error) {
		return taarih.New(cfg.Taarih, logger)
	},
	config.ProviderStripe: func(cfg *config.PaymentProviders, logger *slog.Logger) (payment.Provider, error) {
		var opts []stripepayment.Option
		if cfg.Stripe != nil && cfg.Stripe.BackendURL != "" {
			opts = append(opts, stripepayment.WithBackends(stripe.NewBackendsWithConfig(&stripe.BackendConfig{
				URL: stripe.String(cfg.Stripe.BackendURL),
			})))
		}
		return stripepayment.New(cfg.Stripe, logger, opts...)
	},
	config.ProviderBogus: func(cfg *config.PaymentProviders, logger *slog.Logger) (payment.Provider, error) {
		return mockpayment.NewBogusPaymentProvider(cfg.Bogus, logger), nil
	},
}

// buildProviders constructs the providers listed in the configured order,
// each behind a circuit breaker when enabled.
func buildProviders(cfg *config.App, logger *slog.Logger) ([]payment.Provider, error) {
	if cfg.PaymentProviders == nil || len(cfg.PaymentProviders.Order) == 0 {
		return nil, config.ErrEmptyProviderOrder
	}
	providers := make([]payment.Provider, 0, len(cfg.PaymentProviders.Order))
	for _, raw := range cfg.PaymentProviders.Order {
		kind := strings.ToLower(strings.TrimSpace(raw))
		factory, ok := providerFactories[kind]
		if !ok {
			return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, raw)
		}
		p, err := factory(cfg.PaymentProviders, logger)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		if cfg.Breaker != nil && cfg.Breaker.Enabled {
			p = breaker.Wrap(p, *cfg.Breaker, logger)
		}
		logger.Info("Payment provider configured", "kind", kind, "provider", p.Name())
		providers = append(providers, p)
	}
	return providers, nil
}
