// Package stripepayment implements redirect checkout through Stripe Checkout
// Sessions. Settlement is reported by signed webhooks.
package stripepayment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/provider"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/stripe/stripe-go/v82"
)

// StripePaymentProvider is the redirect-only Stripe provider.
type StripePaymentProvider struct {
	*provider.Base
	client          *stripe.Client
	cfg             *config.Stripe
	webhookHandlers map[string]webhookHandler
}

var _ payment.Provider = (*StripePaymentProvider)(nil)

// webhookHandler maps a verified checkout session to events. It emits every
// event it builds and returns the last one, or nil when nothing applies.
type webhookHandler func(context.Context, *stripe.CheckoutSession, *slog.Logger) *payment.Event

// Option configures a StripePaymentProvider.
type Option func(*[]stripe.ClientOption)

// WithBackends routes API calls through backends, typically pointed at a
// test server.
func WithBackends(backends *stripe.Backends) Option {
	return func(opts *[]stripe.ClientOption) {
		*opts = append(*opts, stripe.WithBackends(backends))
	}
}

// New creates a StripePaymentProvider.
func New(cfg *config.Stripe, logger *slog.Logger, opts ...Option) (*StripePaymentProvider, error) {
	if cfg == nil || cfg.ApiKey == "" {
		return nil, fmt.Errorf("stripe: api key is required")
	}
	var clientOpts []stripe.ClientOption
	for _, opt := range opts {
		opt(&clientOpts)
	}
	name := cfg.Name
	if name == "" {
		name = config.ProviderStripe
	}

	s := &StripePaymentProvider{
		Base:   provider.NewBase(name, logger),
		client: stripe.NewClient(cfg.ApiKey, clientOpts...),
		cfg:    cfg,
	}
	s.initializeWebhookHandlers()
	return s, nil
}

func (s *StripePaymentProvider) initializeWebhookHandlers() {
	s.webhookHandlers = map[string]webhookHandler{
		"checkout.session.completed":               s.handleCheckoutSessionCompleted,
		"checkout.session.async_payment_succeeded": s.handleAsyncPaymentSucceeded,
		"checkout.session.async_payment_failed":    s.handleAsyncPaymentFailed,
		"checkout.session.expired":                 s.handleCheckoutSessionExpired,
	}
}

// CheckoutRedirect creates a Checkout Session with a single line item and
// returns its hosted URL. Mobile money methods are left to other providers.
func (s *StripePaymentProvider) CheckoutRedirect(
	ctx context.Context,
	opts *payment.RedirectCheckout,
) (*payment.CheckoutResult, error) {
	if opts == nil {
		return nil, payment.NewError("missing checkout options", payment.ErrorUnknown)
	}
	if opts.PaymentMethod.IsMobileMoney() {
		return nil, payment.Errorf(payment.ErrorUnsupportedPaymentMethod,
			"Stripe does not support %s payments", opts.PaymentMethod)
	}
	log := s.Logger().With(
		"handler", "stripe.CheckoutRedirect",
		"transaction_id", opts.TransactionID,
	)

	metadata, err := encodeMetadata(opts.Metadata)
	if err != nil {
		return nil, payment.WrapError(err, payment.ErrorUnknown, "invalid checkout metadata")
	}
	metadata["transactionId"] = opts.TransactionID

	successURL := opts.SuccessRedirectURL
	if successURL == "" {
		successURL = s.cfg.SuccessURL
	}
	cancelURL := opts.FailureRedirectURL
	if cancelURL == "" {
		cancelURL = s.cfg.CancelURL
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Metadata:   metadata,
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency: stripe.String(strings.ToLower(string(opts.Currency))),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(opts.Description),
				},
				UnitAmount: stripe.Int64(opts.Amount),
			},
			Quantity: stripe.Int64(1),
		}},
	}
	if opts.PaymentMethod == payment.MethodCreditCard {
		params.PaymentMethodTypes = stripe.StringSlice([]string{"card"})
	}
	if opts.Customer.Email != "" {
		params.CustomerEmail = stripe.String(opts.Customer.Email)
	}

	session, err := s.client.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		log.Error("failed to create checkout session", "error", err)
		return nil, payment.WrapError(err, payment.ErrorUnknown, "failed to create checkout session")
	}
	if session.URL == "" {
		return nil, payment.NewError("Stripe did not return a checkout URL", payment.ErrorUnknown)
	}

	log.Info("✅ Created checkout session", "session_id", session.ID)
	return &payment.CheckoutResult{
		TransactionID:        opts.TransactionID,
		TransactionReference: session.ID,
		TransactionStatus:    payment.StatusPending,
		TransactionAmount:    opts.Amount,
		TransactionCurrency:  opts.Currency,
		RedirectURL:          session.URL,
		PaymentProvider:      s.Name(),
	}, nil
}

// CheckoutMobileMoney is not offered by Stripe.
func (s *StripePaymentProvider) CheckoutMobileMoney(
	context.Context,
	payment.MobileMoneyCheckout,
) (*payment.CheckoutResult, error) {
	return nil, s.Unsupported("mobile money payments")
}

// CheckoutCreditCard is not offered; raw card fields never reach Stripe.
func (s *StripePaymentProvider) CheckoutCreditCard(
	context.Context,
	*payment.CreditCardCheckout,
) (*payment.CheckoutResult, error) {
	return nil, s.Unsupported("direct credit card payments, use redirect checkout")
}

// PayoutMobileMoney is not offered by Stripe.
func (s *StripePaymentProvider) PayoutMobileMoney(
	context.Context,
	*payment.MobileMoneyPayout,
) (*payment.PayoutResult, error) {
	return nil, s.Unsupported("mobile money payouts")
}

// Refund is not offered by this provider.
func (s *StripePaymentProvider) Refund(context.Context, *payment.RefundOptions) (*payment.RefundResult, error) {
	return nil, s.Unsupported("refunds")
}

// encodeMetadata JSON-encodes every value, Stripe metadata being string only.
func encodeMetadata(in map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("metadata %q: %w", k, err)
		}
		out[k] = string(raw)
	}
	return out, nil
}

// decodeMetadata reverses encodeMetadata, keeping values that are not JSON
// as plain strings.
func decodeMetadata(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			out[k] = v
			continue
		}
		out[k] = decoded
	}
	return out
}
