package payment

import (
	"context"
	"time"
)

// Provider is the capability set every payment gateway backend implements.
// Operations a backend cannot serve fail with ErrorUnsupportedPaymentMethod.
type Provider interface {
	// Name is the stable identifier assigned at construction. It routes
	// refunds, webhooks and status checks.
	Name() string

	CheckoutMobileMoney(ctx context.Context, opts MobileMoneyCheckout) (*CheckoutResult, error)

	CheckoutCreditCard(ctx context.Context, opts *CreditCardCheckout) (*CheckoutResult, error)

	CheckoutRedirect(ctx context.Context, opts *RedirectCheckout) (*CheckoutResult, error)

	PayoutMobileMoney(ctx context.Context, opts *MobileMoneyPayout) (*PayoutResult, error)

	Refund(ctx context.Context, opts *RefundOptions) (*RefundResult, error)

	// HandleWebhook verifies and maps a webhook delivery. It returns a nil
	// event and nil error when the payload cannot be verified or parsed.
	HandleWebhook(ctx context.Context, body WebhookBody, opts *HandleWebhookOptions) (*Event, error)

	// AttachEventSink replaces the sink used by all subsequent calls.
	AttachEventSink(sink EventSink)
}

// Poller is implemented by providers that settle by status polling.
type Poller interface {
	// Callback polls the transaction status every interval for at most
	// maxAttempts attempts, stopping early on the first non-pending status.
	// Zero values select DefaultPollInterval and DefaultPollMaxAttempts;
	// other values are clamped to MinPollInterval and MaxPollAttempts.
	Callback(
		ctx context.Context,
		correlationID string,
		interval time.Duration,
		maxAttempts int,
	) (*StatusSnapshot, error)
}
