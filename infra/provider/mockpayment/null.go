package mockpayment

import (
	"context"
	"log/slog"

	"github.com/amirasaad/africapayments/pkg/provider"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
)

// NullProvider serves no operation. Every call fails with
// ErrorUnsupportedPaymentMethod, so an orchestrator always moves past it.
type NullProvider struct {
	*provider.Base
}

var _ payment.Provider = (*NullProvider)(nil)

// NewNullProvider creates a NullProvider called name.
func NewNullProvider(name string, logger *slog.Logger) *NullProvider {
	if name == "" {
		name = "null"
	}
	return &NullProvider{Base: provider.NewBase(name, logger)}
}

func (n *NullProvider) CheckoutMobileMoney(
	context.Context,
	payment.MobileMoneyCheckout,
) (*payment.CheckoutResult, error) {
	return nil, n.Unsupported("mobile money payments")
}

func (n *NullProvider) CheckoutCreditCard(
	context.Context,
	*payment.CreditCardCheckout,
) (*payment.CheckoutResult, error) {
	return nil, n.Unsupported("credit card payments")
}

func (n *NullProvider) CheckoutRedirect(
	context.Context,
	*payment.RedirectCheckout,
) (*payment.CheckoutResult, error) {
	return nil, n.Unsupported("redirect payments")
}

func (n *NullProvider) PayoutMobileMoney(
	context.Context,
	*payment.MobileMoneyPayout,
) (*payment.PayoutResult, error) {
	return nil, n.Unsupported("mobile money payouts")
}

func (n *NullProvider) Refund(context.Context, *payment.RefundOptions) (*payment.RefundResult, error) {
	return nil, n.Unsupported("refunds")
}

// HandleWebhook ignores every delivery.
func (n *NullProvider) HandleWebhook(
	context.Context,
	payment.WebhookBody,
	*payment.HandleWebhookOptions,
) (*payment.Event, error) {
	return nil, nil
}
