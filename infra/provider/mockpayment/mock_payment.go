// Package mockpayment provides gateway stand-ins for local development and
// tests: a provider that simulates outcomes and one that serves nothing.
package mockpayment

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/provider"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/google/uuid"
)

// Simulated transaction statuses reported by Callback.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// failureSuffix marks a phone number, authorization code or card number
// whose payment should fail.
const failureSuffix = "13"

// failureEmailDomain marks a redirect checkout whose payment should fail.
const failureEmailDomain = "failure.com"

type mockPayment struct {
	status   string
	amount   int64
	currency payment.Currency
}

// BogusPaymentProvider simulates a gateway without any network access.
//
// Checkouts are accepted immediately. With instant events the INITIATED event
// is followed by SUCCESSFUL or FAILED straight away; otherwise the outcome
// waits for a webhook. Callback reports the simulated status by reference.
//
// This is NOT for production use.
type BogusPaymentProvider struct {
	*provider.Base
	instantEvents bool

	mu       sync.Mutex
	payments map[string]*mockPayment
}

var (
	_ payment.Provider = (*BogusPaymentProvider)(nil)
	_ payment.Poller   = (*BogusPaymentProvider)(nil)
)

// NewBogusPaymentProvider creates a BogusPaymentProvider.
func NewBogusPaymentProvider(cfg *config.Bogus, logger *slog.Logger) *BogusPaymentProvider {
	name, instant := config.ProviderBogus, true
	if cfg != nil {
		if cfg.Name != "" {
			name = cfg.Name
		}
		instant = cfg.InstantEvents
	}
	return &BogusPaymentProvider{
		Base:          provider.NewBase(name, logger),
		instantEvents: instant,
		payments:      make(map[string]*mockPayment),
	}
}

// CheckoutMobileMoney fails Wave payments whose phone number, and Orange
// Money payments whose authorization code, ends in 13.
func (m *BogusPaymentProvider) CheckoutMobileMoney(
	ctx context.Context,
	opts payment.MobileMoneyCheckout,
) (*payment.CheckoutResult, error) {
	var failure bool
	switch c := opts.(type) {
	case *payment.WaveCheckout:
		failure = strings.HasSuffix(c.Customer.PhoneNumber, failureSuffix)
	case *payment.OrangeMoneyCheckout:
		failure = strings.HasSuffix(c.AuthorizationCode, failureSuffix)
	default:
		return nil, m.Unsupported("this mobile money method")
	}
	return m.checkout(ctx, opts.Options(), opts.Method(), failure), nil
}

// CheckoutCreditCard fails card numbers ending in 13.
func (m *BogusPaymentProvider) CheckoutCreditCard(
	ctx context.Context,
	opts *payment.CreditCardCheckout,
) (*payment.CheckoutResult, error) {
	failure := strings.HasSuffix(opts.Card.Number, failureSuffix)
	return m.checkout(ctx, &opts.CheckoutOptions, payment.MethodCreditCard, failure), nil
}

// CheckoutRedirect fails customers whose email ends in failure.com.
func (m *BogusPaymentProvider) CheckoutRedirect(
	ctx context.Context,
	opts *payment.RedirectCheckout,
) (*payment.CheckoutResult, error) {
	failure := strings.HasSuffix(opts.Customer.Email, failureEmailDomain)
	return m.checkout(ctx, &opts.CheckoutOptions, opts.PaymentMethod, failure), nil
}

func (m *BogusPaymentProvider) checkout(
	ctx context.Context,
	opts *payment.CheckoutOptions,
	method payment.PaymentMethod,
	failure bool,
) *payment.CheckoutResult {
	prefix := "redirect"
	if method != "" {
		prefix = strings.ToLower(string(method))
	}
	reference := prefix + "-" + uuid.NewString()

	status := StatusPending
	if m.instantEvents {
		status = StatusCompleted
		if failure {
			status = StatusFailed
		}
	}
	m.mu.Lock()
	m.payments[reference] = &mockPayment{status: status, amount: opts.Amount, currency: opts.Currency}
	m.mu.Unlock()

	m.Logger().Debug("simulated checkout",
		"handler", "bogus.Checkout",
		"transaction_id", opts.TransactionID,
		"reference", reference,
		"failure", failure,
	)

	redirectURL := opts.SuccessRedirectURL
	if failure {
		redirectURL = opts.FailureRedirectURL
	}

	if m.instantEvents {
		details := payment.EventDetails{
			TransactionID:        opts.TransactionID,
			TransactionReference: reference,
			TransactionAmount:    opts.Amount,
			TransactionCurrency:  opts.Currency,
			PaymentMethod:        method,
			PaymentProvider:      m.Name(),
			Metadata:             opts.Metadata,
		}
		m.Emit(ctx, payment.NewInitiated(details, redirectURL))
		if failure {
			m.Emit(ctx, payment.NewFailed(details, "Payment failed"))
		} else {
			m.Emit(ctx, payment.NewSuccessful(details))
		}
	}

	return &payment.CheckoutResult{
		TransactionID:        opts.TransactionID,
		TransactionReference: reference,
		TransactionStatus:    payment.StatusPending,
		TransactionAmount:    opts.Amount,
		TransactionCurrency:  opts.Currency,
		RedirectURL:          redirectURL,
		PaymentProvider:      m.Name(),
	}
}

// Refund accepts every refund.
func (m *BogusPaymentProvider) Refund(_ context.Context, opts *payment.RefundOptions) (*payment.RefundResult, error) {
	m.Logger().Debug("simulated refund",
		"handler", "bogus.Refund",
		"transaction_id", opts.TransactionID,
		"refunded_reference", opts.RefundedTransactionReference,
	)
	return &payment.RefundResult{
		TransactionID:        opts.TransactionID,
		TransactionReference: "refund-" + uuid.NewString(),
		TransactionStatus:    payment.StatusPending,
		TransactionAmount:    opts.RefundedAmount,
		TransactionCurrency:  payment.CurrencyXOF,
		PaymentProvider:      m.Name(),
	}, nil
}

// PayoutMobileMoney accepts every payout and reports it settled.
func (m *BogusPaymentProvider) PayoutMobileMoney(
	_ context.Context,
	opts *payment.MobileMoneyPayout,
) (*payment.PayoutResult, error) {
	m.Logger().Debug("simulated payout",
		"handler", "bogus.PayoutMobileMoney",
		"transaction_id", opts.TransactionID,
	)
	return &payment.PayoutResult{
		TransactionID:        opts.TransactionID,
		TransactionReference: "payout-" + uuid.NewString(),
		TransactionStatus:    payment.StatusSuccess,
		TransactionAmount:    opts.Amount,
		TransactionCurrency:  opts.Currency,
		PaymentProvider:      m.Name(),
	}, nil
}

// WebhookBody is the JSON payload accepted by HandleWebhook.
type WebhookBody struct {
	// Success defaults to true when absent.
	Success              *bool                 `json:"success"`
	Amount               int64                 `json:"amount"`
	TransactionID        string                `json:"transactionId"`
	TransactionReference string                `json:"transactionReference"`
	PaymentMethod        payment.PaymentMethod `json:"paymentMethod"`
	Currency             payment.Currency      `json:"currency"`
	Metadata             map[string]any        `json:"metadata,omitempty"`
}

// HandleWebhook settles a simulated payment from a JSON payment.RawBody.
func (m *BogusPaymentProvider) HandleWebhook(
	ctx context.Context,
	body payment.WebhookBody,
	_ *payment.HandleWebhookOptions,
) (*payment.Event, error) {
	log := m.Logger().With("handler", "bogus.HandleWebhook")
	raw, ok := body.(payment.RawBody)
	if !ok {
		log.Error("webhook body must be the raw body")
		return nil, nil
	}
	var wb WebhookBody
	if err := json.Unmarshal(raw, &wb); err != nil {
		log.Warn("failed to parse webhook body", "error", err)
		return nil, nil
	}

	details := payment.EventDetails{
		TransactionID:        wb.TransactionID,
		TransactionReference: wb.TransactionReference,
		TransactionAmount:    wb.Amount,
		TransactionCurrency:  wb.Currency,
		PaymentMethod:        wb.PaymentMethod,
		PaymentProvider:      m.Name(),
		Metadata:             wb.Metadata,
	}
	event := payment.NewSuccessful(details)
	status := StatusCompleted
	if wb.Success != nil && !*wb.Success {
		event = payment.NewFailed(details, "Payment failed")
		status = StatusFailed
	}

	m.mu.Lock()
	if p, ok := m.payments[wb.TransactionReference]; ok {
		p.status = status
	}
	m.mu.Unlock()

	m.Emit(ctx, event)
	return &event, nil
}

// Callback reports the simulated status of a checkout reference without
// waiting. Unknown references fail with ErrorUnknown.
func (m *BogusPaymentProvider) Callback(
	ctx context.Context,
	reference string,
	_ time.Duration,
	_ int,
) (*payment.StatusSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[reference]
	if !ok {
		return nil, payment.Errorf(payment.ErrorUnknown, "unknown transaction reference %q", reference)
	}
	return &payment.StatusSnapshot{
		Status:   p.status,
		Amount:   p.amount,
		Currency: string(p.currency),
		Attempts: 1,
	}, nil
}
