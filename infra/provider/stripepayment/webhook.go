package stripepayment

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "Stripe-Signature"

// HandleWebhook verifies a payment.RawBody against the Stripe-Signature
// header and maps checkout session events. Unverifiable or unrelated
// deliveries yield no event.
func (s *StripePaymentProvider) HandleWebhook(
	ctx context.Context,
	body payment.WebhookBody,
	opts *payment.HandleWebhookOptions,
) (*payment.Event, error) {
	log := s.Logger().With("handler", "stripe.HandleWebhook")

	raw, ok := body.(payment.RawBody)
	if !ok {
		log.Error("webhook body must be the raw body")
		return nil, nil
	}
	var signature string
	if opts != nil && opts.Headers != nil {
		signature = opts.Headers.Get(SignatureHeader)
	}
	if signature == "" {
		log.Warn("no signature found in webhook request")
		return nil, nil
	}
	if s.cfg.SigningSecret == "" {
		log.Warn("no webhook signing secret configured")
		return nil, nil
	}

	event, err := webhook.ConstructEventWithOptions(raw, signature, s.cfg.SigningSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		log.Warn("error verifying webhook signature", "error", err)
		return nil, nil
	}

	log = log.With("event_id", event.ID, "event_type", event.Type)
	handler, ok := s.webhookHandlers[string(event.Type)]
	if !ok {
		log.Debug("ignoring webhook event")
		return nil, nil
	}
	if event.Data == nil {
		log.Warn("webhook event has no data")
		return nil, nil
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		log.Warn("error parsing checkout session", "error", err)
		return nil, nil
	}
	if session.Metadata["transactionId"] == "" {
		log.Warn("no transaction ID found in checkout session", "checkout_session_id", session.ID)
		return nil, nil
	}
	return handler(ctx, &session, log.With("checkout_session_id", session.ID)), nil
}

func (s *StripePaymentProvider) details(session *stripe.CheckoutSession) payment.EventDetails {
	return payment.EventDetails{
		TransactionID:        session.Metadata["transactionId"],
		TransactionReference: session.ID,
		TransactionAmount:    session.AmountTotal,
		TransactionCurrency:  payment.Currency(strings.ToUpper(string(session.Currency))),
		PaymentMethod:        payment.MethodCreditCard,
		PaymentProvider:      s.Name(),
		Metadata:             decodeMetadata(session.Metadata),
	}
}

func (s *StripePaymentProvider) handleCheckoutSessionCompleted(
	ctx context.Context,
	session *stripe.CheckoutSession,
	log *slog.Logger,
) *payment.Event {
	initiated := payment.NewInitiated(s.details(session), "")
	s.Emit(ctx, initiated)
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		log.Info("checkout completed, payment pending", "payment_status", session.PaymentStatus)
		return &initiated
	}
	return s.handleAsyncPaymentSucceeded(ctx, session, log)
}

func (s *StripePaymentProvider) handleAsyncPaymentSucceeded(
	ctx context.Context,
	session *stripe.CheckoutSession,
	log *slog.Logger,
) *payment.Event {
	event := payment.NewSuccessful(s.details(session))
	s.Emit(ctx, event)
	log.Info("✅ Payment succeeded", "transaction_id", event.TransactionID)
	return &event
}

func (s *StripePaymentProvider) handleAsyncPaymentFailed(
	ctx context.Context,
	session *stripe.CheckoutSession,
	log *slog.Logger,
) *payment.Event {
	event := payment.NewFailed(s.details(session), "Payment failed")
	s.Emit(ctx, event)
	log.Info("Payment failed", "transaction_id", event.TransactionID)
	return &event
}

func (s *StripePaymentProvider) handleCheckoutSessionExpired(
	ctx context.Context,
	session *stripe.CheckoutSession,
	log *slog.Logger,
) *payment.Event {
	event := payment.NewCancelled(s.details(session), "Checkout session expired")
	s.Emit(ctx, event)
	log.Info("⏰ Checkout session expired", "transaction_id", event.TransactionID)
	return &event
}
