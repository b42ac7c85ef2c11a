package taarih

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/amirasaad/africapayments/pkg/provider/payment"
)

// Callback polls the status of transaction internalID. Each attempt signs in
// and fetches the status; the loop stops at the first non-pending status or
// after maxAttempts checks. A final PENDING snapshot is not an error.
// interval and maxAttempts are clamped with payment.ClampPoll.
func (p *Provider) Callback(
	ctx context.Context,
	internalID string,
	interval time.Duration,
	maxAttempts int,
) (*payment.StatusSnapshot, error) {
	interval, maxAttempts = payment.ClampPoll(interval, maxAttempts)
	log := p.Logger().With(
		"handler", "taarih.Callback",
		"internal_id", internalID,
		"max_attempts", maxAttempts,
	)

	for attempt := 1; ; attempt++ {
		status, err := p.checkStatus(ctx, internalID)
		if err != nil {
			log.Error("status check failed", "attempt", attempt, "error", err)
			return nil, err
		}
		snapshot := &payment.StatusSnapshot{
			Status:            status.Status,
			Amount:            int64(status.Amount),
			Currency:          status.Currency,
			BankAccountSender: status.BankAccountSender,
			Attempts:          attempt,
		}
		if status.Status != StatusPending || attempt >= maxAttempts {
			log.Info("status settled", "status", status.Status, "attempts", attempt)
			return snapshot, nil
		}

		select {
		case <-ctx.Done():
			return nil, payment.WrapError(ctx.Err(), payment.ErrorUnknown, "Taarih status polling cancelled")
		case <-p.clock.After(interval):
		}
	}
}

func (p *Provider) checkStatus(ctx context.Context, internalID string) (*transactionStatus, error) {
	s, err := p.login(ctx)
	if err != nil {
		return nil, err
	}
	var status transactionStatus
	if err := p.call(ctx, s, http.MethodGet, pathStatus+url.PathEscape(internalID), nil, &status); err != nil {
		return nil, err
	}
	if status.Status == "" {
		return nil, payment.NewError("Taarih error: no transaction status data", payment.ErrorUnknown)
	}
	return &status, nil
}

// HandleWebhook accepts a payment.ParsedBody carrying transactionId and
// optional timeInterval (milliseconds) and maxAttempts, polls the
// transaction and emits SUCCESSFUL when it completed or FAILED otherwise.
func (p *Provider) HandleWebhook(
	ctx context.Context,
	body payment.WebhookBody,
	_ *payment.HandleWebhookOptions,
) (*payment.Event, error) {
	log := p.Logger().With("handler", "taarih.HandleWebhook")

	parsed, ok := body.(payment.ParsedBody)
	if !ok {
		log.Error("webhook body must be a parsed object, not the raw body")
		return nil, nil
	}
	var hook webhookBody
	if err := decodeParsed(parsed, &hook); err != nil || hook.TransactionID == "" {
		log.Warn("invalid webhook body", "error", err)
		return nil, nil
	}

	interval := DefaultWebhookPollInterval
	if hook.TimeInterval > 0 {
		interval = time.Duration(hook.TimeInterval) * time.Millisecond
	}
	maxAttempts := DefaultWebhookPollMaxAttempts
	if hook.MaxAttempts > 0 {
		maxAttempts = int(hook.MaxAttempts)
	}

	snapshot, err := p.Callback(ctx, hook.TransactionID, interval, maxAttempts)
	if err != nil {
		return nil, err
	}

	details := payment.EventDetails{
		TransactionID:        hook.TransactionID,
		TransactionReference: hook.TransactionID,
		TransactionAmount:    snapshot.Amount,
		TransactionCurrency:  payment.CurrencyXOF,
		PaymentProvider:      p.Name(),
	}
	var event payment.Event
	if snapshot.Status == StatusCompleted {
		event = payment.NewSuccessful(details)
	} else {
		event = payment.NewFailed(details, "Payment failed")
	}
	p.Emit(ctx, event)

	log.Info("webhook processed",
		"event_type", event.Type,
		"transaction_id", hook.TransactionID,
		"status", snapshot.Status,
	)
	return &event, nil
}
