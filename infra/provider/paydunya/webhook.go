package paydunya

import (
	"context"
	"crypto/subtle"

	"github.com/amirasaad/africapayments/pkg/provider/payment"
)

// HandleWebhook verifies and maps an IPN delivery. It accepts a
// payment.ParsedBody only; the hash field must equal the hex SHA-512 of the
// master key. Unverifiable deliveries and unknown statuses yield no event.
func (p *Provider) HandleWebhook(
	ctx context.Context,
	body payment.WebhookBody,
	_ *payment.HandleWebhookOptions,
) (*payment.Event, error) {
	log := p.Logger().With("handler", "paydunya.HandleWebhook")

	parsed, ok := body.(payment.ParsedBody)
	if !ok {
		log.Error("webhook body must be a parsed object, not the raw body")
		return nil, nil
	}
	if data, ok := parsed["data"].(map[string]any); ok {
		parsed = data
	}

	var ipn invoiceStatus
	if err := decodeParsed(parsed, &ipn); err != nil {
		log.Warn("failed to decode webhook body", "error", err)
		return nil, nil
	}
	if ipn.Hash == "" {
		log.Warn("missing hash in webhook body")
		return nil, nil
	}
	if subtle.ConstantTimeCompare([]byte(ipn.Hash), []byte(p.masterKeyHash)) != 1 {
		log.Warn("invalid hash in webhook body")
		return nil, nil
	}
	if ipn.Invoice == nil {
		log.Warn("missing invoice in webhook body")
		return nil, nil
	}

	transactionID, _ := ipn.CustomData["transaction_id"].(string)
	details := payment.EventDetails{
		TransactionID:        transactionID,
		TransactionReference: ipn.Invoice.Token,
		TransactionAmount:    int64(ipn.Invoice.TotalAmount),
		TransactionCurrency:  payment.CurrencyXOF,
		PaymentMethod:        invoiceMethods[ipn.Customer.PaymentMethod],
		PaymentProvider:      p.Name(),
		Metadata:             ipn.CustomData,
	}

	var event payment.Event
	switch {
	case ipn.Status == statusCompleted && ipn.ResponseCode == responseCodeSuccess:
		event = payment.NewSuccessful(details)
	case ipn.Status == statusCancelled:
		event = payment.NewCancelled(details, ipn.ResponseText)
	case ipn.Status == statusFailed:
		event = payment.NewFailed(details, failReason(ipn))
	default:
		log.Info("ignoring webhook", "status", ipn.Status, "response_code", ipn.ResponseCode)
		return nil, nil
	}

	p.Emit(ctx, event)
	log.Info("webhook processed",
		"event_type", event.Type,
		"transaction_id", event.TransactionID,
		"invoice_token", event.TransactionReference,
	)
	return &event, nil
}

func failReason(ipn invoiceStatus) string {
	if ipn.FailReason != "" {
		return ipn.FailReason
	}
	return ipn.ResponseText
}
