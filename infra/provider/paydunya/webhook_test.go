package paydunya

import (
	"context"
	"testing"

	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ipnBody(hash, status, code string) payment.ParsedBody {
	return payment.ParsedBody{
		"response_code": code,
		"response_text": "Transaction " + status,
		"hash":          hash,
		"status":        status,
		"invoice": map[string]any{
			"token":        "tok_123",
			"total_amount": "5000",
		},
		"custom_data": map[string]any{
			"transaction_id": "txn-1",
			"order":          "42",
		},
		"customer": map[string]any{
			"phone":          "781234567",
			"payment_method": "orange_money_senegal",
		},
	}
}

func TestHandleWebhook_Statuses(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		code       string
		wantType   payment.EventType
		wantReason string
	}{
		{name: "completed", status: "completed", code: "00", wantType: payment.EventPaymentSuccessful},
		{
			name: "cancelled", status: "cancelled", code: "00",
			wantType: payment.EventPaymentCancelled, wantReason: "Transaction cancelled",
		},
		{
			name: "failed", status: "failed", code: "00",
			wantType: payment.EventPaymentFailed, wantReason: "Transaction failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, rec := newTestProvider(t)

			event, err := p.HandleWebhook(context.Background(), ipnBody(masterKeyHash(), tt.status, tt.code), nil)
			require.NoError(t, err)
			require.NotNil(t, event)

			assert.Equal(t, tt.wantType, event.Type)
			assert.Equal(t, "txn-1", event.TransactionID)
			assert.Equal(t, "tok_123", event.TransactionReference)
			assert.Equal(t, int64(5000), event.TransactionAmount)
			assert.Equal(t, payment.CurrencyXOF, event.TransactionCurrency)
			assert.Equal(t, payment.MethodOrangeMoney, event.PaymentMethod)
			assert.Equal(t, tt.wantReason, event.Reason)
			assert.Equal(t, "42", event.Metadata["order"])

			emitted := rec.Events()
			require.Len(t, emitted, 1)
			assert.Equal(t, *event, emitted[0])
		})
	}
}

func TestHandleWebhook_NoEvent(t *testing.T) {
	tests := []struct {
		name string
		body payment.WebhookBody
	}{
		{name: "wrong hash", body: ipnBody("forged", "completed", "00")},
		{name: "missing hash", body: ipnBody("", "completed", "00")},
		{name: "completed without success code", body: ipnBody(masterKeyHash(), "completed", "01")},
		{name: "pending status", body: ipnBody(masterKeyHash(), "pending", "00")},
		{name: "raw body", body: payment.RawBody(`{"hash":"x"}`)},
		{name: "malformed invoice", body: payment.ParsedBody{"hash": masterKeyHash(), "invoice": "oops"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, rec := newTestProvider(t)

			event, err := p.HandleWebhook(context.Background(), tt.body, nil)
			assert.NoError(t, err)
			assert.Nil(t, event)
			assert.Empty(t, rec.Events())
		})
	}
}

func TestHandleWebhook_FormEnvelope(t *testing.T) {
	p, _, rec := newTestProvider(t)

	body := payment.ParsedBody{"data": map[string]any(ipnBody(masterKeyHash(), "completed", "00"))}
	event, err := p.HandleWebhook(context.Background(), body, nil)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, payment.EventPaymentSuccessful, event.Type)
	assert.Len(t, rec.Events(), 1)
}
