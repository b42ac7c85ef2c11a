package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/amirasaad/africapayments/infra/provider/mockpayment"
	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/orchestrator"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestNew_RegistersAuditListeners(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	bogus := mockpayment.NewBogusPaymentProvider(&config.Bogus{Name: "bogus", InstantEvents: true}, nil)
	payments, err := orchestrator.New([]payment.Provider{bogus}, orchestrator.WithLogger(logger))
	require.NoError(t, err)
	New(&Deps{Payments: payments, Logger: logger}, &config.App{})

	_, err = payments.CheckoutCreditCard(context.Background(), &payment.CreditCardCheckout{
		CheckoutOptions: payment.CheckoutOptions{TransactionID: "txn-audit", Currency: payment.CurrencyXOF},
		Card:            payment.Card{Number: "4000000000000013"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "event_type=PAYMENT_INITIATED")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "event_type=PAYMENT_FAILED")
	assert.Contains(t, out, "transaction_id=txn-audit")
}

func TestClose_JoinsErrors(t *testing.T) {
	closed := 0
	a := New(&Deps{Closers: []io.Closer{
		closerFunc(func() error { closed++; return nil }),
		closerFunc(func() error { closed++; return errors.New("redis close failed") }),
	}}, &config.App{})

	err := a.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis close failed")
	assert.Equal(t, 2, closed)
}
