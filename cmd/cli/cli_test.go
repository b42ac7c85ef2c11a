package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/amirasaad/africapayments/infra/provider/mockpayment"
	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/orchestrator"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/amirasaad/africapayments/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type harness struct {
	payments *orchestrator.AfricaPaymentsProvider
	closed   bool
	envFile  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := testutils.DiscardLogger()
	payments, err := orchestrator.New([]payment.Provider{
		mockpayment.NewNullProvider("null", logger),
		mockpayment.NewBogusPaymentProvider(&config.Bogus{Name: "bogus", InstantEvents: true}, logger),
	}, orchestrator.WithLogger(logger))
	require.NoError(t, err)
	return &harness{payments: payments}
}

func (h *harness) load(envFile string) (Payments, io.Closer, error) {
	h.envFile = envFile
	return h.payments, closerFunc(func() error {
		h.closed = true
		return nil
	}), nil
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(h.load)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func decode(t *testing.T, out string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	return m
}

func TestProviders(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "providers", "--env-file", "test.env")
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{"null", "bogus"}, names)
	assert.Equal(t, "test.env", h.envFile)
	assert.True(t, h.closed)
}

func TestCheckoutWave(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "checkout", "wave",
		"--amount", "1500", "--first-name", "Awa", "--phone", "+221771234567", "--txn", "txn-cli")
	require.NoError(t, err)

	result := decode(t, out)
	assert.Equal(t, "txn-cli", result["transactionId"])
	assert.Equal(t, "bogus", result["paymentProvider"])
	assert.Equal(t, "XOF", result["transactionCurrency"])
}

func TestCheckoutWave_RequiresPhone(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "checkout", "wave", "--amount", "1500")
	assert.Error(t, err)
}

func TestCheckout_RejectsNonPositiveAmount(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "checkout", "card", "--amount", "-5", "--card-number", "4242")
	assert.ErrorContains(t, err, "--amount must be positive")
}

func TestCheckoutOrangeMoney_PromptsForOTP(t *testing.T) {
	prev := promptOTP
	t.Cleanup(func() { promptOTP = prev })
	var prompted bool
	promptOTP = func() (string, error) {
		prompted = true
		return "123456", nil
	}

	h := newHarness(t)
	out, err := h.run(t, "checkout", "orange-money",
		"--amount", "500", "--first-name", "Awa", "--phone", "+221771234567", "--prompt-otp")
	require.NoError(t, err)
	assert.True(t, prompted)
	assert.Contains(t, decode(t, out)["transactionReference"], "orange_money-")
}

func TestCheckoutOrangeMoney_PromptFailure(t *testing.T) {
	prev := promptOTP
	t.Cleanup(func() { promptOTP = prev })
	promptOTP = func() (string, error) { return "", errors.New("interrupted") }

	h := newHarness(t)
	_, err := h.run(t, "checkout", "orange-money",
		"--amount", "500", "--phone", "+221771234567", "--prompt-otp")
	assert.ErrorContains(t, err, "interrupted")
}

func TestCheckoutRedirect_OpensBrowser(t *testing.T) {
	prev := openURL
	t.Cleanup(func() { openURL = prev })
	var opened string
	openURL = func(url string) error {
		opened = url
		return nil
	}

	h := newHarness(t)
	_, err := h.run(t, "checkout", "redirect",
		"--amount", "2500", "--email", "awa@example.com",
		"--success-url", "https://shop.example.com/ok", "--open")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/ok", opened)
}

func TestPayoutRefundStatus(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "payout", "--method", "wave", "--amount", "1000", "--phone", "+221771234567")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", decode(t, out)["transactionStatus"])

	_, err = h.run(t, "payout", "--method", "card", "--amount", "1000", "--phone", "+221771234567")
	assert.ErrorContains(t, err, "--method must be WAVE or ORANGE_MONEY")

	out, err = h.run(t, "refund", "wave-1", "--provider", "bogus", "--amount", "200")
	require.NoError(t, err)
	assert.EqualValues(t, 200, decode(t, out)["transactionAmount"])

	_, err = h.run(t, "refund", "wave-1")
	assert.True(t, payment.IsUnsupported(err))

	out, err = h.run(t, "checkout", "card", "--amount", "700", "--card-number", "4242424242424242")
	require.NoError(t, err)
	ref := decode(t, out)["transactionReference"].(string)

	out, err = h.run(t, "status", ref, "--provider", "bogus", "--interval", "1ms", "--max-attempts", "1")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", decode(t, out)["status"])
}

func TestLoaderError(t *testing.T) {
	root := newRootCmd(func(string) (Payments, io.Closer, error) {
		return nil, nil, errors.New("no config")
	})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"providers"})
	assert.ErrorContains(t, root.Execute(), "no config")
}
