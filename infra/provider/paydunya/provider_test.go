package paydunya

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/amirasaad/africapayments/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMasterKey = "test-master-key"
	validPhone    = "+221781234567"

	invoiceCreated = `{"response_code":"00","response_text":"https://paydunya.com/checkout/invoice/tok_123","description":"ok","token":"tok_123"}`
	waveAccepted   = `{"success":true,"message":"ok","url":"https://pay.wave.com/c/abc"}`
)

func newTestProvider(t *testing.T) (*Provider, *testutils.Gateway, *testutils.EventRecorder) {
	t.Helper()
	gw := testutils.NewGateway(t)
	p, err := New(&config.Paydunya{
		Name:       "paydunya",
		Mode:       "test",
		MasterKey:  testMasterKey,
		PrivateKey: "private",
		PublicKey:  "public",
		Token:      "token",
		StoreName:  "Test Store",
		BaseURL:    gw.URL(),
	}, testutils.DiscardLogger(), WithHTTPClient(gw.Server.Client()))
	require.NoError(t, err)
	rec := &testutils.EventRecorder{}
	p.AttachEventSink(rec)
	return p, gw, rec
}

func checkoutOptions() payment.CheckoutOptions {
	return payment.CheckoutOptions{
		Amount:        100,
		Currency:      payment.CurrencyXOF,
		Description:   "Test payment",
		TransactionID: "txn-1",
		Customer: payment.Customer{
			FirstName:   "Awa",
			LastName:    "Diop",
			PhoneNumber: validPhone,
		},
		Metadata:           map[string]any{"order": "42"},
		SuccessRedirectURL: "https://shop.example/success",
		FailureRedirectURL: "https://shop.example/failure",
	}
}

func masterKeyHash() string {
	sum := sha512.Sum512([]byte(testMasterKey))
	return hex.EncodeToString(sum[:])
}

func TestNew_RequiresMasterKey(t *testing.T) {
	_, err := New(&config.Paydunya{}, testutils.DiscardLogger())
	assert.Error(t, err)

	_, err = New(nil, testutils.DiscardLogger())
	assert.Error(t, err)
}

func TestNew_DefaultName(t *testing.T) {
	p, err := New(&config.Paydunya{MasterKey: "k", Mode: "live"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "paydunya", p.Name())
	assert.Equal(t, "https://app.paydunya.com/api/v1", p.api.BaseURL())

	p, err = New(&config.Paydunya{MasterKey: "k", Mode: "test"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://app.sandbox.paydunya.com/api/v1", p.api.BaseURL())
}

func TestCheckoutMobileMoney_Wave(t *testing.T) {
	p, gw, rec := newTestProvider(t)
	gw.On(http.MethodPost, pathCreateInvoice, testutils.JSON(invoiceCreated))
	gw.On(http.MethodPost, pathWave, testutils.JSON(waveAccepted))

	result, err := p.CheckoutMobileMoney(context.Background(), &payment.WaveCheckout{
		CheckoutOptions: checkoutOptions(),
	})
	require.NoError(t, err)

	assert.Equal(t, &payment.CheckoutResult{
		TransactionID:        "txn-1",
		TransactionReference: "tok_123",
		TransactionStatus:    payment.StatusPending,
		TransactionAmount:    100,
		TransactionCurrency:  payment.CurrencyXOF,
		RedirectURL:          "https://pay.wave.com/c/abc",
		PaymentProvider:      "paydunya",
	}, result)

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, payment.EventPaymentInitiated, events[0].Type)
	assert.Equal(t, "txn-1", events[0].TransactionID)
	assert.Equal(t, "tok_123", events[0].TransactionReference)
	assert.Equal(t, int64(100), events[0].TransactionAmount)
	assert.Equal(t, payment.CurrencyXOF, events[0].TransactionCurrency)
	assert.Equal(t, payment.MethodWave, events[0].PaymentMethod)
	assert.Equal(t, "https://pay.wave.com/c/abc", events[0].RedirectURL)
	assert.Equal(t, "paydunya", events[0].PaymentProvider)

	requests := gw.Requests()
	require.Len(t, requests, 2)

	invoiceReq := requests[0]
	assert.Equal(t, testMasterKey, invoiceReq.Header.Get("PAYDUNYA-MASTER-KEY"))
	assert.Equal(t, "private", invoiceReq.Header.Get("PAYDUNYA-PRIVATE-KEY"))
	assert.Equal(t, "public", invoiceReq.Header.Get("PAYDUNYA-PUBLIC-KEY"))
	assert.Equal(t, "token", invoiceReq.Header.Get("PAYDUNYA-TOKEN"))
	assert.Equal(t, map[string]any{"total_amount": float64(100), "description": "Test payment"},
		invoiceReq.Body["invoice"])
	assert.Equal(t, map[string]any{"name": "Test Store"}, invoiceReq.Body["store"])
	assert.Nil(t, invoiceReq.Body["channels"])
	assert.Equal(t, map[string]any{"transaction_id": "txn-1", "order": "42"}, invoiceReq.Body["custom_data"])
	assert.Equal(t, map[string]any{
		"cancel_url": "https://shop.example/failure",
		"return_url": "https://shop.example/success",
	}, invoiceReq.Body["actions"])

	waveReq := requests[1]
	assert.Equal(t, "/"+pathWave, waveReq.Path)
	assert.Equal(t, "Awa Diop", waveReq.Body["wave_senegal_fullName"])
	assert.Equal(t, validPhone+"@yopmail.com", waveReq.Body["wave_senegal_email"])
	assert.Equal(t, "781234567", waveReq.Body["wave_senegal_phone"])
	assert.Equal(t, "tok_123", waveReq.Body["wave_senegal_payment_token"])
}

func TestCheckoutMobileMoney_WaveFailures(t *testing.T) {
	tests := []struct {
		name    string
		invoice testutils.Reply
		wave    testutils.Reply
		wantMsg string
	}{
		{
			name:    "invoice response code",
			invoice: testutils.JSON(`{"response_code":"1001","response_text":"Invalid store"}`),
			wantMsg: "Paydunya error: Invalid store",
		},
		{
			name:    "missing invoice token",
			invoice: testutils.JSON(`{"response_code":"00","response_text":"ok"}`),
			wantMsg: "Missing invoice token in Paydunya response: ok",
		},
		{
			name:    "wave declined",
			invoice: testutils.JSON(invoiceCreated),
			wave:    testutils.JSON(`{"success":false,"message":"Declined"}`),
			wantMsg: "Paydunya error: Declined",
		},
		{
			name:    "wave without url",
			invoice: testutils.JSON(invoiceCreated),
			wave:    testutils.JSON(`{"success":true,"message":"no url"}`),
			wantMsg: "Missing wave payment url in Paydunya response: no url",
		},
		{
			name:    "upstream message",
			invoice: testutils.Reply{Status: http.StatusBadRequest, Body: `{"message":"Bad keys"}`},
			wantMsg: "Bad keys",
		},
		{
			name:    "upstream response text",
			invoice: testutils.Reply{Status: http.StatusInternalServerError, Body: `{"response_text":"Down"}`},
			wantMsg: "Down",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, gw, rec := newTestProvider(t)
			gw.On(http.MethodPost, pathCreateInvoice, tt.invoice)
			if tt.wave.Status != 0 {
				gw.On(http.MethodPost, pathWave, tt.wave)
			}

			_, err := p.CheckoutMobileMoney(context.Background(), &payment.WaveCheckout{
				CheckoutOptions: checkoutOptions(),
			})
			require.Error(t, err)
			assert.Equal(t, payment.ErrorUnknown, payment.TypeOf(err))
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Empty(t, rec.Events())
		})
	}
}

func TestCheckoutMobileMoney_OrangeMoneyFlows(t *testing.T) {
	tests := []struct {
		name        string
		code        string
		wantAPIType string
	}{
		{name: "otp", code: "123456", wantAPIType: "OTPCODE"},
		{name: "qr code", code: "", wantAPIType: "QRCODE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, gw, _ := newTestProvider(t)
			gw.On(http.MethodPost, pathCreateInvoice, testutils.JSON(invoiceCreated))
			gw.On(http.MethodPost, pathOrangeMoney,
				testutils.JSON(`{"success":true,"message":"ok","fees":0,"currency":"XOF"}`))

			result, err := p.CheckoutMobileMoney(context.Background(), &payment.OrangeMoneyCheckout{
				CheckoutOptions:   checkoutOptions(),
				AuthorizationCode: tt.code,
			})
			require.NoError(t, err)
			assert.Empty(t, result.RedirectURL)
			assert.Equal(t, payment.StatusPending, result.TransactionStatus)

			reqs := gw.RequestsTo(http.MethodPost, pathOrangeMoney)
			require.Len(t, reqs, 1)
			body := reqs[0].Body
			assert.Equal(t, tt.wantAPIType, body["api_type"])
			assert.Equal(t, "781234567", body["phone_number"])
			assert.Equal(t, "tok_123", body["invoice_token"])
			code, present := body["authorization_code"]
			if tt.code == "" {
				assert.False(t, present, "authorization_code must be omitted")
			} else {
				assert.True(t, present)
				assert.Equal(t, tt.code, code)
			}
		})
	}
}

func TestCheckoutMobileMoney_OrangeMoneyQRCodeURL(t *testing.T) {
	p, gw, rec := newTestProvider(t)
	gw.On(http.MethodPost, pathCreateInvoice, testutils.JSON(invoiceCreated))
	gw.On(http.MethodPost, pathOrangeMoney,
		testutils.JSON(`{"success":true,"message":"ok","url":"https://om.example/qr/abc"}`))

	result, err := p.CheckoutMobileMoney(context.Background(), &payment.OrangeMoneyCheckout{
		CheckoutOptions: checkoutOptions(),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://om.example/qr/abc", result.RedirectURL)
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, payment.MethodOrangeMoney, rec.Events()[0].PaymentMethod)
}

func TestCheckoutMobileMoney_InvalidOTP(t *testing.T) {
	p, gw, rec := newTestProvider(t)
	gw.On(http.MethodPost, pathCreateInvoice, testutils.JSON(invoiceCreated))
	gw.On(http.MethodPost, pathOrangeMoney, testutils.Reply{
		Status: http.StatusUnprocessableEntity,
		Body:   `{"success":false,"message":"Invalid or expired OTP code!"}`,
	})

	_, err := p.CheckoutMobileMoney(context.Background(), &payment.OrangeMoneyCheckout{
		CheckoutOptions:   checkoutOptions(),
		AuthorizationCode: "000000",
	})
	require.Error(t, err)
	assert.Equal(t, payment.ErrorInvalidAuthorizationCode, payment.TypeOf(err))
	assert.Empty(t, rec.Events())
}

func TestCheckoutMobileMoney_OrangeMoney422OtherMessage(t *testing.T) {
	p, gw, _ := newTestProvider(t)
	gw.On(http.MethodPost, pathCreateInvoice, testutils.JSON(invoiceCreated))
	gw.On(http.MethodPost, pathOrangeMoney, testutils.Reply{
		Status: http.StatusUnprocessableEntity,
		Body:   `{"success":false,"message":"Insufficient balance"}`,
	})

	_, err := p.CheckoutMobileMoney(context.Background(), &payment.OrangeMoneyCheckout{
		CheckoutOptions:   checkoutOptions(),
		AuthorizationCode: "000000",
	})
	require.Error(t, err)
	assert.Equal(t, payment.ErrorUnknown, payment.TypeOf(err))
	assert.Equal(t, "Insufficient balance", err.Error())
}

func TestCheckoutMobileMoney_InvalidPhoneMakesNoRequest(t *testing.T) {
	p, gw, rec := newTestProvider(t)
	opts := checkoutOptions()
	opts.Customer.PhoneNumber = "invalid-phone"

	_, err := p.CheckoutMobileMoney(context.Background(), &payment.OrangeMoneyCheckout{
		CheckoutOptions:   opts,
		AuthorizationCode: "123456",
	})
	require.Error(t, err)
	assert.Equal(t, payment.ErrorInvalidPhoneNumber, payment.TypeOf(err))
	assert.Empty(t, gw.Requests())
	assert.Empty(t, rec.Events())
}

func TestCheckout_UnsupportedCurrency(t *testing.T) {
	p, gw, _ := newTestProvider(t)
	opts := checkoutOptions()
	opts.Currency = "EUR"

	_, err := p.CheckoutMobileMoney(context.Background(), &payment.WaveCheckout{CheckoutOptions: opts})
	assert.True(t, payment.IsUnsupported(err))

	_, err = p.CheckoutCreditCard(context.Background(), &payment.CreditCardCheckout{CheckoutOptions: opts})
	assert.True(t, payment.IsUnsupported(err))
	assert.Empty(t, gw.Requests())
}

func TestCheckoutCreditCard(t *testing.T) {
	p, gw, rec := newTestProvider(t)
	gw.On(http.MethodPost, pathCreateInvoice, testutils.JSON(invoiceCreated))

	opts := checkoutOptions()
	opts.Customer.PhoneNumber = ""
	result, err := p.CheckoutCreditCard(context.Background(), &payment.CreditCardCheckout{
		CheckoutOptions: opts,
		Card:            payment.Card{Number: "4242424242424242", CVV: "123"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://paydunya.com/checkout/invoice/tok_123", result.RedirectURL)
	assert.Equal(t, "tok_123", result.TransactionReference)

	requests := gw.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, []any{"card"}, requests[0].Body["channels"])
	assert.NotContains(t, requests[0].Body, "card")

	events := rec.OfType(payment.EventPaymentInitiated)
	require.Len(t, events, 1)
	assert.Equal(t, payment.MethodCreditCard, events[0].PaymentMethod)
}

func TestCheckoutRedirect_Unsupported(t *testing.T) {
	p, gw, _ := newTestProvider(t)
	_, err := p.CheckoutRedirect(context.Background(), &payment.RedirectCheckout{
		CheckoutOptions: checkoutOptions(),
	})
	assert.True(t, payment.IsUnsupported(err))
	assert.Empty(t, gw.Requests())
}

func TestCheckout_SinkFailureDoesNotAbort(t *testing.T) {
	p, gw, rec := newTestProvider(t)
	rec.Err = assert.AnError
	gw.On(http.MethodPost, pathCreateInvoice, testutils.JSON(invoiceCreated))
	gw.On(http.MethodPost, pathWave, testutils.JSON(waveAccepted))

	result, err := p.CheckoutMobileMoney(context.Background(), &payment.WaveCheckout{
		CheckoutOptions: checkoutOptions(),
	})
	require.NoError(t, err)
	assert.Equal(t, "tok_123", result.TransactionReference)
	assert.Len(t, rec.Events(), 1)
}
