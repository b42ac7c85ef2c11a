package webapi_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	infracache "github.com/amirasaad/africapayments/infra/cache"
	"github.com/amirasaad/africapayments/infra/provider/mockpayment"
	"github.com/amirasaad/africapayments/pkg/app"
	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/middleware"
	"github.com/amirasaad/africapayments/pkg/orchestrator"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/amirasaad/africapayments/pkg/testutils"
	"github.com/amirasaad/africapayments/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

func newApp(t testing.TB, rate *config.RateLimit, providers ...payment.Provider) (*fiber.App, *testutils.EventRecorder) {
	t.Helper()
	return newAppWithServer(t, rate, nil, providers...)
}

func newAppWithServer(
	t testing.TB,
	rate *config.RateLimit,
	server *config.Server,
	providers ...payment.Provider,
) (*fiber.App, *testutils.EventRecorder) {
	t.Helper()
	logger := testutils.DiscardLogger()
	payments, err := orchestrator.New(providers, orchestrator.WithLogger(logger))
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	recorder := &testutils.EventRecorder{}
	payments.AttachEventSink(recorder)
	if rate == nil {
		rate = &config.RateLimit{MaxRequests: 1000, Window: time.Minute}
	}
	a := app.New(&app.Deps{Payments: payments, Logger: logger}, &config.App{
		Server:    server,
		RateLimit: rate,
		PaymentProviders: &config.PaymentProviders{
			Bogus: &config.Bogus{Name: "bogus"},
		},
	})
	return webapi.SetupApp(a), recorder
}

type APITestSuite struct {
	suite.Suite
	app    *fiber.App
	events *testutils.EventRecorder
}

func (s *APITestSuite) SetupTest() {
	logger := testutils.DiscardLogger()
	s.app, s.events = newApp(s.T(), nil,
		mockpayment.NewNullProvider("null", logger),
		mockpayment.NewBogusPaymentProvider(&config.Bogus{Name: "bogus", InstantEvents: true}, logger),
	)
}

func (s *APITestSuite) do(method, path, body string, headers map[string]string) (int, map[string]any) {
	resp := testutils.MakeRequest(s.app, method, path, body, headers)
	defer resp.Body.Close() //nolint:errcheck
	var out map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (s *APITestSuite) checkoutWave() string {
	status, body := s.do(fiber.MethodPost, "/api/v1/checkout/mobile-money", `{
		"method": "WAVE",
		"amount": 1500,
		"transactionId": "txn-wave",
		"customer": {"firstName": "Awa", "lastName": "Diop", "phoneNumber": "+221771234567"}
	}`, nil)
	s.Require().Equal(http.StatusCreated, status)
	data := body["data"].(map[string]any)
	return data["transactionReference"].(string)
}

func (s *APITestSuite) TestHealth() {
	status, body := s.do(fiber.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, status)
	data := body["data"].(map[string]any)
	s.Equal([]any{"null", "bogus"}, data["providers"])
}

func (s *APITestSuite) TestCheckoutMobileMoney_FallsBackToBogus() {
	ref := s.checkoutWave()
	s.Contains(ref, "wave-")

	initiated := s.events.OfType(payment.EventPaymentInitiated)
	s.Require().Len(initiated, 1)
	s.Equal("txn-wave", initiated[0].TransactionID)
	s.Equal("bogus", initiated[0].PaymentProvider)
	s.Len(s.events.OfType(payment.EventPaymentSuccessful), 1)
}

func (s *APITestSuite) TestCheckoutMobileMoney_GeneratesTransactionID() {
	status, body := s.do(fiber.MethodPost, "/api/v1/checkout/mobile-money", `{
		"method": "ORANGE_MONEY",
		"amount": 500,
		"authorizationCode": "123456",
		"customer": {"firstName": "Awa", "phoneNumber": "+221771234567"}
	}`, nil)
	s.Require().Equal(http.StatusCreated, status)
	data := body["data"].(map[string]any)
	s.NotEmpty(data["transactionId"])
	s.Equal("XOF", data["transactionCurrency"])
}

func (s *APITestSuite) TestCheckoutMobileMoney_Validation() {
	tests := []struct {
		name string
		body string
	}{
		{"missing phone", `{"method":"WAVE","amount":100,"customer":{"firstName":"Awa"}}`},
		{"unknown method", `{"method":"MPESA","amount":100,"customer":{"firstName":"Awa","phoneNumber":"1"}}`},
		{"zero amount", `{"method":"WAVE","amount":0,"customer":{"firstName":"Awa","phoneNumber":"1"}}`},
		{"bad currency", `{"method":"WAVE","amount":1,"currency":"EUR","customer":{"firstName":"A","phoneNumber":"1"}}`},
		{"malformed", `{"method":`},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			status, body := s.do(fiber.MethodPost, "/api/v1/checkout/mobile-money", tt.body, nil)
			s.Equal(http.StatusBadRequest, status)
			s.NotEmpty(body["title"])
		})
	}
	s.Empty(s.events.Events())
}

func (s *APITestSuite) TestCheckoutCreditCard() {
	status, body := s.do(fiber.MethodPost, "/api/v1/checkout/credit-card", `{
		"amount": 2500,
		"transactionId": "txn-card",
		"customer": {"firstName": "Awa", "email": "awa@example.com"},
		"card": {"number": "4242424242424242", "expirationMonth": "12", "expirationYear": "2030", "cvv": "123"}
	}`, nil)
	s.Require().Equal(http.StatusCreated, status)
	data := body["data"].(map[string]any)
	s.Equal("txn-card", data["transactionId"])
	s.Equal("PENDING", data["transactionStatus"])
}

func (s *APITestSuite) TestCheckoutRedirect() {
	status, body := s.do(fiber.MethodPost, "/api/v1/checkout/redirect", `{
		"amount": 2500,
		"customer": {"firstName": "Awa", "email": "awa@failure.com"},
		"successRedirectUrl": "https://shop.example.com/ok",
		"failureRedirectUrl": "https://shop.example.com/ko"
	}`, nil)
	s.Require().Equal(http.StatusCreated, status)
	data := body["data"].(map[string]any)
	s.Equal("https://shop.example.com/ko", data["redirectUrl"])
	s.Len(s.events.OfType(payment.EventPaymentFailed), 1)
}

func (s *APITestSuite) TestPayoutAndRefund() {
	status, body := s.do(fiber.MethodPost, "/api/v1/payouts/mobile-money", `{
		"amount": 1000,
		"method": "WAVE",
		"recipient": {"firstName": "Awa", "phoneNumber": "+221771234567"}
	}`, nil)
	s.Require().Equal(http.StatusCreated, status)
	s.Equal("SUCCESS", body["data"].(map[string]any)["transactionStatus"])

	status, body = s.do(fiber.MethodPost, "/api/v1/refunds", `{
		"provider": "bogus",
		"refundedTransactionReference": "wave-1",
		"refundedAmount": 500
	}`, nil)
	s.Require().Equal(http.StatusCreated, status)
	data := body["data"].(map[string]any)
	s.Equal("bogus", data["paymentProvider"])
	s.EqualValues(500, data["transactionAmount"])
}

func (s *APITestSuite) TestRefund_Errors() {
	status, body := s.do(fiber.MethodPost, "/api/v1/refunds",
		`{"provider":"missing","refundedTransactionReference":"x"}`, nil)
	s.Equal(http.StatusNotFound, status)
	s.Equal("UNKNOWN_ERROR", body["errorType"])

	// The first provider is the null one.
	status, body = s.do(fiber.MethodPost, "/api/v1/refunds", `{"refundedTransactionReference":"x"}`, nil)
	s.Equal(http.StatusUnprocessableEntity, status)
	s.Equal("UNSUPPORTED_PAYMENT_METHOD", body["errorType"])
}

func (s *APITestSuite) TestWebhook_RawBodyProvider() {
	ref := s.checkoutWave()
	payload := fmt.Sprintf(`{"success":false,"transactionId":"txn-wave","transactionReference":%q,"amount":1500}`, ref)

	status, body := s.do(fiber.MethodPost, "/api/v1/webhooks/bogus", payload, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("PAYMENT_FAILED", body["data"].(map[string]any)["type"])

	status, body = s.do(fiber.MethodGet, "/api/v1/transactions/bogus/"+ref+"/status", "", nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("FAILED", body["data"].(map[string]any)["status"])
}

func (s *APITestSuite) TestWebhook_ParsedBodies() {
	status, body := s.do(fiber.MethodPost, "/api/v1/webhooks/null", `{"data":{"hash":"x"}}`, nil)
	s.Equal(http.StatusOK, status)
	s.Equal("Webhook ignored", body["message"])

	status, _ = s.do(fiber.MethodPost, "/api/v1/webhooks/null", "data%5Bhash%5D=x&data%5Bstatus%5D=completed",
		map[string]string{"Content-Type": fiber.MIMEApplicationForm})
	s.Equal(http.StatusOK, status)

	status, _ = s.do(fiber.MethodPost, "/api/v1/webhooks/null", `{"data":`, nil)
	s.Equal(http.StatusBadRequest, status)

	status, _ = s.do(fiber.MethodPost, "/api/v1/webhooks/missing", `{}`, nil)
	s.Equal(http.StatusNotFound, status)
}

func (s *APITestSuite) TestStatus() {
	ref := s.checkoutWave()

	status, body := s.do(fiber.MethodGet, "/api/v1/transactions/bogus/"+ref+"/status?interval=1s&maxAttempts=2", "", nil)
	s.Require().Equal(http.StatusOK, status)
	data := body["data"].(map[string]any)
	s.Equal("COMPLETED", data["status"])
	s.EqualValues(1500, data["amount"])

	status, _ = s.do(fiber.MethodGet, "/api/v1/transactions/bogus/"+ref+"/status?interval=soon", "", nil)
	s.Equal(http.StatusBadRequest, status)

	status, _ = s.do(fiber.MethodGet, "/api/v1/transactions/bogus/"+ref+"/status?maxAttempts=-1", "", nil)
	s.Equal(http.StatusBadRequest, status)

	status, _ = s.do(fiber.MethodGet, "/api/v1/transactions/bogus/unknown/status", "", nil)
	s.Equal(http.StatusBadGateway, status)

	status, _ = s.do(fiber.MethodGet, "/api/v1/transactions/null/"+ref+"/status", "", nil)
	s.Equal(http.StatusUnprocessableEntity, status)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func TestCheckout_NoProviderAvailable(t *testing.T) {
	fiberApp, _ := newApp(t, nil, mockpayment.NewNullProvider("null", testutils.DiscardLogger()))

	resp := testutils.MakeRequest(fiberApp, fiber.MethodPost, "/api/v1/checkout/mobile-money",
		`{"method":"WAVE","amount":100,"customer":{"firstName":"Awa","phoneNumber":"+221771234567"}}`, nil)
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestRateLimit(t *testing.T) {
	// fiber's App.Test connects from 0.0.0.0.
	fiberApp, _ := newAppWithServer(t,
		&config.RateLimit{MaxRequests: 2, Window: time.Minute},
		&config.Server{TrustedProxies: []string{"0.0.0.0"}},
		mockpayment.NewNullProvider("null", testutils.DiscardLogger()))

	client := map[string]string{"X-Forwarded-For": "10.0.0.1, 172.16.0.1"}
	for i := 0; i < 3; i++ {
		resp := testutils.MakeRequest(fiberApp, fiber.MethodGet, "/", "", client)
		_ = resp.Body.Close()
		want := fiber.StatusOK
		if i == 2 {
			want = fiber.StatusTooManyRequests
		}
		if resp.StatusCode != want {
			t.Fatalf("request %d: status = %d, want %d", i+1, resp.StatusCode, want)
		}
	}

	resp := testutils.MakeRequest(fiberApp, fiber.MethodGet, "/", "",
		map[string]string{"X-Forwarded-For": "10.0.0.2"})
	_ = resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("other client status = %d", resp.StatusCode)
	}
}

func TestRateLimit_IgnoresForwardedForFromUntrustedPeers(t *testing.T) {
	fiberApp, _ := newApp(t, &config.RateLimit{MaxRequests: 2, Window: time.Minute},
		mockpayment.NewNullProvider("null", testutils.DiscardLogger()))

	spoofed := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}
	for i, ip := range spoofed {
		resp := testutils.MakeRequest(fiberApp, fiber.MethodGet, "/", "",
			map[string]string{"X-Forwarded-For": ip})
		_ = resp.Body.Close()
		want := fiber.StatusOK
		if i == 2 {
			want = fiber.StatusTooManyRequests
		}
		if resp.StatusCode != want {
			t.Fatalf("request %d: status = %d, want %d", i+1, resp.StatusCode, want)
		}
	}
}

func TestPayout_IdempotencyKeyReplays(t *testing.T) {
	logger := testutils.DiscardLogger()
	payments, err := orchestrator.New([]payment.Provider{
		mockpayment.NewBogusPaymentProvider(&config.Bogus{Name: "bogus", InstantEvents: true}, logger),
	}, orchestrator.WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	store := infracache.NewMemoryCache(time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	fiberApp := webapi.SetupApp(app.New(&app.Deps{
		Payments:    payments,
		Logger:      logger,
		Idempotency: store,
	}, &config.App{Idempotency: &config.Idempotency{Enabled: true, TTL: time.Minute}}))

	body := `{"amount":1000,"method":"WAVE","recipient":{"firstName":"Awa","phoneNumber":"+221771234567"}}`
	headers := map[string]string{middleware.HeaderIdempotencyKey: "payout-1"}

	reference := func() (string, string) {
		resp := testutils.MakeRequest(fiberApp, fiber.MethodPost, "/api/v1/payouts/mobile-money", body, headers)
		defer resp.Body.Close() //nolint:errcheck
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var out struct {
			Data payment.PayoutResult `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
		return out.Data.TransactionReference, resp.Header.Get(middleware.HeaderIdempotentReplayed)
	}

	first, replayedFirst := reference()
	second, replayedSecond := reference()
	if first != second {
		t.Fatalf("payout ran twice: %s != %s", first, second)
	}
	if replayedFirst != "" || replayedSecond != "true" {
		t.Fatalf("replay headers = %q, %q", replayedFirst, replayedSecond)
	}
}
