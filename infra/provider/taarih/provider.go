// Package taarih implements the Taarih gateway. Every call signs in afresh,
// checkouts return a hosted payment link and settlement is observed by
// polling the transaction status.
package taarih

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/amirasaad/africapayments/infra/provider/transport"
	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/phone"
	"github.com/amirasaad/africapayments/pkg/provider"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/jonboulle/clockwork"
)

const (
	LiveBaseURL    = "https://api-prod.taarih.com/api"
	SandboxBaseURL = "https://api-dev.taarih.com/api"

	// Region is the home region customer phone numbers are validated against.
	Region = "SN"

	tokenHeader = "x-access-token"
)

const (
	pathSignIn     = "auth/signin-end-user"
	pathPreAuth    = "transaction/pre-authorization"
	pathPosPayment = "transaction/pos-payment"
	pathStatus     = "transaction/verify-transaction-status/"
)

// Webhook polling defaults.
const (
	DefaultWebhookPollInterval    = 5 * time.Second
	DefaultWebhookPollMaxAttempts = 20
)

var operationCodes = map[payment.PaymentMethod]string{
	payment.MethodWave:        "PAY_WITH_WAVE",
	payment.MethodOrangeMoney: "PAY_WITH_OM",
}

var paymentMethods = map[payment.PaymentMethod]string{
	payment.MethodWave:        "WAVE",
	payment.MethodOrangeMoney: "OM",
}

// Provider is the Taarih payment provider.
type Provider struct {
	*provider.Base
	cfg    *config.Taarih
	api    *transport.Client
	phones phone.Parser
	clock  clockwork.Clock
}

var (
	_ payment.Provider = (*Provider)(nil)
	_ payment.Poller   = (*Provider)(nil)
)

type options struct {
	httpClient *http.Client
	phones     phone.Parser
	clock      clockwork.Clock
}

// Option configures a Provider.
type Option func(*options)

// WithHTTPClient sets the *http.Client used for gateway calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithPhoneParser replaces the phone number parser.
func WithPhoneParser(p phone.Parser) Option {
	return func(o *options) { o.phones = p }
}

// WithClock replaces the clock used between status checks.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New creates a Taarih provider. Mode "test" targets the dev environment
// unless cfg.BaseURL overrides it.
func New(cfg *config.Taarih, logger *slog.Logger, opts ...Option) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("taarih: missing config")
	}
	if cfg.PhoneNumber == "" || cfg.Password == "" {
		return nil, fmt.Errorf("taarih: phone number and password are required")
	}
	o := options{phones: phone.NewParser(), clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}

	name := cfg.Name
	if name == "" {
		name = config.ProviderTaarih
	}
	base := provider.NewBase(name, logger)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = LiveBaseURL
		if cfg.Mode == "test" {
			baseURL = SandboxBaseURL
		}
	}
	var clientOpts []transport.Option
	if o.httpClient != nil {
		clientOpts = append(clientOpts, transport.WithHTTPClient(o.httpClient))
	} else {
		clientOpts = append(clientOpts, transport.WithTimeout(cfg.HTTPTimeout))
	}

	return &Provider{
		Base:   base,
		cfg:    cfg,
		api:    transport.New(baseURL, base.Logger(), clientOpts...),
		phones: o.phones,
		clock:  o.clock,
	}, nil
}

// login signs in and returns a fresh session. OTP challenges and validation
// errors are fatal.
func (p *Provider) login(ctx context.Context) (*session, error) {
	resp, err := p.api.Post(ctx, pathSignIn, signInRequest{
		CallingCode: p.cfg.CallingCode,
		PhoneNumber: p.cfg.PhoneNumber,
		AuthMode:    "SMS",
		VisitorID:   p.cfg.VisitorID,
		Password:    p.cfg.Password,
	}, nil)
	if err != nil {
		return nil, payment.WrapError(err, payment.ErrorUnknown, "Taarih error")
	}
	if !resp.OK() {
		return nil, responseError(resp)
	}

	var fields map[string]json.RawMessage
	if err := resp.Decode(&fields); err != nil {
		return nil, payment.WrapError(err, payment.ErrorUnknown, "Taarih error")
	}
	switch {
	case hasKey(fields, "otpRequired"):
		var otp apiError
		_ = json.Unmarshal(resp.Body, &otp)
		return nil, payment.Errorf(payment.ErrorUnknown, "Taarih error: %s", otp.Message)
	case hasKey(fields, "invalidData"):
		return nil, responseError(resp)
	case hasKey(fields, "token"):
		var s session
		if err := resp.Decode(&s); err != nil {
			return nil, payment.WrapError(err, payment.ErrorUnknown, "Taarih error")
		}
		if s.Token != "" {
			return &s, nil
		}
	}
	return nil, payment.NewError("Taarih error: No token in response", payment.ErrorUnknown)
}

// call sends an authenticated request and decodes a 2xx response into out.
func (p *Provider) call(ctx context.Context, s *session, method, path string, body, out any) error {
	headers := http.Header{}
	headers.Set(tokenHeader, s.Token)
	resp, err := p.api.Do(ctx, method, path, body, headers)
	if err != nil {
		return payment.WrapError(err, payment.ErrorUnknown, "Taarih error")
	}
	if !resp.OK() {
		return responseError(resp)
	}
	var fields map[string]json.RawMessage
	if err := resp.Decode(&fields); err != nil {
		return payment.WrapError(err, payment.ErrorUnknown, "Taarih error")
	}
	if hasKey(fields, "invalidData") {
		return responseError(resp)
	}
	if err := resp.Decode(out); err != nil {
		return payment.WrapError(err, payment.ErrorUnknown, "Taarih error")
	}
	return nil
}

// responseError maps an error envelope to a PaymentError, appending field
// validation errors when present.
func responseError(resp *transport.Response) error {
	var env apiError
	_ = json.Unmarshal(resp.Body, &env)

	msg := env.Message
	if msg == "" {
		msg = env.ResponseText
	}
	if msg == "" {
		return payment.Errorf(payment.ErrorUnknown,
			"Taarih error: status %d. Data: %s", resp.StatusCode, string(resp.Body))
	}
	if len(env.InvalidData) > 0 {
		invalid, _ := json.Marshal(env.InvalidData)
		return payment.Errorf(payment.ErrorUnknown, "Taarih error: %s %s", msg, invalid)
	}
	return payment.Errorf(payment.ErrorUnknown, "Taarih error: %s", msg)
}
