// Package paydunya implements the invoice based Paydunya gateway: every
// checkout creates an invoice first and then dispatches it to a softpay
// channel, refunds and payouts go through a two step disbursement.
package paydunya

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/amirasaad/africapayments/infra/provider/transport"
	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/phone"
	"github.com/amirasaad/africapayments/pkg/provider"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
)

const (
	LiveBaseURL    = "https://app.paydunya.com/api/v1/"
	SandboxBaseURL = "https://app.sandbox.paydunya.com/api/v1/"

	// Region is the home region customer phone numbers are validated against.
	Region = "SN"

	invalidOTPMessage = "Invalid or expired OTP code!"
)

const (
	pathCreateInvoice  = "checkout-invoice/create"
	pathConfirmInvoice = "checkout-invoice/confirm/"
	pathWave           = "softpay/wave-senegal"
	pathOrangeMoney    = "softpay/orange-money-senegal"
	pathDisburseCreate = "disburse/get-invoice"
	pathDisburseSubmit = "disburse/submit-invoice"
)

var withdrawModes = map[payment.PaymentMethod]string{
	payment.MethodWave:        "wave-senegal",
	payment.MethodOrangeMoney: "orange-money-senegal",
}

var invoiceMethods = map[string]payment.PaymentMethod{
	"wave_senegal":         payment.MethodWave,
	"orange_money_senegal": payment.MethodOrangeMoney,
}

// Provider is the Paydunya payment provider.
type Provider struct {
	*provider.Base
	cfg           *config.Paydunya
	api           *transport.Client
	phones        phone.Parser
	masterKeyHash string
}

var _ payment.Provider = (*Provider)(nil)

type options struct {
	httpClient *http.Client
	phones     phone.Parser
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

// New creates a Paydunya provider. Mode "test" targets the sandbox unless
// cfg.BaseURL overrides it.
func New(cfg *config.Paydunya, logger *slog.Logger, opts ...Option) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("paydunya: missing config")
	}
	if cfg.MasterKey == "" {
		return nil, fmt.Errorf("paydunya: master key is required")
	}
	o := options{phones: phone.NewParser()}
	for _, opt := range opts {
		opt(&o)
	}

	name := cfg.Name
	if name == "" {
		name = config.ProviderPaydunya
	}
	base := provider.NewBase(name, logger)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = LiveBaseURL
		if cfg.Mode == "test" {
			baseURL = SandboxBaseURL
		}
	}

	clientOpts := []transport.Option{
		transport.WithHeader("PAYDUNYA-MASTER-KEY", cfg.MasterKey),
		transport.WithHeader("PAYDUNYA-PRIVATE-KEY", cfg.PrivateKey),
		transport.WithHeader("PAYDUNYA-PUBLIC-KEY", cfg.PublicKey),
		transport.WithHeader("PAYDUNYA-TOKEN", cfg.Token),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, transport.WithHTTPClient(o.httpClient))
	} else {
		clientOpts = append(clientOpts, transport.WithTimeout(cfg.HTTPTimeout))
	}
	api := transport.New(baseURL, base.Logger(), clientOpts...)

	sum := sha512.Sum512([]byte(cfg.MasterKey))
	return &Provider{
		Base:          base,
		cfg:           cfg,
		api:           api,
		phones:        o.phones,
		masterKeyHash: hex.EncodeToString(sum[:]),
	}, nil
}

// post sends body to path and decodes a 2xx response into out.
func (p *Provider) post(ctx context.Context, path string, body, out any) error {
	resp, err := p.api.Post(ctx, path, body, nil)
	if err != nil {
		return payment.WrapError(err, payment.ErrorUnknown, "Paydunya error")
	}
	return p.decode(resp, out)
}

func (p *Provider) get(ctx context.Context, path string, out any) error {
	resp, err := p.api.Get(ctx, path, nil)
	if err != nil {
		return payment.WrapError(err, payment.ErrorUnknown, "Paydunya error")
	}
	return p.decode(resp, out)
}

func (p *Provider) decode(resp *transport.Response, out any) error {
	if !resp.OK() {
		return responseError(resp)
	}
	if err := resp.Decode(out); err != nil {
		return payment.WrapError(err, payment.ErrorUnknown, "Paydunya error")
	}
	return nil
}

// responseError maps a non-2xx response to a PaymentError, preferring the
// gateway's own message.
func responseError(resp *transport.Response) error {
	var env errorEnvelope
	_ = json.Unmarshal(resp.Body, &env)

	if resp.StatusCode == http.StatusUnprocessableEntity &&
		strings.HasSuffix(resp.Path, pathOrangeMoney) &&
		env.Message == invalidOTPMessage {
		return payment.NewError(env.Message, payment.ErrorInvalidAuthorizationCode)
	}
	switch {
	case env.Message != "":
		return payment.NewError(env.Message, payment.ErrorUnknown)
	case env.ResponseText != "":
		return payment.NewError(env.ResponseText, payment.ErrorUnknown)
	default:
		return payment.Errorf(payment.ErrorUnknown,
			"Paydunya error: status %d. Data: %s", resp.StatusCode, string(resp.Body))
	}
}

// validatePhone checks number against Region.
func (p *Provider) validatePhone(number string) (phone.Number, error) {
	parsed := p.phones.Parse(number, Region)
	if !parsed.Valid {
		return parsed, payment.Errorf(payment.ErrorInvalidPhoneNumber, "Invalid phone number: %s", number)
	}
	if !parsed.Possible {
		return parsed, payment.Errorf(payment.ErrorInvalidPhoneNumber, "Phone number is not possible: %s", number)
	}
	return parsed, nil
}
