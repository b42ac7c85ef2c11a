package payment

import (
	"net/http"
	"time"
)

// PaymentMethod identifies how the customer pays.
type PaymentMethod string

const (
	// MethodWave is the Wave mobile-money wallet.
	MethodWave PaymentMethod = "WAVE"
	// MethodOrangeMoney is the Orange Money mobile-money wallet.
	MethodOrangeMoney PaymentMethod = "ORANGE_MONEY"
	// MethodCreditCard is a card payment.
	MethodCreditCard PaymentMethod = "CREDIT_CARD"
)

// IsMobileMoney reports whether the method settles through a mobile wallet.
func (m PaymentMethod) IsMobileMoney() bool {
	return m == MethodWave || m == MethodOrangeMoney
}

// Currency is the closed set of supported currencies.
type Currency string

const (
	// CurrencyXOF is the West African CFA franc.
	CurrencyXOF Currency = "XOF"
)

// TransactionStatus is the status reported to callers.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusSuccess   TransactionStatus = "SUCCESS"
	StatusFailed    TransactionStatus = "FAILED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

// Customer describes the paying party.
type Customer struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Email       string `json:"email,omitempty"`
}

// FullName joins first and last name, trimming missing parts.
func (c Customer) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// CheckoutOptions holds the fields shared by every checkout variant.
type CheckoutOptions struct {
	// Amount in minor units.
	Amount      int64
	Currency    Currency
	Description string
	// TransactionID is the caller-assigned correlation key. It is echoed back
	// and never checked for uniqueness.
	TransactionID      string
	Customer           Customer
	Metadata           map[string]any
	SuccessRedirectURL string
	FailureRedirectURL string
}

// Checkout is the closed set of checkout requests. It is implemented only by
// the types in this package.
type Checkout interface {
	Options() *CheckoutOptions
	Method() PaymentMethod
	isCheckout()
}

// MobileMoneyCheckout is the closed set of mobile-money checkout requests:
// *WaveCheckout and *OrangeMoneyCheckout.
type MobileMoneyCheckout interface {
	Checkout
	isMobileMoney()
}

// WaveCheckout requests a Wave payment.
type WaveCheckout struct {
	CheckoutOptions
}

func (c *WaveCheckout) Options() *CheckoutOptions { return &c.CheckoutOptions }
func (c *WaveCheckout) Method() PaymentMethod     { return MethodWave }
func (c *WaveCheckout) isCheckout()               {}
func (c *WaveCheckout) isMobileMoney()            {}

// OrangeMoneyCheckout requests an Orange Money payment. An empty
// AuthorizationCode selects the QR-code flow, a non-empty one the OTP flow.
type OrangeMoneyCheckout struct {
	CheckoutOptions
	AuthorizationCode string
}

func (c *OrangeMoneyCheckout) Options() *CheckoutOptions { return &c.CheckoutOptions }
func (c *OrangeMoneyCheckout) Method() PaymentMethod     { return MethodOrangeMoney }
func (c *OrangeMoneyCheckout) isCheckout()               {}
func (c *OrangeMoneyCheckout) isMobileMoney()            {}

// Card holds pass-through card fields. They are never stored or logged.
type Card struct {
	Number          string
	ExpirationMonth string
	ExpirationYear  string
	CVV             string
}

// CreditCardCheckout requests a card payment.
type CreditCardCheckout struct {
	CheckoutOptions
	Card Card
}

func (c *CreditCardCheckout) Options() *CheckoutOptions { return &c.CheckoutOptions }
func (c *CreditCardCheckout) Method() PaymentMethod     { return MethodCreditCard }
func (c *CreditCardCheckout) isCheckout()               {}

// RedirectCheckout requests a hosted checkout page. PaymentMethod narrows the
// methods offered on the page; empty lets the provider decide.
type RedirectCheckout struct {
	CheckoutOptions
	PaymentMethod PaymentMethod
}

func (c *RedirectCheckout) Options() *CheckoutOptions { return &c.CheckoutOptions }
func (c *RedirectCheckout) Method() PaymentMethod     { return c.PaymentMethod }
func (c *RedirectCheckout) isCheckout()               {}

// CheckoutResult is returned by every checkout. Status is PENDING until the
// gateway confirms settlement through a webhook or polling.
type CheckoutResult struct {
	TransactionID string `json:"transactionId"`
	// TransactionReference is provider-assigned and only resolvable against
	// the provider that produced it.
	TransactionReference string            `json:"transactionReference"`
	TransactionStatus    TransactionStatus `json:"transactionStatus"`
	TransactionAmount    int64             `json:"transactionAmount"`
	TransactionCurrency  Currency          `json:"transactionCurrency"`
	RedirectURL          string            `json:"redirectUrl,omitempty"`
	PaymentProvider      string            `json:"paymentProvider,omitempty"`
}

// RefundOptions describes a refund of a previous transaction.
type RefundOptions struct {
	TransactionID                string
	RefundedTransactionReference string
	// RefundedAmount is optional; zero refunds the full original amount.
	RefundedAmount int64
	Metadata       map[string]any
	// ProviderName selects the provider that created the original
	// transaction. Empty selects the first configured provider.
	ProviderName string
}

// RefundResult mirrors CheckoutResult.
type RefundResult struct {
	TransactionID        string            `json:"transactionId"`
	TransactionReference string            `json:"transactionReference"`
	TransactionStatus    TransactionStatus `json:"transactionStatus"`
	TransactionAmount    int64             `json:"transactionAmount"`
	TransactionCurrency  Currency          `json:"transactionCurrency"`
	PaymentProvider      string            `json:"paymentProvider,omitempty"`
}

// Recipient is the party receiving a payout.
type Recipient struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	Email       string
}

// MobileMoneyPayout sends money to a mobile wallet.
type MobileMoneyPayout struct {
	Amount               int64
	Currency             Currency
	PaymentMethod        PaymentMethod
	Recipient            Recipient
	TransactionID        string
	TransactionReference string
	Description          string
	Metadata             map[string]any
}

// PayoutResult mirrors CheckoutResult.
type PayoutResult struct {
	TransactionID        string            `json:"transactionId"`
	TransactionReference string            `json:"transactionReference"`
	TransactionStatus    TransactionStatus `json:"transactionStatus"`
	TransactionAmount    int64             `json:"transactionAmount"`
	TransactionCurrency  Currency          `json:"transactionCurrency"`
	PaymentProvider      string            `json:"paymentProvider,omitempty"`
}

// WebhookBody is the closed set of webhook payload forms: RawBody for
// providers that verify a signature over the exact bytes, ParsedBody for
// providers that verify a hash embedded in the payload.
type WebhookBody interface {
	isWebhookBody()
}

// RawBody is an unparsed webhook payload.
type RawBody []byte

func (RawBody) isWebhookBody() {}

// ParsedBody is a decoded webhook payload.
type ParsedBody map[string]any

func (ParsedBody) isWebhookBody() {}

// HandleWebhookOptions carries request context a provider may need to verify
// a webhook.
type HandleWebhookOptions struct {
	Headers http.Header
	// ProviderName routes the webhook in the orchestrator.
	ProviderName string
}

// StatusSnapshot is the last transaction state observed while polling.
type StatusSnapshot struct {
	Status            string  `json:"status"`
	Amount            int64   `json:"amount"`
	Currency          string  `json:"currency"`
	BankAccountSender *string `json:"bankAccountSender"`
	Attempts          int     `json:"attempts"`
}

// Default polling parameters.
const (
	DefaultPollInterval    = 3 * time.Second
	DefaultPollMaxAttempts = 4
)

// Polling bounds. Callers asking for more attempts or a shorter interval are
// clamped to them.
const (
	MinPollInterval = 500 * time.Millisecond
	MaxPollAttempts = 30
)

// ClampPoll applies the polling defaults and bounds to interval and
// maxAttempts.
func ClampPoll(interval time.Duration, maxAttempts int) (time.Duration, int) {
	switch {
	case interval <= 0:
		interval = DefaultPollInterval
	case interval < MinPollInterval:
		interval = MinPollInterval
	}
	switch {
	case maxAttempts <= 0:
		maxAttempts = DefaultPollMaxAttempts
	case maxAttempts > MaxPollAttempts:
		maxAttempts = MaxPollAttempts
	}
	return interval, maxAttempts
}
