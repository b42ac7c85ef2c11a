package checkout

import (
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/google/uuid"
)

// CustomerDTO is the paying party. Phone is optional except for mobile money.
type CustomerDTO struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email" validate:"omitempty,email"`
}

// WalletCustomerDTO is a CustomerDTO whose phone number is required.
type WalletCustomerDTO struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
}

// CommonFields are accepted by every checkout endpoint.
type CommonFields struct {
	Amount             int64          `json:"amount" validate:"required,gt=0"`
	Currency           string         `json:"currency" validate:"omitempty,oneof=XOF"`
	Description        string         `json:"description" validate:"max=255"`
	TransactionID      string         `json:"transactionId" validate:"max=100"`
	Metadata           map[string]any `json:"metadata"`
	SuccessRedirectURL string         `json:"successRedirectUrl" validate:"omitempty,url"`
	FailureRedirectURL string         `json:"failureRedirectUrl" validate:"omitempty,url"`
}

// MobileMoneyRequest starts a Wave or Orange Money checkout.
type MobileMoneyRequest struct {
	CommonFields
	Method            string            `json:"method" validate:"required,oneof=WAVE ORANGE_MONEY"`
	Customer          WalletCustomerDTO `json:"customer"`
	AuthorizationCode string            `json:"authorizationCode" validate:"omitempty,numeric"`
}

// CardDTO carries pass-through card fields.
type CardDTO struct {
	Number          string `json:"number" validate:"required,numeric,min=12,max=19"`
	ExpirationMonth string `json:"expirationMonth" validate:"required,numeric,len=2"`
	ExpirationYear  string `json:"expirationYear" validate:"required,numeric"`
	CVV             string `json:"cvv" validate:"required,numeric,min=3,max=4"`
}

// CreditCardRequest starts a card checkout.
type CreditCardRequest struct {
	CommonFields
	Customer CustomerDTO `json:"customer"`
	Card     CardDTO     `json:"card"`
}

// RedirectRequest starts a hosted checkout page.
type RedirectRequest struct {
	CommonFields
	Customer      CustomerDTO `json:"customer"`
	PaymentMethod string      `json:"paymentMethod" validate:"omitempty,oneof=WAVE ORANGE_MONEY CREDIT_CARD"`
}

func (f CommonFields) options(customer payment.Customer) payment.CheckoutOptions {
	currency := payment.Currency(f.Currency)
	if currency == "" {
		currency = payment.CurrencyXOF
	}
	txID := f.TransactionID
	if txID == "" {
		txID = uuid.NewString()
	}
	return payment.CheckoutOptions{
		Amount:             f.Amount,
		Currency:           currency,
		Description:        f.Description,
		TransactionID:      txID,
		Customer:           customer,
		Metadata:           f.Metadata,
		SuccessRedirectURL: f.SuccessRedirectURL,
		FailureRedirectURL: f.FailureRedirectURL,
	}
}

// ToCheckout maps the request to the matching mobile-money variant.
func (r *MobileMoneyRequest) ToCheckout() payment.MobileMoneyCheckout {
	opts := r.options(payment.Customer{
		FirstName:   r.Customer.FirstName,
		LastName:    r.Customer.LastName,
		PhoneNumber: r.Customer.PhoneNumber,
		Email:       r.Customer.Email,
	})
	if payment.PaymentMethod(r.Method) == payment.MethodOrangeMoney {
		return &payment.OrangeMoneyCheckout{
			CheckoutOptions:   opts,
			AuthorizationCode: r.AuthorizationCode,
		}
	}
	return &payment.WaveCheckout{CheckoutOptions: opts}
}

// ToCheckout maps the request to a card checkout.
func (r *CreditCardRequest) ToCheckout() *payment.CreditCardCheckout {
	return &payment.CreditCardCheckout{
		CheckoutOptions: r.options(payment.Customer(r.Customer)),
		Card:            payment.Card(r.Card),
	}
}

// ToCheckout maps the request to a redirect checkout.
func (r *RedirectRequest) ToCheckout() *payment.RedirectCheckout {
	return &payment.RedirectCheckout{
		CheckoutOptions: r.options(payment.Customer(r.Customer)),
		PaymentMethod:   payment.PaymentMethod(r.PaymentMethod),
	}
}
