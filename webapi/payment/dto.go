package payment

import (
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/google/uuid"
)

// RecipientDTO is the wallet holder receiving a payout.
type RecipientDTO struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
}

// PayoutRequest sends money to a mobile wallet.
type PayoutRequest struct {
	Amount               int64          `json:"amount" validate:"required,gt=0"`
	Currency             string         `json:"currency" validate:"omitempty,oneof=XOF"`
	Method               string         `json:"method" validate:"required,oneof=WAVE ORANGE_MONEY"`
	Recipient            RecipientDTO   `json:"recipient"`
	TransactionID        string         `json:"transactionId" validate:"max=100"`
	TransactionReference string         `json:"transactionReference"`
	Description          string         `json:"description" validate:"max=255"`
	Metadata             map[string]any `json:"metadata"`
}

// ToPayout maps the request to payout options.
func (r *PayoutRequest) ToPayout() *payment.MobileMoneyPayout {
	currency := payment.Currency(r.Currency)
	if currency == "" {
		currency = payment.CurrencyXOF
	}
	txID := r.TransactionID
	if txID == "" {
		txID = uuid.NewString()
	}
	return &payment.MobileMoneyPayout{
		Amount:               r.Amount,
		Currency:             currency,
		PaymentMethod:        payment.PaymentMethod(r.Method),
		Recipient:            payment.Recipient(r.Recipient),
		TransactionID:        txID,
		TransactionReference: r.TransactionReference,
		Description:          r.Description,
		Metadata:             r.Metadata,
	}
}

// RefundRequest refunds a previous transaction on the provider that created
// it.
type RefundRequest struct {
	Provider                     string         `json:"provider"`
	TransactionID                string         `json:"transactionId" validate:"max=100"`
	RefundedTransactionReference string         `json:"refundedTransactionReference" validate:"required"`
	RefundedAmount               int64          `json:"refundedAmount" validate:"gte=0"`
	Metadata                     map[string]any `json:"metadata"`
}

// ToRefund maps the request to refund options.
func (r *RefundRequest) ToRefund() *payment.RefundOptions {
	txID := r.TransactionID
	if txID == "" {
		txID = uuid.NewString()
	}
	return &payment.RefundOptions{
		TransactionID:                txID,
		RefundedTransactionReference: r.RefundedTransactionReference,
		RefundedAmount:               r.RefundedAmount,
		Metadata:                     r.Metadata,
		ProviderName:                 r.Provider,
	}
}
