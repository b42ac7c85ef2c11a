package paydunya

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const responseCodeSuccess = "00"

// amount decodes totals Paydunya sends either as a JSON number or as a
// numeric string. Fractions are truncated: XOF has no minor unit.
type amount int64

func (a *amount) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", data, err)
	}
	*a = amount(int64(f))
	return nil
}

type errorEnvelope struct {
	Message      string `json:"message"`
	ResponseText string `json:"response_text"`
}

type createInvoiceRequest struct {
	Invoice    invoiceDetails `json:"invoice"`
	Store      store          `json:"store"`
	Channels   []string       `json:"channels"`
	CustomData map[string]any `json:"custom_data"`
	Actions    actions        `json:"actions"`
}

type invoiceDetails struct {
	TotalAmount int64  `json:"total_amount"`
	Description string `json:"description"`
}

type store struct {
	Name string `json:"name"`
}

type actions struct {
	CancelURL   string `json:"cancel_url,omitempty"`
	ReturnURL   string `json:"return_url,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type createInvoiceResponse struct {
	ResponseCode string `json:"response_code"`
	// ResponseText carries the hosted checkout URL on success.
	ResponseText string `json:"response_text"`
	Description  string `json:"description"`
	Token        string `json:"token"`
}

type waveRequest struct {
	FullName     string `json:"wave_senegal_fullName"`
	Email        string `json:"wave_senegal_email"`
	Phone        string `json:"wave_senegal_phone"`
	PaymentToken string `json:"wave_senegal_payment_token"`
}

type orangeMoneyRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	PhoneNumber   string `json:"phone_number"`
	// AuthorizationCode must be absent, not empty, in the QR code flow.
	AuthorizationCode string `json:"authorization_code,omitempty"`
	InvoiceToken      string `json:"invoice_token"`
	APIType           string `json:"api_type"`
}

// Orange Money sub-flows.
const (
	apiTypeOTP    = "OTPCODE"
	apiTypeQRCode = "QRCODE"
)

type softpayResponse struct {
	Success  bool    `json:"success"`
	Message  string  `json:"message"`
	URL      string  `json:"url"`
	Fees     float64 `json:"fees"`
	Currency string  `json:"currency"`
}

type invoice struct {
	Token                  string `json:"token"`
	TotalAmount            amount `json:"total_amount"`
	TotalAmountWithoutFees amount `json:"total_amount_without_fees"`
	Description            string `json:"description"`
	ExpireDate             string `json:"expire_date"`
}

type customer struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	PaymentMethod string `json:"payment_method"`
}

// invoiceStatus is shared by the confirm endpoint and IPN deliveries.
type invoiceStatus struct {
	ResponseCode      string         `json:"response_code"`
	ResponseText      string         `json:"response_text"`
	Hash              string         `json:"hash"`
	Invoice           *invoice       `json:"invoice"`
	CustomData        map[string]any `json:"custom_data"`
	Mode              string         `json:"mode"`
	Status            string         `json:"status"`
	FailReason        string         `json:"fail_reason"`
	Customer          customer       `json:"customer"`
	ReceiptURL        string         `json:"receipt_url"`
	ProviderReference string         `json:"provider_reference"`
}

// Invoice statuses reported by IPN deliveries.
const (
	statusCompleted = "completed"
	statusCancelled = "cancelled"
	statusFailed    = "failed"
)

type disburseInvoiceRequest struct {
	AccountAlias string `json:"account_alias"`
	Amount       int64  `json:"amount"`
	WithdrawMode string `json:"withdraw_mode"`
	CallbackURL  string `json:"callback_url,omitempty"`
}

type disburseInvoiceResponse struct {
	ResponseCode  string `json:"response_code"`
	ResponseText  string `json:"response_text"`
	DisburseToken string `json:"disburse_token"`
}

type submitDisburseRequest struct {
	DisburseInvoice string `json:"disburse_invoice"`
	DisburseID      string `json:"disburse_id"`
}

type submitDisburseResponse struct {
	ResponseCode  string `json:"response_code"`
	ResponseText  string `json:"response_text"`
	Description   string `json:"description"`
	TransactionID string `json:"transaction_id"`
	ProviderRef   string `json:"provider_ref"`
}

// withdrawMode converts an invoice payment method such as wave_senegal into
// the disbursement channel wave-senegal.
func withdrawMode(paymentMethod string) string {
	return strings.ReplaceAll(paymentMethod, "_", "-")
}

func decodeParsed(body map[string]any, v any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
