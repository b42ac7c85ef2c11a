package taarih

import (
	"encoding/json"
)

// Transaction statuses reported by verify-transaction-status.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

type signInRequest struct {
	CallingCode string `json:"callingCode"`
	PhoneNumber string `json:"phoneNumber"`
	AuthMode    string `json:"authMode"`
	VisitorID   string `json:"visitorId"`
	Password    string `json:"password"`
}

type bankAccount struct {
	ID             int64  `json:"id"`
	CommercialName string `json:"commercial_name"`
	TechnicalName  string `json:"technical_name"`
}

// session is a successful sign-in.
type session struct {
	Token            string        `json:"token"`
	ID               int64         `json:"id"`
	LegalEntityID    int64         `json:"legalEntityId"`
	LegalEntityName  string        `json:"legalEntityName"`
	RefreshToken     string        `json:"refreshToken"`
	FirstName        string        `json:"firstName"`
	LastName         string        `json:"lastName"`
	PhoneNumber      string        `json:"phoneNumber"`
	UserBankAccounts []bankAccount `json:"userBankAccounts"`
}

// apiError is the error envelope; InvalidData holds field validation errors.
type apiError struct {
	StatusCode   int            `json:"statusCode"`
	Timestamp    string         `json:"timestamp"`
	Path         string         `json:"path"`
	Message      string         `json:"message"`
	ResponseText string         `json:"response_text"`
	InvalidData  map[string]any `json:"invalidData"`
}

type preAuthRequest struct {
	CompanyID     int64  `json:"companyId"`
	Amount        int64  `json:"amount"`
	BankAccountID string `json:"bankAccountId"`
	PaymentMethod string `json:"paymentMethod"`
	OperationCode string `json:"operationCode"`
	Currency      string `json:"currency"`
}

type preAuthResponse struct {
	Amount        float64 `json:"amount"`
	Fees          float64 `json:"fees"`
	TotalAmount   float64 `json:"totalAmount"`
	PaymentMethod string  `json:"paymentMethod"`
}

type posPaymentRequest struct {
	CompanyID     int64  `json:"companyId"`
	Amount        int64  `json:"amount"`
	CountryCode   string `json:"countryCode"`
	MobileNumber  string `json:"mobileNumber"`
	PaymentMethod string `json:"paymentMethod"`
	OperationCode string `json:"operationCode"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Currency      string `json:"currency"`
	ExternalID    string `json:"externalId,omitempty"`
}

type posPaymentResponse struct {
	ExternalID  string `json:"externalId"`
	InternalID  string `json:"internalId"`
	PaymentLink string `json:"payment_link"`
}

type transactionStatus struct {
	Status            string  `json:"status"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	BankAccountSender *string `json:"bankAccountSender"`
}

type webhookBody struct {
	TransactionID string  `json:"transactionId"`
	TimeInterval  float64 `json:"timeInterval"`
	MaxAttempts   float64 `json:"maxAttempts"`
}

func hasKey(fields map[string]json.RawMessage, key string) bool {
	_, ok := fields[key]
	return ok
}

func decodeParsed(body map[string]any, v any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
