package payment

import "context"

// EventType is the lifecycle stage reported by an Event.
type EventType string

const (
	EventPaymentInitiated  EventType = "PAYMENT_INITIATED"
	EventPaymentSuccessful EventType = "PAYMENT_SUCCESSFUL"
	EventPaymentFailed     EventType = "PAYMENT_FAILED"
	EventPaymentCancelled  EventType = "PAYMENT_CANCELLED"
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	return string(t)
}

// EventTypes lists every lifecycle event type.
var EventTypes = []EventType{
	EventPaymentInitiated,
	EventPaymentSuccessful,
	EventPaymentFailed,
	EventPaymentCancelled,
}

// Event is a lifecycle notification. Events are informational; results and
// polling snapshots remain the authoritative record of a transaction.
type Event struct {
	Type                 EventType      `json:"type"`
	TransactionID        string         `json:"transactionId"`
	TransactionReference string         `json:"transactionReference"`
	TransactionAmount    int64          `json:"transactionAmount"`
	TransactionCurrency  Currency       `json:"transactionCurrency"`
	PaymentMethod        PaymentMethod  `json:"paymentMethod,omitempty"`
	PaymentProvider      string         `json:"paymentProvider,omitempty"`
	Metadata             map[string]any `json:"metadata,omitempty"`
	// RedirectURL is only set on PAYMENT_INITIATED.
	RedirectURL string `json:"redirectUrl,omitempty"`
	// Reason is only set on PAYMENT_FAILED and PAYMENT_CANCELLED.
	Reason string `json:"reason,omitempty"`
}

// EventDetails are the fields shared by every event type.
type EventDetails struct {
	TransactionID        string
	TransactionReference string
	TransactionAmount    int64
	TransactionCurrency  Currency
	PaymentMethod        PaymentMethod
	PaymentProvider      string
	Metadata             map[string]any
}

func (d EventDetails) event(t EventType) Event {
	return Event{
		Type:                 t,
		TransactionID:        d.TransactionID,
		TransactionReference: d.TransactionReference,
		TransactionAmount:    d.TransactionAmount,
		TransactionCurrency:  d.TransactionCurrency,
		PaymentMethod:        d.PaymentMethod,
		PaymentProvider:      d.PaymentProvider,
		Metadata:             d.Metadata,
	}
}

// NewInitiated builds a PAYMENT_INITIATED event.
func NewInitiated(d EventDetails, redirectURL string) Event {
	e := d.event(EventPaymentInitiated)
	e.RedirectURL = redirectURL
	return e
}

// NewSuccessful builds a PAYMENT_SUCCESSFUL event.
func NewSuccessful(d EventDetails) Event {
	return d.event(EventPaymentSuccessful)
}

// NewFailed builds a PAYMENT_FAILED event.
func NewFailed(d EventDetails, reason string) Event {
	e := d.event(EventPaymentFailed)
	e.Reason = reason
	return e
}

// NewCancelled builds a PAYMENT_CANCELLED event.
func NewCancelled(d EventDetails, reason string) Event {
	e := d.event(EventPaymentCancelled)
	e.Reason = reason
	return e
}

// EventSink receives lifecycle events from providers.
type EventSink interface {
	Emit(ctx context.Context, event Event) error
}
