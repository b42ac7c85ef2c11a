package payment

import (
	"errors"
	"fmt"
)

// ErrorType classifies a provider failure. It is the only signal the
// orchestrator inspects to choose between fallback and abort.
type ErrorType string

const (
	// ErrorInvalidAuthorizationCode is returned when an OTP or authorization code
	// is rejected by the gateway.
	ErrorInvalidAuthorizationCode ErrorType = "INVALID_AUTHORIZATION_CODE"
	// ErrorUnsupportedPaymentMethod is returned when a provider cannot handle the
	// requested method or currency. It triggers fallback to the next provider.
	ErrorUnsupportedPaymentMethod ErrorType = "UNSUPPORTED_PAYMENT_METHOD"
	// ErrorInvalidPhoneNumber is returned when a customer phone number is not
	// valid for the provider's home region.
	ErrorInvalidPhoneNumber ErrorType = "INVALID_PHONE_NUMBER"
	// ErrorInvalidOperationCode is returned when no gateway operation code maps
	// to the requested payment method.
	ErrorInvalidOperationCode ErrorType = "INVALID_OPERATION_CODE"
	// ErrorUnknown covers malformed or unexpected upstream responses.
	ErrorUnknown ErrorType = "UNKNOWN_ERROR"
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return string(t)
}

// PaymentError is the error returned by every provider operation.
type PaymentError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewError creates a PaymentError. An empty type defaults to ErrorUnknown.
func NewError(message string, errType ErrorType) *PaymentError {
	if errType == "" {
		errType = ErrorUnknown
	}
	return &PaymentError{Type: errType, Message: message}
}

// ErrInvalidAmount is wrapped, as an ErrorUnknown PaymentError, around
// amounts rejected before any gateway call.
var ErrInvalidAmount = errors.New("invalid amount")

// InvalidAmount builds the error for an amount rejected before any gateway
// call.
func InvalidAmount(format string, args ...any) error {
	return &PaymentError{
		Type:    ErrorUnknown,
		Message: fmt.Sprintf(format, args...),
		Err:     ErrInvalidAmount,
	}
}

// Errorf creates a PaymentError with a formatted message.
func Errorf(errType ErrorType, format string, args ...any) *PaymentError {
	return NewError(fmt.Sprintf(format, args...), errType)
}

// WrapError wraps err into a PaymentError. If err already is a PaymentError it
// is returned untouched so the original type survives.
func WrapError(err error, errType ErrorType, message string) error {
	if err == nil {
		return nil
	}
	var pe *PaymentError
	if errors.As(err, &pe) {
		return err
	}
	if errType == "" {
		errType = ErrorUnknown
	}
	return &PaymentError{Type: errType, Message: message, Err: err}
}

// TypeOf reports the ErrorType carried by err. Errors that are not
// PaymentErrors report ErrorUnknown; nil reports an empty type.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ErrorUnknown
}

// IsUnsupported reports whether err asks the caller to try another provider.
func IsUnsupported(err error) bool {
	return TypeOf(err) == ErrorUnsupportedPaymentMethod
}
