// Package common holds the response envelopes and request helpers shared by
// the HTTP handlers.
package common

import (
	"context"
	"errors"

	"github.com/amirasaad/africapayments/pkg/orchestrator"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	// ErrorType is the payment error type when the failure came from a
	// provider.
	ErrorType string `json:"errorType,omitempty"`
	Errors    any    `json:"errors,omitempty"`
}

var validate = validator.New()

// SuccessResponseJSON writes a Response.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// ContentTypeProblemJSON is the media type of RFC 9457 problem details.
const ContentTypeProblemJSON = "application/problem+json"

// ProblemDetailsJSON writes err as problem details. The status is taken from
// status when given, otherwise derived from err.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, status ...int) error {
	code := ErrorToStatusCode(err)
	if len(status) > 0 {
		code = status[0]
	}
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   code,
		Instance: c.OriginalURL(),
	}
	if err != nil {
		pd.Detail = err.Error()
		var pe *payment.PaymentError
		if errors.As(err, &pe) {
			pd.ErrorType = pe.Type.String()
		}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Namespace()] = fe.Tag()
			}
			pd.Errors = fields
		}
	}
	return c.Status(code).JSON(pd, ContentTypeProblemJSON)
}

// ErrorToStatusCode maps orchestrator and provider errors to HTTP status
// codes.
func ErrorToStatusCode(err error) int {
	if err == nil {
		return fiber.StatusInternalServerError
	}
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, orchestrator.ErrProviderNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, orchestrator.ErrNoProviderAvailable),
		errors.Is(err, payment.ErrInvalidAmount):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	}
	var pe *payment.PaymentError
	if !errors.As(err, &pe) {
		return fiber.StatusInternalServerError
	}
	switch pe.Type {
	case payment.ErrorInvalidPhoneNumber,
		payment.ErrorInvalidAuthorizationCode,
		payment.ErrorInvalidOperationCode,
		payment.ErrorUnsupportedPaymentMethod:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusBadGateway
	}
}

// BindAndValidate parses the request body and validates it using
// go-playground/validator. On failure it writes the problem response and
// returns a nil input; the returned error is the write error, if any.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
	}
	if err := validate.Struct(input); err != nil {
		return nil, ProblemDetailsJSON(c, "Validation failed", err, fiber.StatusBadRequest)
	}
	return &input, nil
}
