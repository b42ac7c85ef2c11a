// Package checkout exposes the checkout operations over HTTP.
package checkout

import (
	"context"
	"log/slog"

	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/amirasaad/africapayments/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Service is the subset of the orchestrator used by the checkout routes.
type Service interface {
	CheckoutMobileMoney(ctx context.Context, opts payment.MobileMoneyCheckout) (*payment.CheckoutResult, error)
	CheckoutCreditCard(ctx context.Context, opts *payment.CreditCardCheckout) (*payment.CheckoutResult, error)
	CheckoutRedirect(ctx context.Context, opts *payment.RedirectCheckout) (*payment.CheckoutResult, error)
}

// Routes registers HTTP routes for checkout operations.
func Routes(app *fiber.App, svc Service, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	group := app.Group("/api/v1/checkout")
	group.Post("/mobile-money", MobileMoney(svc, logger))
	group.Post("/credit-card", CreditCard(svc, logger))
	group.Post("/redirect", Redirect(svc, logger))
}

// MobileMoney returns a Fiber handler starting a Wave or Orange Money
// checkout.
func MobileMoney(svc Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[MobileMoneyRequest](c)
		if input == nil {
			return err // error response already written
		}
		opts := input.ToCheckout()
		result, err := svc.CheckoutMobileMoney(c.UserContext(), opts)
		if err != nil {
			logger.Warn("mobile money checkout failed",
				"method", opts.Method(),
				"transaction_id", opts.Options().TransactionID,
				"error", err,
			)
			return common.ProblemDetailsJSON(c, "Checkout failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Checkout initiated", result)
	}
}

// CreditCard returns a Fiber handler starting a card checkout.
func CreditCard(svc Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[CreditCardRequest](c)
		if input == nil {
			return err // error response already written
		}
		opts := input.ToCheckout()
		result, err := svc.CheckoutCreditCard(c.UserContext(), opts)
		if err != nil {
			logger.Warn("credit card checkout failed",
				"transaction_id", opts.TransactionID,
				"error", err,
			)
			return common.ProblemDetailsJSON(c, "Checkout failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Checkout initiated", result)
	}
}

// Redirect returns a Fiber handler creating a hosted checkout page.
func Redirect(svc Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[RedirectRequest](c)
		if input == nil {
			return err // error response already written
		}
		opts := input.ToCheckout()
		result, err := svc.CheckoutRedirect(c.UserContext(), opts)
		if err != nil {
			logger.Warn("redirect checkout failed",
				"transaction_id", opts.TransactionID,
				"error", err,
			)
			return common.ProblemDetailsJSON(c, "Checkout failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Checkout initiated", result)
	}
}
