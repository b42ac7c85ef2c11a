// Package payment exposes payouts, refunds, webhooks and status polling over
// HTTP.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/amirasaad/africapayments/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Service is the subset of the orchestrator used by these routes.
type Service interface {
	PayoutMobileMoney(ctx context.Context, opts *payment.MobileMoneyPayout) (*payment.PayoutResult, error)
	Refund(ctx context.Context, opts *payment.RefundOptions) (*payment.RefundResult, error)
	HandleWebhook(
		ctx context.Context,
		body payment.WebhookBody,
		opts *payment.HandleWebhookOptions,
	) (*payment.Event, error)
	Callback(
		ctx context.Context,
		providerName, correlationID string,
		interval time.Duration,
		maxAttempts int,
	) (*payment.StatusSnapshot, error)
}

// DefaultPollTimeout bounds a polling request when no timeout is configured.
const DefaultPollTimeout = 2 * time.Minute

// Routes registers payout, refund, webhook and status routes. rawBody names
// the providers whose webhooks are verified over the exact request bytes.
// pollTimeout bounds the routes that may poll a gateway.
func Routes(
	app *fiber.App,
	svc Service,
	rawBody map[string]bool,
	pollTimeout time.Duration,
	logger *slog.Logger,
) {
	if logger == nil {
		logger = slog.Default()
	}
	api := app.Group("/api/v1")
	api.Post("/payouts/mobile-money", Payout(svc, logger))
	api.Post("/refunds", Refund(svc, logger))
	api.Post("/webhooks/:provider", Webhook(svc, rawBody, pollTimeout, logger))
	api.Get("/transactions/:provider/:reference/status", Status(svc, pollTimeout, logger))
}

func pollContext(c *fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	return context.WithTimeout(c.UserContext(), timeout)
}

// Payout returns a Fiber handler sending a mobile-money disbursement.
func Payout(svc Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[PayoutRequest](c)
		if input == nil {
			return err // error response already written
		}
		opts := input.ToPayout()
		result, err := svc.PayoutMobileMoney(c.UserContext(), opts)
		if err != nil {
			logger.Warn("payout failed",
				"method", opts.PaymentMethod,
				"transaction_id", opts.TransactionID,
				"error", err,
			)
			return common.ProblemDetailsJSON(c, "Payout failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Payout sent", result)
	}
}

// Refund returns a Fiber handler refunding a previous transaction.
func Refund(svc Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[RefundRequest](c)
		if input == nil {
			return err // error response already written
		}
		opts := input.ToRefund()
		result, err := svc.Refund(c.UserContext(), opts)
		if err != nil {
			logger.Warn("refund failed",
				"provider", opts.ProviderName,
				"reference", opts.RefundedTransactionReference,
				"error", err,
			)
			return common.ProblemDetailsJSON(c, "Refund failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Refund requested", result)
	}
}

// Status returns a Fiber handler polling a transaction until it leaves
// PENDING or the attempts run out. interval is a Go duration of at least
// payment.MinPollInterval and maxAttempts an integer up to
// payment.MaxPollAttempts; both are optional. The whole poll is bounded by
// pollTimeout.
func Status(svc Service, pollTimeout time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var interval time.Duration
		if raw := c.Query("interval"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err == nil && d < payment.MinPollInterval {
				err = fmt.Errorf("interval must be at least %s", payment.MinPollInterval)
			}
			if err != nil {
				return common.ProblemDetailsJSON(c, "Invalid interval", err, fiber.StatusBadRequest)
			}
			interval = d
		}
		maxAttempts := c.QueryInt("maxAttempts", 0)
		if maxAttempts < 0 || maxAttempts > payment.MaxPollAttempts {
			return common.ProblemDetailsJSON(c, "Invalid maxAttempts",
				fmt.Errorf("maxAttempts must be between 0 and %d", payment.MaxPollAttempts),
				fiber.StatusBadRequest)
		}

		ctx, cancel := pollContext(c, pollTimeout)
		defer cancel()
		provider := c.Params("provider")
		reference := c.Params("reference")
		snapshot, err := svc.Callback(ctx, provider, reference, interval, maxAttempts)
		if err != nil {
			logger.Warn("status check failed",
				"provider", provider,
				"reference", reference,
				"error", err,
			)
			return common.ProblemDetailsJSON(c, "Status check failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction status", snapshot)
	}
}
