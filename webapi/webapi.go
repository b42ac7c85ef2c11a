// Package webapi provides the HTTP surface of the payment orchestrator.
// It is organized into sub-packages:
// - checkout: mobile money, card and redirect checkouts
// - payment: payouts, refunds, webhooks and status polling
package webapi

import (
	"errors"
	"strings"
	"time"

	"github.com/amirasaad/africapayments/pkg/app"
	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/middleware"
	checkoutweb "github.com/amirasaad/africapayments/webapi/checkout"
	"github.com/amirasaad/africapayments/webapi/common"
	paymentweb "github.com/amirasaad/africapayments/webapi/payment"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	cfg := a.Config
	if cfg == nil {
		cfg = &config.App{}
	}
	rate := cfg.RateLimit
	if rate == nil {
		rate = &config.RateLimit{MaxRequests: 100}
	}
	server := cfg.Server
	if server == nil {
		server = &config.Server{}
	}

	fiberCfg := fiber.Config{
		AppName: "africapayments",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	}
	// c.IP() reads X-Forwarded-For only on requests from a trusted proxy.
	if len(server.TrustedProxies) > 0 {
		fiberCfg.EnableTrustedProxyCheck = true
		fiberCfg.TrustedProxies = server.TrustedProxies
		fiberCfg.ProxyHeader = fiber.HeaderXForwardedFor
		fiberCfg.EnableIPValidation = true
	}
	fiberApp := fiber.New(fiberCfg)

	fiberApp.Use(limiter.New(limiter.Config{
		Max:        rate.MaxRequests,
		Expiration: rate.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())
	if a.Deps.Idempotency != nil {
		var ttl time.Duration
		if cfg.Idempotency != nil {
			ttl = cfg.Idempotency.TTL
		}
		fiberApp.Use("/api/v1", middleware.Idempotency(middleware.IdempotencyConfig{
			Store:  a.Deps.Idempotency,
			TTL:    ttl,
			Logger: a.Deps.Logger,
			Next: func(c *fiber.Ctx) bool {
				return strings.HasPrefix(c.Path(), "/api/v1/webhooks/")
			},
		}))
	}

	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Africa Payments API is running! 🚀")
	})
	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		return common.SuccessResponseJSON(c, fiber.StatusOK, "ok", fiber.Map{
			"providers": a.Deps.Payments.Providers(),
		})
	})

	checkoutweb.Routes(fiberApp, a.Deps.Payments, a.Deps.Logger)
	paymentweb.Routes(
		fiberApp,
		a.Deps.Payments,
		paymentweb.RawBodyProviders(cfg.PaymentProviders),
		server.PollTimeout,
		a.Deps.Logger,
	)
	return fiberApp
}
