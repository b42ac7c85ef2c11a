package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/amirasaad/africapayments/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// RawBodyProviders returns the configured names of providers that verify a
// signature over the raw webhook bytes.
func RawBodyProviders(cfg *config.PaymentProviders) map[string]bool {
	out := map[string]bool{
		config.ProviderStripe: true,
		config.ProviderBogus:  true,
	}
	if cfg == nil {
		return out
	}
	if cfg.Stripe != nil && cfg.Stripe.Name != "" {
		out[cfg.Stripe.Name] = true
	}
	if cfg.Bogus != nil && cfg.Bogus.Name != "" {
		out[cfg.Bogus.Name] = true
	}
	return out
}

// Webhook returns a Fiber handler delivering a gateway notification to the
// provider named in the path. Verification failures are acknowledged with 200
// so gateways stop retrying; only routing and handler errors fail the
// request.
func Webhook(
	svc Service,
	rawBody map[string]bool,
	pollTimeout time.Duration,
	logger *slog.Logger,
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provider := c.Params("provider")
		headers := http.Header{}
		c.Request().Header.VisitAll(func(k, v []byte) {
			headers.Add(string(k), string(v))
		})

		var body payment.WebhookBody
		if rawBody[provider] {
			body = payment.RawBody(append([]byte(nil), c.Body()...))
		} else {
			parsed, err := parseWebhookBody(c.Get(fiber.HeaderContentType), c.Body())
			if err != nil {
				return common.ProblemDetailsJSON(c, "Invalid webhook payload", err, fiber.StatusBadRequest)
			}
			body = parsed
		}

		ctx, cancel := pollContext(c, pollTimeout)
		defer cancel()
		event, err := svc.HandleWebhook(ctx, body, &payment.HandleWebhookOptions{
			Headers:      headers,
			ProviderName: provider,
		})
		if err != nil {
			logger.Error("webhook handling failed", "provider", provider, "error", err)
			return common.ProblemDetailsJSON(c, "Webhook handling failed", err)
		}
		if event == nil {
			logger.Info("webhook ignored", "provider", provider)
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Webhook ignored", nil)
		}
		logger.Info("webhook processed",
			"provider", provider,
			"event_type", event.Type,
			"transaction_id", event.TransactionID,
		)
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Webhook processed", event)
	}
}

func parseWebhookBody(contentType string, raw []byte) (payment.ParsedBody, error) {
	if strings.HasPrefix(contentType, fiber.MIMEApplicationForm) {
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, err
		}
		return expandBracketKeys(values), nil
	}
	parsed := payment.ParsedBody{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return parsed, nil
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// expandBracketKeys turns form keys such as data[invoice][token] into nested
// maps. Repeated keys keep their first value.
func expandBracketKeys(values url.Values) payment.ParsedBody {
	out := payment.ParsedBody{}
	for key, vs := range values {
		if len(vs) == 0 {
			continue
		}
		path := splitBracketKey(key)
		node := map[string]any(out)
		for _, part := range path[:len(path)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[part] = child
			}
			node = child
		}
		leaf := path[len(path)-1]
		if _, exists := node[leaf].(map[string]any); !exists {
			node[leaf] = vs[0]
		}
	}
	return out
}

func splitBracketKey(key string) []string {
	head, rest, found := strings.Cut(key, "[")
	if !found {
		return []string{key}
	}
	return append([]string{head}, strings.Split(strings.TrimSuffix(rest, "]"), "][")...)
}
