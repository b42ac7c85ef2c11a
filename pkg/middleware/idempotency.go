// Package middleware holds Fiber middleware shared by the HTTP routes.
package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/africapayments/pkg/cache"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/singleflight"
)

const (
	// HeaderIdempotencyKey carries the client chosen key.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotentReplayed is set on responses served from the store.
	HeaderIdempotentReplayed = "Idempotent-Replayed"
	// DefaultIdempotencyTTL is how long a response is remembered.
	DefaultIdempotencyTTL = 24 * time.Hour

	maxIdempotencyKeyLength = 255
)

// ErrIdempotencyKeyReused is reported when a key is sent again with a
// different request body.
var ErrIdempotencyKeyReused = errors.New("idempotency key reused with a different request body")

// IdempotencyConfig configures Idempotency.
type IdempotencyConfig struct {
	Store  cache.Store
	TTL    time.Duration
	Logger *slog.Logger
	// Next skips the middleware when it returns true.
	Next func(c *fiber.Ctx) bool
}

type storedResponse struct {
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// Idempotency replays the stored response of a POST carrying an
// Idempotency-Key header instead of running the handler again. Concurrent
// requests with the same key wait for the first one. Responses with a 5xx
// status are not stored so the client can retry.
func Idempotency(cfg IdempotencyConfig) fiber.Handler {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultIdempotencyTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var inflight singleflight.Group

	return func(c *fiber.Ctx) error {
		if cfg.Store == nil || c.Method() != fiber.MethodPost || (cfg.Next != nil && cfg.Next(c)) {
			return c.Next()
		}
		key := strings.Clone(strings.TrimSpace(c.Get(HeaderIdempotencyKey)))
		if key == "" {
			return c.Next()
		}
		if len(key) > maxIdempotencyKeyLength {
			return fiber.NewError(fiber.StatusBadRequest, "idempotency key is too long")
		}

		scope := c.Method() + " " + strings.Clone(c.Path()) + " " + key
		sum := sha256.Sum256(c.Body())
		fingerprint := hex.EncodeToString(sum[:])
		log := logger.With("idempotency_key", key, "path", c.Path())
		ctx := c.UserContext()

		var executed bool
		v, err, _ := inflight.Do(scope, func() (any, error) {
			raw, err := cfg.Store.Get(ctx, scope)
			if err != nil {
				log.Warn("idempotency lookup failed", "error", err)
			}
			if raw != nil {
				var stored storedResponse
				if err := json.Unmarshal(raw, &stored); err == nil {
					return &stored, nil
				}
				log.Warn("discarding unreadable idempotency record")
			}

			executed = true
			if err := c.Next(); err != nil {
				return nil, err
			}
			resp := c.Response()
			stored := &storedResponse{
				Fingerprint: fingerprint,
				Status:      resp.StatusCode(),
				ContentType: string(resp.Header.ContentType()),
				Body:        append([]byte(nil), resp.Body()...),
			}
			if stored.Status >= fiber.StatusInternalServerError {
				return stored, nil
			}
			data, err := json.Marshal(stored)
			if err == nil {
				err = cfg.Store.Set(ctx, scope, data, cfg.TTL)
			}
			if err != nil {
				log.Warn("failed to store idempotent response", "error", err)
			}
			return stored, nil
		})
		if executed || err != nil {
			return err
		}

		stored := v.(*storedResponse)
		if stored.Fingerprint != fingerprint {
			return fiber.NewError(fiber.StatusUnprocessableEntity, ErrIdempotencyKeyReused.Error())
		}
		log.Info("🔁 Replaying stored response", "status", stored.Status)
		c.Set(HeaderIdempotentReplayed, "true")
		if stored.ContentType != "" {
			c.Set(fiber.HeaderContentType, stored.ContentType)
		}
		return c.Status(stored.Status).Send(stored.Body)
	}
}
