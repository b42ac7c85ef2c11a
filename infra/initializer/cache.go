package initializer

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	infracache "github.com/amirasaad/africapayments/infra/cache"
	"github.com/amirasaad/africapayments/pkg/cache"
	"github.com/amirasaad/africapayments/pkg/config"
)

const redisConnectTimeout = 5 * time.Second

// initIdempotencyStore returns the store backing Idempotency-Key replay, or
// nil when replay is disabled. An unreachable Redis falls back to memory.
func initIdempotencyStore(cfg *config.Idempotency, logger *slog.Logger) (cache.Store, io.Closer) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	if strings.EqualFold(cfg.Store, config.StoreRedis) {
		ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
		defer cancel()
		store, err := infracache.NewRedisCache(ctx, cfg.RedisURL, "", logger)
		if err == nil {
			logger.Info("Idempotency store enabled", "store", config.StoreRedis)
			return store, store
		}
		logger.Error("Failed to create redis idempotency store, using memory", "error", err)
	}
	store := infracache.NewMemoryCache(infracache.DefaultCleanupInterval)
	logger.Info("Idempotency store enabled", "store", config.StoreMemory)
	return store, store
}
