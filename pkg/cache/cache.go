// Package cache defines the key/value store used to remember responses to
// idempotent requests.
package cache

import (
	"context"
	"time"
)

// Store keeps opaque values with a time to live. A missing or expired key is
// reported by Get with a nil value and nil error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
