// Package cache defines the key-value cache port shared by price lookups and
// idempotency records.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
// A miss is reported as ok == false with a nil error. Implementations that
// cannot honour a per-key ttl (a KV bucket with a fixed max age) ignore it.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
