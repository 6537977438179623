package cache

import (
	"context"
	"time"
)

// Cache is a string key/value store with expiry
type Cache interface {
	Set(ctx context.Context, key, val string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}
