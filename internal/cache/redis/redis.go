package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	pingAttempts = 5
	pingInterval = 2 * time.Second
)

type RedisCache struct {
	client *redis.Client
}

// Options configures the redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisCache connects to redis and returns a cache that complies with the
// cache interface. The connection is pinged a few times before giving up.
func NewRedisCache(ctx context.Context, opts Options) (*RedisCache, error) {
	rClient := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	retryTicker := time.NewTicker(pingInterval)
	defer retryTicker.Stop()

	var pingErr error
	for attempt := range pingAttempts {
		if pingErr = rClient.Ping(ctx).Err(); pingErr == nil {
			break
		}
		if attempt == pingAttempts-1 {
			break
		}
		select {
		case <-retryTicker.C:
		case <-ctx.Done():
			rClient.Close()
			return nil, fmt.Errorf("failed to ping redis instance: %w", ctx.Err())
		}
	}
	if pingErr != nil {
		rClient.Close()
		return nil, fmt.Errorf("failed to ping redis instance: %w", pingErr)
	}

	return &RedisCache{
		client: rClient,
	}, nil
}

func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
