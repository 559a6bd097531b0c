package exchange

import (
	"context"
	"errors"
	"time"

	"realestate-workers/internal/common/database"
)

// ErrNotCached is returned by a RateCache that holds no entry for a base.
var ErrNotCached = errors.New("rates not cached")

// RateCache stores rate tables. Every entry carries its own expiry.
type RateCache interface {
	Get(ctx context.Context, base string) (*Rates, error)
	Set(ctx context.Context, rates *Rates, ttl time.Duration) error
}

const rateKeyPrefix = "exchange:rates:"

type RedisRateCache struct {
	redis *database.RedisClient
}

func NewRedisRateCache(redis *database.RedisClient) *RedisRateCache {
	return &RedisRateCache{redis: redis}
}

func (c *RedisRateCache) Get(ctx context.Context, base string) (*Rates, error) {
	var rates Rates
	err := c.redis.GetJSON(ctx, rateKeyPrefix+base, &rates)
	if errors.Is(err, database.ErrCacheMiss) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, err
	}
	return &rates, nil
}

func (c *RedisRateCache) Set(ctx context.Context, rates *Rates, ttl time.Duration) error {
	return c.redis.SetJSON(ctx, rateKeyPrefix+rates.Base, rates, ttl)
}
