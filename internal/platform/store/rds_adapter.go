package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisAdapter maps go-redis onto the Cache seam
type redisAdapter struct {
	c redis.UniversalClient
}

// NewRedis wraps an existing go-redis client
func NewRedis(c redis.UniversalClient) Cache { return &redisAdapter{c: c} }

func (a *redisAdapter) Get(ctx context.Context, key string) (string, error) {
	v, err := a.c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return v, err
}

func (a *redisAdapter) Set(ctx context.Context, key, val string, ttl time.Duration) error {
	return a.c.Set(ctx, key, val, ttl).Err()
}

func (a *redisAdapter) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return a.c.Del(ctx, keys...).Err()
}

func (a *redisAdapter) Ping(ctx context.Context) error { return a.c.Ping(ctx).Err() }

func (a *redisAdapter) Close() error { return a.c.Close() }
