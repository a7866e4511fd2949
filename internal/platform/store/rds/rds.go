// Package rds opens a go-redis client
package rds

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Config configures the redis client
type Config struct {
	URL  string
	Addr string
	DB   int
}

// Options resolves cfg into go-redis options, URL first
func Options(cfg Config) (*redis.Options, error) {
	if cfg.URL != "" {
		return redis.ParseURL(cfg.URL)
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: empty addr")
	}
	return &redis.Options{Addr: cfg.Addr, DB: cfg.DB}, nil
}

// Open builds a client and pings it
func Open(ctx context.Context, cfg Config) (*redis.Client, error) {
	opt, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opt)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return c, nil
}
