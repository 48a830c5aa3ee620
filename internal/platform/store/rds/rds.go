// Package rds opens a go-redis client with a readiness ping
package rds

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures the redis client
type Config struct {
	Addr        string
	DB          int
	Password    string
	DialTimeout time.Duration
}

// NewClient builds a client without touching the network
func NewClient(cfg Config) *redis.Client {
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = 5 * time.Second
	}
	return redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		DB:          cfg.DB,
		Password:    cfg.Password,
		DialTimeout: dial,
	})
}

// Open builds a client and pings it once
func Open(ctx context.Context, cfg Config) (*redis.Client, error) {
	c := NewClient(cfg)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return c, nil
}
