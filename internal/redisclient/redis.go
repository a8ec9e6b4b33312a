// Package redisclient provides the single Redis connection shared by the
// queue adapter, the rate limiter, and the distributed cache tier.
package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/flexprice/flexprice/internal/config"
	"github.com/flexprice/flexprice/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Client wraps *redis.Client with the connection settings this service
// needs; grounded on brokle-ai-brokle's RedisDB wrapper.
type Client struct {
	*redis.Client
	log *logger.Logger
}

func NewClient(cfg *config.Configuration, log *logger.Logger) (*Client, error) {
	opt := &redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     20,
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info("connected to redis")
	return &Client{Client: client, log: log}, nil
}

// Health reports whether Redis is reachable, used by GET /health (§4.4).
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	c.log.Info("closing redis connection")
	return c.Client.Close()
}
