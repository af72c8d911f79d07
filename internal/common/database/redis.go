// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"careerflow/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the connection behind the redis session store, kept with the
// key namespace the sessions live under.
type RedisClient struct {
	Client    *redis.Client
	keyPrefix string
}

// NewRedis configures the client without dialing; the first command connects.
func NewRedis(cfg config.RedisConfig) *RedisClient {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	return &RedisClient{Client: rdb, keyPrefix: cfg.KeyPrefix}
}

// Ping backs the redis entry of /health.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// KeyPrefix is the namespace every key of this service lives under.
func (c *RedisClient) KeyPrefix() string {
	return c.keyPrefix
}

// Key joins parts under the service prefix, e.g. careerflow:session:<id>.
func Key(prefix string, parts ...string) string {
	if prefix == "" {
		return strings.Join(parts, ":")
	}
	return prefix + ":" + strings.Join(parts, ":")
}
