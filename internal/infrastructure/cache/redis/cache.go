package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "hlc:"

// commands is the subset of the go-redis client used by the cache.
type commands interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
}

// SignalCache stores raw signal measurements in Redis with a TTL.
type SignalCache struct {
	client commands
}

// Conn opens a client and checks it with PING.
func Conn(ctx context.Context, addr, password string, db int, timeout time.Duration) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: timeout,
	})
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if pong != "PONG" {
		_ = client.Close()
		return nil, fmt.Errorf("expected PONG, got %s", pong)
	}
	return client, nil
}

func NewSignalCache(client *goredis.Client) *SignalCache {
	return &SignalCache{client: client}
}

func (c *SignalCache) Get(ctx context.Context, key string) (float64, bool, error) {
	value, err := c.client.Get(ctx, keyPrefix+key).Float64()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get signal: %w", err)
	}
	return value, true, nil
}

func (c *SignalCache) Set(ctx context.Context, key string, value float64, ttl time.Duration) error {
	raw := strconv.FormatFloat(value, 'g', -1, 64)
	if err := c.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set signal: %w", err)
	}
	return nil
}
