package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultQueryTTL = 60 * time.Second
	queryNamespace  = "query:"
)

// RedisQueryCache stores JSON-encoded query results under query:<key>.
type RedisQueryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisQueryCache(client *redis.Client, ttl time.Duration) *RedisQueryCache {
	if ttl <= 0 {
		ttl = DefaultQueryTTL
	}
	return &RedisQueryCache{client: client, ttl: ttl}
}

// Load decodes the cached value into dest and reports whether it was found.
func (c *RedisQueryCache) Load(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, queryNamespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// unreadable entries are dropped and treated as a miss
		_ = c.client.Del(ctx, queryNamespace+key).Err()
		return false, nil
	}
	return true, nil
}

func (c *RedisQueryCache) Store(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal query result failed: %w", err)
	}
	if err := c.client.Set(ctx, queryNamespace+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Invalidate removes every entry whose key starts with prefix.
func (c *RedisQueryCache) Invalidate(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, queryNamespace+prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
