package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/AlxM1/aelo/internal/cart"
	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

// Get returns the cached cart. An entry that does not decode strictly is an
// error so the caller can drop it and fall back to the store of record.
func (r RedisCache) Get(ctx context.Context, sessionID string) (*cart.Store, error) {
	data, err := r.client.Get(ctx, cacheKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	store, err := cart.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return store, nil
}

func (r RedisCache) Set(ctx context.Context, sessionID string, store *cart.Store) error {
	data, err := store.MarshalSnapshot()
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	// ttl is baseTTL plus up to four minutes of jitter
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, cacheKey(sessionID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cacheKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
