package cache

import (
	"context"
	"errors"

	"github.com/AlxM1/aelo/internal/cart"
)

// CartCache holds the latest snapshot of a cart session.
type CartCache interface {
	Get(ctx context.Context, sessionID string) (*cart.Store, error)
	Set(ctx context.Context, sessionID string, store *cart.Store) error
	Delete(ctx context.Context, sessionID string) error
}

// QueryCache memoizes read-model query results for a fixed time.
type QueryCache interface {
	Load(ctx context.Context, key string, dest any) (bool, error)
	Store(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context, prefix string) error
}

var ErrCacheMiss = errors.New("cache miss")
