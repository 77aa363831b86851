package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AlxM1/aelo/internal/cache"
	"github.com/AlxM1/aelo/internal/cart"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/AlxM1/aelo/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ProductLookup resolves the product a customer adds to the cart.
type ProductLookup interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

// CartService loads a cart session, applies one Store operation and saves it
// back. Concurrent writers to the same session are last-write-wins.
type CartService struct {
	repo     CartRepository
	cache    cache.CartCache
	products ProductLookup
	log      *slog.Logger
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(repo CartRepository, cache cache.CartCache, products ProductLookup, log *slog.Logger) *CartService {
	return &CartService{
		repo:     repo,
		cache:    cache,
		products: products,
		log:      log,
	}
}

// GetCart never fails on a missing or corrupted cart; both load as empty.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*cart.Store, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (any, error) {
		store, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return store, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cart cache get failed", "session", sessionID, "error", err)
		}

		store, found, err := s.load(ctx, sessionID)
		if err != nil || !found {
			return store, err
		}

		go func() {
			if err := s.cache.Set(context.Background(), sessionID, store); err != nil {
				s.log.Warn("cart cache set failed", "session", sessionID, "error", err)
			}
		}()

		return store, nil
	})
	if err != nil {
		return nil, err
	}

	// callers sharing one flight each get their own Store
	return cart.Restore(v.(*cart.Store).Lines()), nil
}

// AddItem captures the product's current price and presentation fields.
// Unknown and inactive products are reported as not found.
func (s *CartService) AddItem(ctx context.Context, sessionID string, productID uuid.UUID) (*cart.Store, error) {
	p, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, fmt.Errorf("%w: product %s is not available", domain.ErrNotFound, productID)
	}
	return s.mutate(ctx, sessionID, func(c *cart.Store) { c.AddItem(*p) })
}

func (s *CartService) UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*cart.Store, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Store) { c.UpdateQuantity(productID, quantity) })
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (*cart.Store, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Store) { c.RemoveItem(productID) })
}

func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	if err := s.repo.DeleteCart(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		s.log.Error("repo delete cart failed", "session", sessionID, "error", err)
		return err
	}

	invalidateCache(s, sessionID)
	return nil
}

// load reads the session from the repository. Missing and corrupted carts
// come back empty with found set to false.
func (s *CartService) load(ctx context.Context, sessionID string) (*cart.Store, bool, error) {
	lines, err := s.repo.GetCart(ctx, sessionID)
	switch {
	case errors.Is(err, repository.ErrCartNotFound):
		return cart.New(), false, nil
	case errors.Is(err, cart.ErrCorruptSnapshot):
		s.log.Warn("corrupted cart loaded as empty", "session", sessionID, "error", err)
		return cart.New(), false, nil
	case err != nil:
		return nil, false, err
	}
	return cart.Restore(lines), true, nil
}

// mutate reads past the cache so a stale snapshot is never written back.
func (s *CartService) mutate(ctx context.Context, sessionID string, op func(*cart.Store)) (*cart.Store, error) {
	store, _, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	op(store)

	if err := s.repo.SaveCart(ctx, sessionID, store.Lines()); err != nil {
		s.log.Error("repo save cart failed", "session", sessionID, "error", err)
		return nil, err
	}

	invalidateCache(s, sessionID)
	return store, nil
}

func invalidateCache(s *CartService, sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		s.log.Warn("cart cache invalidate failed", "session", sessionID, "error", err)
	}
}
