package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/AlxM1/aelo/internal/cache"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/AlxM1/aelo/internal/repository"
)

// query cache keys; admin writes drop everything under the matching prefix
const (
	keyProducts = "products:"
	keyFAQs     = "faqs:"
	keySettings = "settings:"
	keyNav      = "nav:"
)

// CatalogService serves the storefront's read queries. Results are cached for
// the query cache's TTL and dropped when an admin write touches the same data.
type CatalogService struct {
	products ProductStore
	faqs     FAQStore
	nav      NavStore
	settings *SettingsService
	cache    cache.QueryCache
	log      *slog.Logger
}

func NewCatalogService(products ProductStore, faqs FAQStore, nav NavStore, settings *SettingsService, qc cache.QueryCache, log *slog.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		faqs:     faqs,
		nav:      nav,
		settings: settings,
		cache:    qc,
		log:      log,
	}
}

// Products lists active products by sort order.
func (s *CatalogService) Products(ctx context.Context) ([]domain.Product, error) {
	return cachedRead(ctx, s.cache, s.log, keyProducts+"active", s.products.ListActiveProducts)
}

// ProductBySlug hides inactive products.
func (s *CatalogService) ProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return cachedRead(ctx, s.cache, s.log, keyProducts+"slug:"+slug, func(ctx context.Context) (*domain.Product, error) {
		p, err := s.products.GetProductBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if !p.IsActive {
			return nil, repository.ErrProductNotFound
		}
		return p, nil
	})
}

func (s *CatalogService) FAQs(ctx context.Context) ([]domain.FAQ, error) {
	return cachedRead(ctx, s.cache, s.log, keyFAQs+"published", func(ctx context.Context) ([]domain.FAQ, error) {
		return s.faqs.ListFAQs(ctx, true)
	})
}

func (s *CatalogService) Settings(ctx context.Context) (*domain.SiteSettings, error) {
	return cachedRead(ctx, s.cache, s.log, keySettings+"default", s.settings.Get)
}

// Navigation returns the visible top-level items of a location with their
// visible children.
func (s *CatalogService) Navigation(ctx context.Context, location domain.NavLocation) ([]domain.NavItem, error) {
	if location == "" {
		location = domain.NavHeader
	}
	if !location.Valid() {
		return nil, domain.Invalid("location", "must be header or footer")
	}
	return cachedRead(ctx, s.cache, s.log, keyNav+string(location), func(ctx context.Context) ([]domain.NavItem, error) {
		items, err := s.nav.ListNavItems(ctx, location, true)
		if err != nil {
			return nil, err
		}
		return buildNavTree(items), nil
	})
}

// cachedRead serves key from qc and falls back to load. A failing cache is
// logged and bypassed.
func cachedRead[T any](ctx context.Context, qc cache.QueryCache, log *slog.Logger, key string, load func(context.Context) (T, error)) (T, error) {
	var out T
	if qc != nil {
		hit, err := qc.Load(ctx, key, &out)
		if err != nil {
			log.Warn("query cache load failed", "key", key, "error", err)
		}
		if hit {
			return out, nil
		}
	}

	out, err := load(ctx)
	if err != nil {
		return out, err
	}
	if qc != nil {
		if err := qc.Store(ctx, key, out); err != nil {
			log.Warn("query cache store failed", "key", key, "error", err)
		}
	}
	return out, nil
}

func invalidateQueries(ctx context.Context, qc cache.QueryCache, log *slog.Logger, prefixes ...string) {
	if qc == nil {
		return
	}
	for _, prefix := range prefixes {
		if err := qc.Invalidate(ctx, prefix); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("query cache invalidate failed", "prefix", prefix, "error", err)
		}
	}
}
