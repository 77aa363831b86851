package http

import (
	"context"
	"net/http"
	"time"

	"github.com/AlxM1/aelo/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CatalogAPI interface {
	Products(ctx context.Context) ([]domain.Product, error)
	ProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	FAQs(ctx context.Context) ([]domain.FAQ, error)
	Settings(ctx context.Context) (*domain.SiteSettings, error)
	Navigation(ctx context.Context, location domain.NavLocation) ([]domain.NavItem, error)
}

// StorefrontHandler serves the public read-only catalog.
type StorefrontHandler struct {
	catalog CatalogAPI
	timeout time.Duration
}

func NewStorefrontHandler(catalog CatalogAPI, timeout time.Duration) *StorefrontHandler {
	return &StorefrontHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

// GET /api/products
func (h *StorefrontHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.Products(ctx)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// GET /api/products/{slug}
func (h *StorefrontHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.ProductBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// GET /api/faqs
func (h *StorefrontHandler) ListFAQs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	faqs, err := h.catalog.FAQs(ctx)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, faqs)
}

// GET /api/settings
func (h *StorefrontHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	settings, err := h.catalog.Settings(ctx)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// GET /api/nav?location=header|footer
func (h *StorefrontHandler) GetNavigation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	location := domain.NavLocation(r.URL.Query().Get("location"))
	if location == "" {
		location = domain.NavHeader
	}
	if !location.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_location", "location must be header or footer")
		return
	}

	items, err := h.catalog.Navigation(ctx, location)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}
