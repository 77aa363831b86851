package http

import (
	"context"
	"net/http"
	"time"

	"github.com/AlxM1/aelo/internal/cart"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartAPI interface {
	GetCart(ctx context.Context, sessionID string) (*cart.Store, error)
	AddItem(ctx context.Context, sessionID string, productID uuid.UUID) (*cart.Store, error)
	UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*cart.Store, error)
	RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (*cart.Store, error)
	ClearCart(ctx context.Context, sessionID string) error
}

type CartHandler struct {
	carts   CartAPI
	timeout time.Duration
}

func NewCartHandler(carts CartAPI, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID uuid.UUID `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Items      []cart.Line     `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func cartResponse(s *cart.Store) CartResponseDTO {
	lines := s.Lines()
	if lines == nil {
		lines = []cart.Line{}
	}
	return CartResponseDTO{
		Items:      lines,
		TotalItems: s.TotalItems(),
		TotalPrice: s.TotalPrice(),
	}
}

// GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, err := h.carts.GetCart(ctx, cartSessionID(w, r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(store))
}

// POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	store, err := h.carts.AddItem(ctx, cartSessionID(w, r), req.ProductID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, cartResponse(store))
}

// PUT /api/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := uuidParam(w, r, "product_id")
	if !ok {
		return
	}
	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	// quantity <= 0 removes the line
	store, err := h.carts.UpdateQuantity(ctx, cartSessionID(w, r), productID, req.Quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(store))
}

// DELETE /api/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := uuidParam(w, r, "product_id")
	if !ok {
		return
	}

	store, err := h.carts.RemoveItem(ctx, cartSessionID(w, r), productID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(store))
}

// DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.ClearCart(ctx, cartSessionID(w, r)); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
