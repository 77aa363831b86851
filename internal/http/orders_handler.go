package http

import (
	"context"
	"net/http"
	"time"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
)

type OrdersAPI interface {
	List(ctx context.Context, session *access.Session, filter domain.OrderFilter) (domain.Page[domain.Order], error)
	Get(ctx context.Context, session *access.Session, id uuid.UUID) (*domain.Order, error)
	Transition(ctx context.Context, session *access.Session, id uuid.UUID, change domain.StatusChange) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrdersAPI
	timeout time.Duration
}

func NewOrdersHandler(orders OrdersAPI, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type UpdateOrderRequestDTO struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

// GET /api/admin/orders?status=&search=&page=&limit=
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	filter := domain.OrderFilter{
		Search:      r.URL.Query().Get("search"),
		PageRequest: pageQuery(r),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := domain.ParseOrderStatus(raw)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		filter.Status = status
	}

	page, err := h.orders.List(ctx, access.SessionFrom(r.Context()), filter)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GET /api/admin/orders/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orders.Get(ctx, access.SessionFrom(r.Context()), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// PATCH /api/admin/orders/{id}
func (h *OrdersHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req UpdateOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	change := domain.StatusChange{Notes: req.Notes}
	if req.Status != nil {
		status, err := domain.ParseOrderStatus(*req.Status)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		change.Status = &status
	}

	order, err := h.orders.Transition(ctx, access.SessionFrom(r.Context()), id, change)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
