package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/AlxM1/aelo/internal/domain"
	"github.com/AlxM1/aelo/internal/payment"
	"github.com/AlxM1/aelo/internal/service"
	"github.com/google/uuid"
)

const maxWebhookBody = 64 << 10

type CheckoutAPI interface {
	InitiateCheckout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
	CompleteRedirect(ctx context.Context, cartSessionID string, checkoutSessionID uuid.UUID) (bool, error)
}

type ConfirmationHandler interface {
	HandleConfirmation(ctx context.Context, conf domain.PaymentConfirmation) (*domain.Order, error)
}

type CheckoutHandler struct {
	checkouts CheckoutAPI
	carts     CartAPI
	timeout   time.Duration
}

func NewCheckoutHandler(checkouts CheckoutAPI, carts CartAPI, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkouts: checkouts,
		carts:     carts,
		timeout:   timeout,
	}
}

type CheckoutResponseDTO struct {
	CheckoutID string `json:"checkout_id"`
	URL        string `json:"url"`
}

type CheckoutReturnDTO struct {
	Status      string `json:"status"`
	CheckoutID  string `json:"checkout_id,omitempty"`
	CartCleared bool   `json:"cart_cleared"`
}

// POST /api/checkout
func (h *CheckoutHandler) InitiateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := cartSessionID(w, r)
	store, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp, err := h.checkouts.InitiateCheckout(ctx, service.CheckoutRequest{
		CartSessionID:  sessionID,
		Lines:          store.Lines(),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		CheckoutID: resp.CheckoutSessionID.String(),
		URL:        resp.URL,
	})
}

// GET /checkout/success?session_id=
func (h *CheckoutHandler) Success(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checkoutID, err := uuid.Parse(r.URL.Query().Get("session_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "session_id must be a UUID")
		return
	}

	cleared, err := h.checkouts.CompleteRedirect(ctx, cartSessionID(w, r), checkoutID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, CheckoutReturnDTO{
		Status:      "success",
		CheckoutID:  checkoutID.String(),
		CartCleared: cleared,
	})
}

// GET /checkout/cancel leaves the cart as it was.
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, CheckoutReturnDTO{Status: "cancelled"})
}

// WebhookHandler receives signed payment events from the checkout provider.
type WebhookHandler struct {
	orders    ConfirmationHandler
	secret    string
	tolerance time.Duration
	timeout   time.Duration
	log       *slog.Logger
	now       func() time.Time
}

func NewWebhookHandler(orders ConfirmationHandler, secret string, timeout time.Duration, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		orders:    orders,
		secret:    secret,
		tolerance: payment.DefaultTolerance,
		timeout:   timeout,
		log:       log,
		now:       time.Now,
	}
}

// POST /api/webhooks/checkout
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "unreadable body")
		return
	}

	if err := payment.VerifySignature(payload, r.Header.Get(payment.SignatureHeader), h.secret, h.now(), h.tolerance); err != nil {
		h.log.Warn("rejected webhook", "request_id", getRequestID(r.Context()), "error", err)
		respondError(w, http.StatusBadRequest, "invalid_signature", "invalid signature")
		return
	}

	conf, err := payment.ParseEvent(payload)
	if errors.Is(err, payment.ErrUnhandledEvent) {
		// acknowledged so the provider stops redelivering
		respondJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "malformed event",
			Code:    "invalid_event",
			Details: err.Error(),
		})
		return
	}

	order, err := h.orders.HandleConfirmation(ctx, *conf)
	if err != nil {
		h.log.Error("failed to apply payment event",
			"checkout_id", conf.CheckoutSessionID,
			"external_id", conf.ExternalID,
			"error", err)
		respondDomainError(w, err)
		return
	}
	if order != nil {
		h.log.Info("order confirmed", "order_id", order.ID, "order_number", order.OrderNumber, "status", order.Status)
	}
	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
