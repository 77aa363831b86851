package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/AlxM1/aelo/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultOrderPageSize = 20
	orderNumberAttempts  = 3
)

// CheckoutReader resolves the checkout session a payment confirmation refers to.
type CheckoutReader interface {
	GetCheckoutSession(ctx context.Context, id uuid.UUID) (*domain.CheckoutSession, error)
	GetCheckoutSessionByExternalID(ctx context.Context, externalID string) (*domain.CheckoutSession, error)
	UpdateCheckoutStatus(ctx context.Context, id uuid.UUID, status domain.CheckoutStatus) error
}

type OrderService struct {
	orders    OrderStore
	checkouts CheckoutReader
	log       *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewOrderService(orders OrderStore, checkouts CheckoutReader, log *slog.Logger) *OrderService {
	return &OrderService{
		orders:    orders,
		checkouts: checkouts,
		log:       log,
		tracer:    otel.Tracer("github.com/AlxM1/aelo/internal/service"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// HandleConfirmation applies a payment outcome. A failed payment closes the
// checkout session and yields no order.
func (s *OrderService) HandleConfirmation(ctx context.Context, conf domain.PaymentConfirmation) (*domain.Order, error) {
	if conf.Failed {
		return nil, s.RecordPaymentFailure(ctx, conf)
	}
	return s.CreateFromPayment(ctx, conf)
}

// CreateFromPayment builds the order from the checkout session's price
// snapshot. Repeated confirmations of one checkout session return the same
// order, promoting it from PENDING to PAID when the payment has since cleared.
func (s *OrderService) CreateFromPayment(ctx context.Context, conf domain.PaymentConfirmation) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateFromPayment")
	defer span.End()

	cs, err := s.resolveCheckout(ctx, conf)
	if err != nil {
		return nil, traceErr(span, err)
	}
	span.SetAttributes(attribute.String("checkout.id", cs.ID.String()), attribute.Bool("payment.paid", conf.Paid))

	existing, err := s.orders.GetOrderByCheckoutSession(ctx, cs.ID)
	if err == nil {
		return s.settle(ctx, existing, conf)
	}
	if !errors.Is(err, repository.ErrOrderNotFound) {
		return nil, traceErr(span, err)
	}

	o := s.orderFromSnapshot(cs, conf)
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		o.OrderNumber = domain.NewOrderNumber(o.CreatedAt)
		err = s.orders.CreateOrder(ctx, o)
		if !errors.Is(err, repository.ErrOrderNumberTaken) {
			break
		}
	}
	if errors.Is(err, repository.ErrDuplicateCheckout) {
		// another delivery of the same confirmation won the insert
		existing, getErr := s.orders.GetOrderByCheckoutSession(ctx, cs.ID)
		if getErr != nil {
			return nil, traceErr(span, getErr)
		}
		return s.settle(ctx, existing, conf)
	}
	if err != nil {
		return nil, traceErr(span, fmt.Errorf("failed to create order: %w", err))
	}

	span.SetAttributes(attribute.String("order.number", o.OrderNumber))
	s.log.InfoContext(ctx, "order created",
		"order_id", o.ID,
		"order_number", o.OrderNumber,
		"status", o.Status,
		"total", o.Total.StringFixed(2))
	return o, nil
}

// RecordPaymentFailure marks an open checkout session as failed. Sessions
// that already produced an order are left untouched.
func (s *OrderService) RecordPaymentFailure(ctx context.Context, conf domain.PaymentConfirmation) error {
	cs, err := s.resolveCheckout(ctx, conf)
	if err != nil {
		return err
	}
	if cs.Status != domain.CheckoutStatusOpen {
		return nil
	}
	if err := s.checkouts.UpdateCheckoutStatus(ctx, cs.ID, domain.CheckoutStatusFailed); err != nil {
		return fmt.Errorf("failed to record payment failure: %w", err)
	}
	s.log.InfoContext(ctx, "checkout payment failed", "checkout_id", cs.ID)
	return nil
}

// Transition moves an order to a new status or, when change.Status is nil,
// only replaces its notes. Steps off the regular transition graph are manual
// overrides and need manage_settings on top of update.
func (s *OrderService) Transition(ctx context.Context, session *access.Session, id uuid.UUID, change domain.StatusChange) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Transition", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	if err := access.RequirePermission(session, access.PermUpdate); err != nil {
		return nil, traceErr(span, err)
	}
	actor := uuid.NullUUID{UUID: session.UserID, Valid: true}

	if change.Status == nil {
		if change.Notes == nil {
			return nil, traceErr(span, domain.Invalid("status", "status or notes required"))
		}
		o, err := s.orders.AnnotateOrder(ctx, id, change.Notes, actor)
		return o, traceErr(span, err)
	}

	target, err := domain.ParseOrderStatus(string(*change.Status))
	if err != nil {
		return nil, traceErr(span, err)
	}

	current, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, traceErr(span, err)
	}

	override := !current.Status.CanTransitionTo(target)
	if override {
		if err := access.RequirePermission(session, access.PermManageSettings); err != nil {
			return nil, traceErr(span, fmt.Errorf("%w: %s to %s is a manual override", err, current.Status, target))
		}
	}

	updated, err := s.orders.TransitionOrder(ctx, repository.OrderUpdate{
		ID:          id,
		Expected:    current.Status,
		Status:      target,
		Notes:       change.Notes,
		ProcessedBy: actor,
	})
	if err != nil {
		return nil, traceErr(span, err)
	}

	span.SetAttributes(attribute.String("order.status", target.String()), attribute.Bool("order.override", override))
	s.log.InfoContext(ctx, "order status changed",
		"order_id", id,
		"from", current.Status,
		"to", target,
		"override", override,
		"by", session.UserID)
	return updated, nil
}

func (s *OrderService) List(ctx context.Context, session *access.Session, filter domain.OrderFilter) (domain.Page[domain.Order], error) {
	if err := access.RequirePermission(session, access.PermRead); err != nil {
		return domain.Page[domain.Order]{}, err
	}
	if filter.Status != "" {
		if _, err := domain.ParseOrderStatus(string(filter.Status)); err != nil {
			return domain.Page[domain.Order]{}, err
		}
	}
	filter.PageRequest = filter.PageRequest.Normalize(defaultOrderPageSize)

	orders, total, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return domain.Page[domain.Order]{}, err
	}
	return domain.NewPage(orders, total, filter.Page, filter.Limit), nil
}

func (s *OrderService) Get(ctx context.Context, session *access.Session, id uuid.UUID) (*domain.Order, error) {
	if err := access.RequirePermission(session, access.PermRead); err != nil {
		return nil, err
	}
	return s.orders.GetOrder(ctx, id)
}

func (s *OrderService) resolveCheckout(ctx context.Context, conf domain.PaymentConfirmation) (*domain.CheckoutSession, error) {
	if conf.CheckoutSessionID != uuid.Nil {
		return s.checkouts.GetCheckoutSession(ctx, conf.CheckoutSessionID)
	}
	if conf.ExternalID != "" {
		return s.checkouts.GetCheckoutSessionByExternalID(ctx, conf.ExternalID)
	}
	return nil, domain.Invalid("checkout_session_id", "confirmation does not name a checkout session")
}

// settle promotes an existing PENDING order once its payment clears.
func (s *OrderService) settle(ctx context.Context, o *domain.Order, conf domain.PaymentConfirmation) (*domain.Order, error) {
	if !conf.Paid || o.Status != domain.OrderStatusPending {
		return o, nil
	}
	paid, err := s.orders.TransitionOrder(ctx, repository.OrderUpdate{
		ID:       o.ID,
		Expected: domain.OrderStatusPending,
		Status:   domain.OrderStatusPaid,
	})
	if errors.Is(err, repository.ErrStatusChanged) {
		return s.orders.GetOrder(ctx, o.ID)
	}
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "pending order paid", "order_id", o.ID, "order_number", o.OrderNumber)
	return paid, nil
}

func (s *OrderService) orderFromSnapshot(cs *domain.CheckoutSession, conf domain.PaymentConfirmation) *domain.Order {
	now := s.now()
	o := &domain.Order{
		ID:                uuid.New(),
		CheckoutSessionID: uuid.NullUUID{UUID: cs.ID, Valid: true},
		CustomerEmail:     conf.CustomerEmail,
		CustomerName:      conf.CustomerName,
		Status:            domain.OrderStatusPending,
		Currency:          cs.Snapshot.Currency,
		Items:             make([]domain.OrderItem, 0, len(cs.Snapshot.Items)),
		CreatedAt:         now,
	}
	if conf.Paid {
		o.Status = domain.OrderStatusPaid
		o.PaidAt = &now
	}
	for _, item := range cs.Snapshot.Items {
		o.Items = append(o.Items, domain.OrderItem{
			ID:          uuid.New(),
			OrderID:     o.ID,
			ProductID:   uuid.NullUUID{UUID: item.ProductID, Valid: item.ProductID != uuid.Nil},
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	o.Total = o.ItemsTotal()
	return o
}

func traceErr(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
