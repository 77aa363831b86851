package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// happy path successor of each non-terminal status
var nextStatus = map[OrderStatus]OrderStatus{
	OrderStatusPending:    OrderStatusPaid,
	OrderStatusPaid:       OrderStatusProcessing,
	OrderStatusProcessing: OrderStatusShipped,
	OrderStatusShipped:    OrderStatusDelivered,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range OrderStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", Invalid("status", fmt.Sprintf("unknown order status %q", s))
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusRefunded
}

// CanTransitionTo reports whether next is reachable from s on the regular
// transition graph. Re-entering the current status is always allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled || next == OrderStatusRefunded {
		return true
	}
	return nextStatus[s] == next
}

func (s OrderStatus) String() string {
	return string(s)
}

type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   uuid.NullUUID   `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type Order struct {
	ID                uuid.UUID       `json:"id"`
	OrderNumber       string          `json:"order_number"`
	CheckoutSessionID uuid.NullUUID   `json:"checkout_session_id"`
	CustomerEmail     string          `json:"customer_email"`
	CustomerName      string          `json:"customer_name"`
	Status            OrderStatus     `json:"status"`
	Total             decimal.Decimal `json:"total"`
	Currency          string          `json:"currency"`
	Items             []OrderItem     `json:"items"`
	Notes             *string         `json:"notes"`
	ProcessedByID     uuid.NullUUID   `json:"processed_by_id"`
	PaidAt            *time.Time      `json:"paid_at"`
	ShippedAt         *time.Time      `json:"shipped_at"`
	DeliveredAt       *time.Time      `json:"delivered_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ItemsTotal sums the item subtotals. It is only used when the order is built;
// a stored order keeps the total it was created with.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}

// NewOrderNumber returns a human readable order number like AELO-20260115-3FA9C1.
func NewOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("AELO-%s-%s", t.UTC().Format("20060102"), suffix)
}

type OrderFilter struct {
	Status OrderStatus
	Search string
	PageRequest
}

// StatusChange is a requested transition. A nil Status only annotates notes.
type StatusChange struct {
	Status *OrderStatus
	Notes  *string
}

type OrderStatusCount struct {
	Status OrderStatus `json:"status"`
	Count  int         `json:"count"`
}
