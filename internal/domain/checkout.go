package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CheckoutStatus string

const (
	CheckoutStatusOpen      CheckoutStatus = "OPEN"
	CheckoutStatusCompleted CheckoutStatus = "COMPLETED"
	CheckoutStatusFailed    CheckoutStatus = "FAILED"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusCompleted || s == CheckoutStatusFailed
}

// CartSnapshotItem is one manifest line with the price captured at checkout.
type CartSnapshotItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CartSnapshot represents the full cart state at checkout time
type CartSnapshot struct {
	Items       []CartSnapshotItem `json:"items"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Currency    string             `json:"currency"`
	CapturedAt  time.Time          `json:"captured_at"`
}

type CheckoutSession struct {
	ID             uuid.UUID
	ExternalID     *string
	CartSessionID  string
	IdempotencyKey *string
	Snapshot       CartSnapshot
	RedirectURL    *string
	Status         CheckoutStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PaymentConfirmation is the out-of-band signal that a hosted checkout finished.
// Failed marks a session that ended without payment.
type PaymentConfirmation struct {
	CheckoutSessionID uuid.UUID `json:"checkout_session_id"`
	ExternalID        string    `json:"external_id"`
	Paid              bool      `json:"paid"`
	Failed            bool      `json:"failed,omitempty"`
	CustomerEmail     string    `json:"customer_email"`
	CustomerName      string    `json:"customer_name"`
}
