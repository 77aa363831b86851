package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OutboxEvent is written in the same transaction as the change it describes
// and published later by the outbox poller.
type OutboxEvent struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func NewOutboxEvent(aggregateID, eventType string, payload any, at time.Time) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &OutboxEvent{
		ID:          uuid.New(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     data,
		CreatedAt:   at,
	}, nil
}

type OrderEvent struct {
	OrderID     uuid.UUID   `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	Status      OrderStatus `json:"status"`
	Previous    OrderStatus `json:"previous_status,omitempty"`
	Total       string      `json:"total"`
	Currency    string      `json:"currency"`
	ProcessedBy *uuid.UUID  `json:"processed_by,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

type DashboardStats struct {
	Products       int                `json:"products"`
	ActiveProducts int                `json:"active_products"`
	Orders         int                `json:"orders"`
	OrdersByStatus []OrderStatusCount `json:"orders_by_status"`
	FAQs           int                `json:"faqs"`
	Media          int                `json:"media"`
}
