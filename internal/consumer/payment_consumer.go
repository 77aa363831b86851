package consumer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/AlxM1/aelo/internal/domain"
	"github.com/AlxM1/aelo/internal/payment"
	"github.com/segmentio/kafka-go"
)

const (
	PaymentEventsTopic = "payment-events"
	groupID            = "aelo-orders"
)

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type ConfirmationHandler interface {
	HandleConfirmation(ctx context.Context, conf domain.PaymentConfirmation) (*domain.Order, error)
}

// Consumer creates orders from payment events relayed onto Kafka. The
// messages carry the same event envelope as the checkout webhook, so an
// event delivered both ways still yields a single order.
type Consumer struct {
	handler ConfirmationHandler
	reader  MessageReader
	log     *slog.Logger
}

func NewConsumer(handler ConfirmationHandler, log *slog.Logger, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    PaymentEventsTopic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{handler: handler, reader: reader, log: log}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error("error closing kafka reader", "error", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		c.log.Error("error reading message", "error", err)
		return
	}

	conf, err := payment.ParseEvent(m.Value)
	if errors.Is(err, payment.ErrUnhandledEvent) {
		c.log.Debug("ignoring payment event", "offset", m.Offset, "reason", err)
		return
	}
	if err != nil {
		c.log.Error("error parsing payment event", "offset", m.Offset, "error", err)
		return
	}

	order, err := c.handler.HandleConfirmation(ctx, *conf)
	if err != nil {
		c.log.Error("failed to apply payment event",
			"checkout_id", conf.CheckoutSessionID,
			"external_id", conf.ExternalID,
			"error", err)
		return
	}
	if order == nil {
		c.log.Info("payment failed for checkout", "checkout_id", conf.CheckoutSessionID)
		return
	}
	c.log.Info("order confirmed from payment event",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"checkout_id", conf.CheckoutSessionID)
}
