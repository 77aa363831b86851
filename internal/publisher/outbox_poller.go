package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	OrderEventsTopic = "order-events"

	batchSize        = 100
	defaultRetention = 7 * 24 * time.Hour
)

type EventStore interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error
	PurgeProcessedEvents(ctx context.Context, before time.Time) (int64, error)
}

// EventWriter is satisfied by *kafka.Writer.
type EventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller publishes order events recorded in the outbox table. An event
// is marked processed only after the broker accepted it, so delivery is at
// least once.
type OutboxPoller struct {
	eventTick time.Duration
	purgeTick time.Duration
	retention time.Duration
	repo      EventStore
	writer    EventWriter
	log       *slog.Logger
	now       func() time.Time
}

func NewOutboxPoller(repo EventStore, log *slog.Logger, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  OrderEventsTopic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newOutboxPoller(repo, w, log)
}

func newOutboxPoller(repo EventStore, w EventWriter, log *slog.Logger) *OutboxPoller {
	return &OutboxPoller{
		eventTick: time.Second,
		purgeTick: time.Hour,
		retention: defaultRetention,
		repo:      repo,
		writer:    w,
		log:       log,
		now:       time.Now,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	purgeTicker := time.NewTicker(p.purgeTick)
	defer eventTicker.Stop()
	defer purgeTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-purgeTicker.C:
			p.purgeProcessedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, batchSize)
	if err != nil {
		p.log.Error("failed to fetch outbox events", "error", err)
		return
	}

	for _, event := range events {
		if err := p.publishToKafka(ctx, event); err != nil {
			p.log.Error("failed to publish outbox event", "event_id", event.ID, "type", event.EventType, "error", err)
			// keep per-aggregate order: later events wait for the next tick
			return
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.log.Error("failed to mark outbox event as processed", "event_id", event.ID, "error", err)
			continue
		}
	}
}

func (p *OutboxPoller) purgeProcessedEvents(ctx context.Context) {
	n, err := p.repo.PurgeProcessedEvents(ctx, p.now().Add(-p.retention))
	if err != nil {
		p.log.Error("failed to purge outbox events", "error", err)
		return
	}
	if n > 0 {
		p.log.Info("purged published outbox events", "count", n)
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *domain.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id for ordering
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.ID.String())},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
