package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AlxM1/aelo/internal/domain"
	"github.com/AlxM1/aelo/pkg/logger"
	"github.com/google/uuid"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type MockRepository struct {
	m            sync.Mutex
	OutboxEvents []*domain.OutboxEvent
	GetErr       error
	MarkErr      error
	PurgeErr     error
	Processed    []uuid.UUID
	PurgedBefore time.Time
}

func (m *MockRepository) GetUnprocessedEvents(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	events := append([]*domain.OutboxEvent(nil), m.OutboxEvents...)
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (m *MockRepository) MarkEventAsProcessed(_ context.Context, id uuid.UUID) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	m.Processed = append(m.Processed, id)
	var remaining []*domain.OutboxEvent
	for _, e := range m.OutboxEvents {
		if e.ID != id {
			remaining = append(remaining, e)
		}
	}
	m.OutboxEvents = remaining
	return nil
}

func (m *MockRepository) PurgeProcessedEvents(_ context.Context, before time.Time) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.PurgedBefore = before
	return 3, m.PurgeErr
}

func (m *MockRepository) processed() []uuid.UUID {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]uuid.UUID(nil), m.Processed...)
}

type MockWriter struct {
	m        sync.Mutex
	Messages []kafkaGo.Message
	FailOn   int // 1-based message number that fails; 0 never fails
	calls    int
}

func (w *MockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	for _, msg := range msgs {
		w.calls++
		if w.calls == w.FailOn {
			return errors.New("broker unavailable")
		}
		w.Messages = append(w.Messages, msg)
	}
	return nil
}

func (w *MockWriter) Close() error { return nil }

func orderEvent(t *testing.T, orderID uuid.UUID, eventType string, status domain.OrderStatus) *domain.OutboxEvent {
	t.Helper()
	e, err := domain.NewOutboxEvent(orderID.String(), eventType, domain.OrderEvent{
		OrderID:     orderID,
		OrderNumber: "AELO-20260115-3FA9C1",
		Status:      status,
		Total:       "74.97",
		Currency:    "cad",
		OccurredAt:  time.Now().UTC(),
	}, time.Now().UTC())
	require.NoError(t, err)
	return e
}

func TestProcessUnpublishedEvents(t *testing.T) {
	orderID := uuid.New()
	created := orderEvent(t, orderID, domain.EventOrderCreated, domain.OrderStatusPaid)
	changed := orderEvent(t, orderID, domain.EventOrderStatusChanged, domain.OrderStatusProcessing)
	repo := &MockRepository{OutboxEvents: []*domain.OutboxEvent{created, changed}}
	writer := &MockWriter{}

	p := newOutboxPoller(repo, writer, logger.Nop())
	p.processUnpublishedEvents(context.Background())

	require.Len(t, writer.Messages, 2)
	assert.Equal(t, orderID.String(), string(writer.Messages[0].Key))
	assert.Equal(t, "event_type", writer.Messages[0].Headers[0].Key)
	assert.Equal(t, domain.EventOrderCreated, string(writer.Messages[0].Headers[0].Value))
	assert.Equal(t, domain.EventOrderStatusChanged, string(writer.Messages[1].Headers[0].Value))
	assert.Equal(t, []uuid.UUID{created.ID, changed.ID}, repo.processed())
}

func TestProcessUnpublishedEvents_StopsAtFirstFailure(t *testing.T) {
	orderID := uuid.New()
	first := orderEvent(t, orderID, domain.EventOrderCreated, domain.OrderStatusPaid)
	second := orderEvent(t, orderID, domain.EventOrderStatusChanged, domain.OrderStatusProcessing)
	repo := &MockRepository{OutboxEvents: []*domain.OutboxEvent{first, second}}
	writer := &MockWriter{FailOn: 1}

	p := newOutboxPoller(repo, writer, logger.Nop())
	p.processUnpublishedEvents(context.Background())

	assert.Empty(t, writer.Messages)
	assert.Empty(t, repo.processed())

	// the next tick retries from the same event
	p.processUnpublishedEvents(context.Background())
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, repo.processed())
}

func TestProcessUnpublishedEvents_FetchError(t *testing.T) {
	repo := &MockRepository{GetErr: errors.New("database connection error")}
	writer := &MockWriter{}

	p := newOutboxPoller(repo, writer, logger.Nop())
	p.processUnpublishedEvents(context.Background())

	assert.Empty(t, writer.Messages)
}

func TestProcessUnpublishedEvents_MarkErrorContinues(t *testing.T) {
	repo := &MockRepository{
		OutboxEvents: []*domain.OutboxEvent{
			orderEvent(t, uuid.New(), domain.EventOrderCreated, domain.OrderStatusPaid),
			orderEvent(t, uuid.New(), domain.EventOrderCreated, domain.OrderStatusPending),
		},
		MarkErr: errors.New("database deadlock"),
	}
	writer := &MockWriter{}

	p := newOutboxPoller(repo, writer, logger.Nop())
	p.processUnpublishedEvents(context.Background())

	assert.Len(t, writer.Messages, 2)
	assert.Empty(t, repo.processed())
}

func TestPurgeProcessedEvents(t *testing.T) {
	repo := &MockRepository{}
	p := newOutboxPoller(repo, &MockWriter{}, logger.Nop())
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	p.purgeProcessedEvents(context.Background())
	assert.Equal(t, now.Add(-defaultRetention), repo.PurgedBefore)

	repo.PurgeErr = errors.New("disk full")
	p.purgeProcessedEvents(context.Background())
}

func TestOutboxPoller_RunStopsOnCancel(t *testing.T) {
	repo := &MockRepository{OutboxEvents: []*domain.OutboxEvent{orderEvent(t, uuid.New(), domain.EventOrderCreated, domain.OrderStatusPaid)}}
	writer := &MockWriter{}
	p := newOutboxPoller(repo, writer, logger.Nop())
	p.eventTick = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(repo.processed()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestOutboxPoller_PublishesEventsToKafka(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}

	brokerAddr, cleanup := setupKafka(t)
	defer cleanup()

	createTopic(t, brokerAddr, OrderEventsTopic)

	orderID := uuid.New()
	event := orderEvent(t, orderID, domain.EventOrderCreated, domain.OrderStatusPaid)
	repo := &MockRepository{OutboxEvents: []*domain.OutboxEvent{event}}

	poller := NewOutboxPoller(repo, logger.Nop(), brokerAddr)
	defer poller.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	go poller.Run(ctx)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{brokerAddr},
		Topic:    OrderEventsTopic,
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, orderID.String(), string(msg.Key))

	var payload domain.OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, orderID, payload.OrderID)
	assert.Equal(t, domain.OrderStatusPaid, payload.Status)

	assert.Eventually(t, func() bool { return len(repo.processed()) == 1 }, 5*time.Second, 100*time.Millisecond)
}
