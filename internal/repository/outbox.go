package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
)

func insertOutboxEvent(ctx context.Context, q querier, e *domain.OutboxEvent) error {
	query := `INSERT INTO outbox_events (id, aggregate_id, event_type, payload, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	// payload goes as text: lib/pq would send []byte as bytea
	if _, err := q.ExecContext(ctx, query, e.ID, e.AggregateID, e.EventType, string(e.Payload), e.CreatedAt); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// GetUnprocessedEvents returns up to limit pending events, oldest first.
func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
	          FROM outbox_events
	          WHERE processed_at IS NULL
	          ORDER BY created_at
	          LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET processed_at = $1 WHERE id = $2 AND processed_at IS NULL`,
		r.now(), id)
	if err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}
	return affectedOne(res, fmt.Errorf("outbox event %s: %w", id, domain.ErrNotFound))
}

// PurgeProcessedEvents deletes events published before the cutoff.
func (r *Repository) PurgeProcessedEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM outbox_events WHERE processed_at IS NOT NULL AND processed_at < $1`,
		before.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge outbox events: %w", err)
	}
	return res.RowsAffected()
}
