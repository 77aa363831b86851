package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
)

const orderColumns = `id, order_number, checkout_session_id, customer_email, customer_name, status, total,
	currency, notes, processed_by_id, paid_at, shipped_at, delivered_at, created_at, updated_at`

const orderItemColumns = `id, order_id, product_id, product_name, quantity, unit_price, subtotal`

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o                         domain.Order
		notes                     sql.NullString
		paidAt, shippedAt, doneAt sql.NullTime
	)
	if err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CheckoutSessionID,
		&o.CustomerEmail,
		&o.CustomerName,
		&o.Status,
		&o.Total,
		&o.Currency,
		&notes,
		&o.ProcessedByID,
		&paidAt,
		&shippedAt,
		&doneAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.Notes = stringPtr(notes)
	o.PaidAt = timePtr(paidAt)
	o.ShippedAt = timePtr(shippedAt)
	o.DeliveredAt = timePtr(doneAt)
	o.Items = []domain.OrderItem{}
	return &o, nil
}

// CreateOrder stores a paid checkout as an order. The order, its items, the
// completion of the checkout session and the order.created outbox event are
// committed together.
func (r *Repository) CreateOrder(ctx context.Context, o *domain.Order) error {
	now := r.now()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO orders (` + orderColumns + `)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

		_, err := tx.ExecContext(ctx, query,
			o.ID,
			o.OrderNumber,
			o.CheckoutSessionID,
			o.CustomerEmail,
			o.CustomerName,
			string(o.Status),
			o.Total,
			o.Currency,
			nullString(o.Notes),
			o.ProcessedByID,
			nullTime(o.PaidAt),
			nullTime(o.ShippedAt),
			nullTime(o.DeliveredAt),
			o.CreatedAt,
			o.UpdatedAt)
		if err != nil {
			switch {
			case isUniqueViolation(err, "checkout_session_id"):
				return ErrDuplicateCheckout
			case isUniqueViolation(err, "order_number"):
				return ErrOrderNumberTaken
			}
			return fmt.Errorf("insert order: %w", err)
		}

		for i := range o.Items {
			item := &o.Items[i]
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.OrderID = o.ID
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO order_items (`+orderItemColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				item.ID,
				item.OrderID,
				item.ProductID,
				item.ProductName,
				item.Quantity,
				item.UnitPrice,
				item.Subtotal); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		if o.CheckoutSessionID.Valid {
			if _, err := tx.ExecContext(ctx,
				`UPDATE checkout_sessions SET status = $1, updated_at = $2 WHERE id = $3`,
				string(domain.CheckoutStatusCompleted), now, o.CheckoutSessionID.UUID); err != nil {
				return fmt.Errorf("complete checkout session: %w", err)
			}
		}

		event, err := newOrderOutboxEvent(domain.EventOrderCreated, o, "", now)
		if err != nil {
			return err
		}
		return insertOutboxEvent(ctx, tx, event)
	})
}

func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	if err := r.loadItems(ctx, r.db, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) GetOrderByCheckoutSession(ctx context.Context, checkoutSessionID uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE checkout_session_id = $1`
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, checkoutSessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by checkout session: %w", err)
	}
	if err := r.loadItems(ctx, r.db, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrders returns a page of orders, newest first, with their items.
func (r *Repository) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, likePattern(s))
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(LOWER(order_number) LIKE $%d OR LOWER(customer_email) LIKE $%d OR LOWER(customer_name) LIKE $%d)", n, n, n))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC, order_number LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var ptrs []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		ptrs = append(ptrs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	if err := r.loadItems(ctx, r.db, ptrs); err != nil {
		return nil, 0, err
	}

	orders := make([]domain.Order, 0, len(ptrs))
	for _, o := range ptrs {
		orders = append(orders, *o)
	}
	return orders, total, nil
}

func (r *Repository) loadItems(ctx context.Context, q querier, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	placeholders := make([]string, 0, len(orders))
	args := make([]any, 0, len(orders))
	for i, o := range orders {
		byID[o.ID] = o
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, o.ID)
	}

	query := `SELECT ` + orderItemColumns + ` FROM order_items
	          WHERE order_id IN (` + strings.Join(placeholders, ", ") + `)
	          ORDER BY product_name`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitPrice,
			&item.Subtotal,
		); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

// OrderUpdate moves an order from Expected to Status. The update only applies
// while the stored status still equals Expected.
type OrderUpdate struct {
	ID          uuid.UUID
	Expected    domain.OrderStatus
	Status      domain.OrderStatus
	Notes       *string
	ProcessedBy uuid.NullUUID
}

// TransitionOrder applies upd as a single compare-and-set and records an
// order.status_changed outbox event in the same transaction. Milestone
// timestamps are set the first time the order reaches the matching status.
func (r *Repository) TransitionOrder(ctx context.Context, upd OrderUpdate) (*domain.Order, error) {
	now := r.now()

	var paidAt, shippedAt, deliveredAt sql.NullTime
	switch upd.Status {
	case domain.OrderStatusPaid:
		paidAt = sql.NullTime{Time: now, Valid: true}
	case domain.OrderStatusShipped:
		shippedAt = sql.NullTime{Time: now, Valid: true}
	case domain.OrderStatusDelivered:
		deliveredAt = sql.NullTime{Time: now, Valid: true}
	}

	var updated *domain.Order
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		query := `UPDATE orders SET
		              status = $1,
		              notes = COALESCE($2, notes),
		              processed_by_id = COALESCE($3, processed_by_id),
		              paid_at = COALESCE(paid_at, $4),
		              shipped_at = COALESCE(shipped_at, $5),
		              delivered_at = COALESCE(delivered_at, $6),
		              updated_at = $7
		          WHERE id = $8 AND status = $9`

		res, err := tx.ExecContext(ctx, query,
			string(upd.Status),
			nullString(upd.Notes),
			upd.ProcessedBy,
			paidAt,
			shippedAt,
			deliveredAt,
			now,
			upd.ID,
			string(upd.Expected))
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return orderMissOrConflict(ctx, tx, upd.ID)
		}

		updated, err = scanOrder(tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, upd.ID))
		if err != nil {
			return fmt.Errorf("reload order: %w", err)
		}
		if err := r.loadItems(ctx, tx, []*domain.Order{updated}); err != nil {
			return err
		}

		event, err := newOrderOutboxEvent(domain.EventOrderStatusChanged, updated, upd.Expected, now)
		if err != nil {
			return err
		}
		return insertOutboxEvent(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AnnotateOrder replaces the notes of an order without touching its status.
func (r *Repository) AnnotateOrder(ctx context.Context, id uuid.UUID, notes *string, processedBy uuid.NullUUID) (*domain.Order, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET notes = $1, processed_by_id = COALESCE($2, processed_by_id), updated_at = $3 WHERE id = $4`,
		nullString(notes), processedBy, r.now(), id)
	if err != nil {
		return nil, fmt.Errorf("annotate order: %w", err)
	}
	if err := affectedOne(res, ErrOrderNotFound); err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, id)
}

func orderMissOrConflict(ctx context.Context, q querier, id uuid.UUID) error {
	var current string
	err := q.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("query order status: %w", err)
	}
	return ErrStatusChanged
}

func (r *Repository) CountOrdersByStatus(ctx context.Context) ([]domain.OrderStatusCount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.OrderStatus]int)
	for rows.Next() {
		var (
			status domain.OrderStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	result := make([]domain.OrderStatusCount, 0, len(domain.OrderStatuses))
	for _, st := range domain.OrderStatuses {
		result = append(result, domain.OrderStatusCount{Status: st, Count: counts[st]})
	}
	return result, nil
}

func newOrderOutboxEvent(eventType string, o *domain.Order, previous domain.OrderStatus, at time.Time) (*domain.OutboxEvent, error) {
	payload := domain.OrderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		Previous:    previous,
		Total:       o.Total.StringFixed(2),
		Currency:    o.Currency,
		OccurredAt:  at,
	}
	if o.ProcessedByID.Valid {
		id := o.ProcessedByID.UUID
		payload.ProcessedBy = &id
	}
	return domain.NewOutboxEvent(o.ID.String(), eventType, payload, at)
}
