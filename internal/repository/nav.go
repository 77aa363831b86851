package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
)

const navColumns = `id, label, href, location, parent_id, sort_order, is_visible, created_at, updated_at`

func scanNavItem(row rowScanner) (*domain.NavItem, error) {
	var n domain.NavItem
	if err := row.Scan(
		&n.ID,
		&n.Label,
		&n.Href,
		&n.Location,
		&n.ParentID,
		&n.SortOrder,
		&n.IsVisible,
		&n.CreatedAt,
		&n.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *Repository) CreateNavItem(ctx context.Context, n *domain.NavItem) error {
	now := r.now()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt, n.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO nav_items (`+navColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.Label, n.Href, string(n.Location), n.ParentID, n.SortOrder, n.IsVisible, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert nav item: %w", err)
	}
	return nil
}

func (r *Repository) GetNavItem(ctx context.Context, id uuid.UUID) (*domain.NavItem, error) {
	n, err := scanNavItem(r.db.QueryRowContext(ctx, `SELECT `+navColumns+` FROM nav_items WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNavItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query nav item: %w", err)
	}
	return n, nil
}

// ListNavItems returns the flat list of items, optionally limited to one
// location and to visible items.
func (r *Repository) ListNavItems(ctx context.Context, location domain.NavLocation, visibleOnly bool) ([]domain.NavItem, error) {
	query := `SELECT ` + navColumns + ` FROM nav_items WHERE 1 = 1`
	var args []any
	if location != "" {
		args = append(args, string(location))
		query += fmt.Sprintf(` AND location = $%d`, len(args))
	}
	if visibleOnly {
		args = append(args, true)
		query += fmt.Sprintf(` AND is_visible = $%d`, len(args))
	}
	query += ` ORDER BY location, sort_order, label`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nav items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.NavItem, 0)
	for rows.Next() {
		n, err := scanNavItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan nav item: %w", err)
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

func (r *Repository) UpdateNavItem(ctx context.Context, n *domain.NavItem) error {
	n.UpdatedAt = r.now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE nav_items SET label = $1, href = $2, location = $3, parent_id = $4, sort_order = $5,
		     is_visible = $6, updated_at = $7
		 WHERE id = $8`,
		n.Label, n.Href, string(n.Location), n.ParentID, n.SortOrder, n.IsVisible, n.UpdatedAt, n.ID)
	if err != nil {
		return fmt.Errorf("update nav item: %w", err)
	}
	return affectedOne(res, ErrNavItemNotFound)
}

// DeleteNavItem removes an item; its children go with it.
func (r *Repository) DeleteNavItem(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM nav_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete nav item: %w", err)
	}
	return affectedOne(res, ErrNavItemNotFound)
}
