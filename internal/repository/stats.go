package repository

import (
	"context"
	"fmt"

	"github.com/AlxM1/aelo/internal/domain"
)

func (r *Repository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DashboardStats gathers the row counts shown on the admin dashboard.
func (r *Repository) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	var (
		stats domain.DashboardStats
		err   error
	)
	if stats.Products, err = r.count(ctx, `SELECT COUNT(*) FROM products`); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if stats.ActiveProducts, err = r.count(ctx, `SELECT COUNT(*) FROM products WHERE is_active = $1`, true); err != nil {
		return nil, fmt.Errorf("count active products: %w", err)
	}
	if stats.Orders, err = r.count(ctx, `SELECT COUNT(*) FROM orders`); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	if stats.FAQs, err = r.count(ctx, `SELECT COUNT(*) FROM faqs`); err != nil {
		return nil, fmt.Errorf("count faqs: %w", err)
	}
	if stats.Media, err = r.count(ctx, `SELECT COUNT(*) FROM media`); err != nil {
		return nil, fmt.Errorf("count media: %w", err)
	}
	if stats.OrdersByStatus, err = r.CountOrdersByStatus(ctx); err != nil {
		return nil, err
	}
	return &stats, nil
}
