package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
)

const faqColumns = `id, question, answer, category, sort_order, is_published, created_at, updated_at`

func scanFAQ(row rowScanner) (*domain.FAQ, error) {
	var f domain.FAQ
	if err := row.Scan(
		&f.ID,
		&f.Question,
		&f.Answer,
		&f.Category,
		&f.SortOrder,
		&f.IsPublished,
		&f.CreatedAt,
		&f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *Repository) CreateFAQ(ctx context.Context, f *domain.FAQ) error {
	now := r.now()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	f.CreatedAt, f.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO faqs (`+faqColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		f.ID, f.Question, f.Answer, f.Category, f.SortOrder, f.IsPublished, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert faq: %w", err)
	}
	return nil
}

func (r *Repository) GetFAQ(ctx context.Context, id uuid.UUID) (*domain.FAQ, error) {
	f, err := scanFAQ(r.db.QueryRowContext(ctx, `SELECT `+faqColumns+` FROM faqs WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFAQNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query faq: %w", err)
	}
	return f, nil
}

// ListFAQs returns all FAQs, or only published ones when publishedOnly is set.
func (r *Repository) ListFAQs(ctx context.Context, publishedOnly bool) ([]domain.FAQ, error) {
	query := `SELECT ` + faqColumns + ` FROM faqs`
	var args []any
	if publishedOnly {
		query += ` WHERE is_published = $1`
		args = append(args, true)
	}
	query += ` ORDER BY category, sort_order, created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query faqs: %w", err)
	}
	defer rows.Close()

	faqs := make([]domain.FAQ, 0)
	for rows.Next() {
		f, err := scanFAQ(rows)
		if err != nil {
			return nil, fmt.Errorf("scan faq: %w", err)
		}
		faqs = append(faqs, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return faqs, nil
}

func (r *Repository) UpdateFAQ(ctx context.Context, f *domain.FAQ) error {
	f.UpdatedAt = r.now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE faqs SET question = $1, answer = $2, category = $3, sort_order = $4, is_published = $5, updated_at = $6
		 WHERE id = $7`,
		f.Question, f.Answer, f.Category, f.SortOrder, f.IsPublished, f.UpdatedAt, f.ID)
	if err != nil {
		return fmt.Errorf("update faq: %w", err)
	}
	return affectedOne(res, ErrFAQNotFound)
}

func (r *Repository) DeleteFAQ(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM faqs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete faq: %w", err)
	}
	return affectedOne(res, ErrFAQNotFound)
}
