package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
)

const mediaColumns = `id, filename, original_name, mime_type, size, url, alt, created_at`

func scanMedia(row rowScanner) (*domain.Media, error) {
	var (
		m   domain.Media
		alt sql.NullString
	)
	if err := row.Scan(&m.ID, &m.Filename, &m.OriginalName, &m.MimeType, &m.Size, &m.URL, &alt, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Alt = stringPtr(alt)
	return &m, nil
}

func (r *Repository) CreateMedia(ctx context.Context, m *domain.Media) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = r.now()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO media (`+mediaColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.Filename, m.OriginalName, m.MimeType, m.Size, m.URL, nullString(m.Alt), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert media: %w", err)
	}
	return nil
}

func (r *Repository) GetMedia(ctx context.Context, id uuid.UUID) (*domain.Media, error) {
	m, err := scanMedia(r.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query media: %w", err)
	}
	return m, nil
}

func (r *Repository) ListMedia(ctx context.Context, page domain.PageRequest) ([]domain.Media, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count media: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+mediaColumns+` FROM media ORDER BY created_at DESC, filename LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query media: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Media, 0)
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}
	return items, total, nil
}

func (r *Repository) UpdateMediaAlt(ctx context.Context, id uuid.UUID, alt *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE media SET alt = $1 WHERE id = $2`, nullString(alt), id)
	if err != nil {
		return fmt.Errorf("update media: %w", err)
	}
	return affectedOne(res, ErrMediaNotFound)
}

func (r *Repository) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return affectedOne(res, ErrMediaNotFound)
}
