package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
)

const productColumns = `id, slug, name, tagline, description, price, compare_at_price, image, icon,
	gradient, accent_gradient, ingredients, flavor_profile, product_number, is_active, sort_order,
	created_by_id, updated_by_id, created_at, updated_at`

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p       domain.Product
		flavors []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.Name,
		&p.Tagline,
		&p.Description,
		&p.Price,
		&p.CompareAtPrice,
		&p.Image,
		&p.Icon,
		&p.Gradient,
		&p.AccentGradient,
		&p.Ingredients,
		&flavors,
		&p.ProductNumber,
		&p.IsActive,
		&p.SortOrder,
		&p.CreatedByID,
		&p.UpdatedByID,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(flavors) > 0 {
		if err := json.Unmarshal(flavors, &p.FlavorProfile); err != nil {
			return nil, fmt.Errorf("unmarshal flavor profile: %w", err)
		}
	}
	return &p, nil
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

func flavorJSON(notes []domain.FlavorNote) (string, error) {
	if notes == nil {
		notes = []domain.FlavorNote{}
	}
	b, err := json.Marshal(notes)
	if err != nil {
		return "", fmt.Errorf("marshal flavor profile: %w", err)
	}
	return string(b), nil
}

func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	now := r.now()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt, p.UpdatedAt = now, now

	flavors, err := flavorJSON(p.FlavorProfile)
	if err != nil {
		return err
	}

	query := `INSERT INTO products (` + productColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err = r.db.ExecContext(ctx, query,
		p.ID,
		p.Slug,
		p.Name,
		p.Tagline,
		p.Description,
		p.Price,
		p.CompareAtPrice,
		p.Image,
		p.Icon,
		p.Gradient,
		p.AccentGradient,
		p.Ingredients,
		flavors,
		p.ProductNumber,
		p.IsActive,
		p.SortOrder,
		p.CreatedByID,
		p.UpdatedByID,
		p.CreatedAt,
		p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "slug") {
			return ErrSlugTaken
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *Repository) GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by slug: %w", err)
	}
	return p, nil
}

// ListProducts pages through the catalog ordered by sort order, optionally
// filtered by a case-insensitive search over name, description and slug.
func (r *Repository) ListProducts(ctx context.Context, search string, page domain.PageRequest) ([]domain.Product, int, error) {
	where := ""
	args := []any{}
	if search != "" {
		where = ` WHERE LOWER(name) LIKE $1 OR LOWER(description) LIKE $1 OR LOWER(slug) LIKE $1`
		args = append(args, likePattern(search))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY sort_order, name LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	products, err := scanProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *Repository) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active = $1 ORDER BY sort_order, name`
	rows, err := r.db.QueryContext(ctx, query, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return scanProducts(rows)
}

func (r *Repository) ListAllProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return scanProducts(rows)
}

func (r *Repository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = r.now()

	flavors, err := flavorJSON(p.FlavorProfile)
	if err != nil {
		return err
	}

	query := `UPDATE products SET
	              slug = $1, name = $2, tagline = $3, description = $4, price = $5, compare_at_price = $6,
	              image = $7, icon = $8, gradient = $9, accent_gradient = $10, ingredients = $11,
	              flavor_profile = $12, product_number = $13, is_active = $14, sort_order = $15,
	              updated_by_id = $16, updated_at = $17
	          WHERE id = $18`

	res, err := r.db.ExecContext(ctx, query,
		p.Slug,
		p.Name,
		p.Tagline,
		p.Description,
		p.Price,
		p.CompareAtPrice,
		p.Image,
		p.Icon,
		p.Gradient,
		p.AccentGradient,
		p.Ingredients,
		flavors,
		p.ProductNumber,
		p.IsActive,
		p.SortOrder,
		p.UpdatedByID,
		p.UpdatedAt,
		p.ID)
	if err != nil {
		if isUniqueViolation(err, "slug") {
			return ErrSlugTaken
		}
		return fmt.Errorf("update product: %w", err)
	}
	return affectedOne(res, ErrProductNotFound)
}

func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return affectedOne(res, ErrProductNotFound)
}
