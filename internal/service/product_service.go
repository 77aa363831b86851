package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/AlxM1/aelo/internal/cache"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

const defaultProductPageSize = 50

// ProductInput carries the fields of a create or update request. Nil fields
// are left as they are, except CompareAtPrice which is cleared when nil.
type ProductInput struct {
	Slug           *string              `json:"slug"`
	Name           *string              `json:"name"`
	Tagline        *string              `json:"tagline"`
	Description    *string              `json:"description"`
	Price          *decimal.Decimal     `json:"price"`
	CompareAtPrice *decimal.Decimal     `json:"compare_at_price"`
	Image          *string              `json:"image"`
	Icon           *string              `json:"icon"`
	Gradient       *string              `json:"gradient"`
	AccentGradient *string              `json:"accent_gradient"`
	Ingredients    *string              `json:"ingredients"`
	FlavorProfile  *[]domain.FlavorNote `json:"flavor_profile"`
	ProductNumber  *string              `json:"product_number"`
	IsActive       *bool                `json:"is_active"`
	SortOrder      *int                 `json:"sort_order"`
}

type ProductService struct {
	repo  ProductStore
	cache cache.QueryCache
	log   *slog.Logger
}

func NewProductService(repo ProductStore, qc cache.QueryCache, log *slog.Logger) *ProductService {
	return &ProductService{repo: repo, cache: qc, log: log}
}

func (s *ProductService) List(ctx context.Context, session *access.Session, search string, page domain.PageRequest) (domain.Page[domain.Product], error) {
	if err := access.RequirePermission(session, access.PermRead); err != nil {
		return domain.Page[domain.Product]{}, err
	}
	page = page.Normalize(defaultProductPageSize)
	products, total, err := s.repo.ListProducts(ctx, search, page)
	if err != nil {
		return domain.Page[domain.Product]{}, err
	}
	return domain.NewPage(products, total, page.Page, page.Limit), nil
}

func (s *ProductService) Get(ctx context.Context, session *access.Session, id uuid.UUID) (*domain.Product, error) {
	if err := access.RequirePermission(session, access.PermRead); err != nil {
		return nil, err
	}
	return s.repo.GetProductByID(ctx, id)
}

// Create derives the slug from the name when none is given.
func (s *ProductService) Create(ctx context.Context, session *access.Session, in ProductInput) (*domain.Product, error) {
	if err := access.RequirePermission(session, access.PermCreate); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, domain.Invalid("name", "name is required")
	}
	if in.Price == nil {
		return nil, domain.Invalid("price", "price is required")
	}

	p := &domain.Product{IsActive: true}
	if err := applyProductInput(p, in); err != nil {
		return nil, err
	}
	if p.Slug == "" {
		p.Slug = domain.Slugify(p.Name)
	}
	actor := uuid.NullUUID{UUID: session.UserID, Valid: true}
	p.CreatedByID, p.UpdatedByID = actor, actor

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("product created", "product_id", p.ID, "slug", p.Slug, "by", session.UserID)
	invalidateQueries(ctx, s.cache, s.log, keyProducts)
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, session *access.Session, id uuid.UUID, in ProductInput) (*domain.Product, error) {
	if err := access.RequirePermission(session, access.PermUpdate); err != nil {
		return nil, err
	}
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyProductInput(p, in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, domain.Invalid("name", "name is required")
	}
	if p.Slug == "" {
		p.Slug = domain.Slugify(p.Name)
	}
	p.UpdatedByID = uuid.NullUUID{UUID: session.UserID, Valid: true}

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	invalidateQueries(ctx, s.cache, s.log, keyProducts)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, session *access.Session, id uuid.UUID) error {
	if err := access.RequirePermission(session, access.PermDelete); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", "product_id", id, "by", session.UserID)
	invalidateQueries(ctx, s.cache, s.log, keyProducts)
	return nil
}

var productExportHeaders = []string{
	"ID", "Slug", "Name", "Tagline", "Description", "Price", "CompareAtPrice",
	"ProductNumber", "Active", "SortOrder", "Image", "Ingredients", "CreatedAt", "UpdatedAt",
}

// Export writes the whole catalog as an XLSX workbook with one product per row.
func (s *ProductService) Export(ctx context.Context, session *access.Session, w io.Writer) error {
	if err := access.RequirePermission(session, access.PermRead); err != nil {
		return err
	}
	products, err := s.repo.ListAllProducts(ctx)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range productExportHeaders {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID.String())
		row.AddCell().SetString(p.Slug)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Tagline)
		row.AddCell().SetString(p.Description)
		row.AddCell().SetString(p.Price.StringFixed(2))
		compareAt := ""
		if p.CompareAtPrice.Valid {
			compareAt = p.CompareAtPrice.Decimal.StringFixed(2)
		}
		row.AddCell().SetString(compareAt)
		row.AddCell().SetString(p.ProductNumber)
		row.AddCell().SetBool(p.IsActive)
		row.AddCell().SetInt(p.SortOrder)
		row.AddCell().SetString(p.Image)
		row.AddCell().SetString(p.Ingredients)
		row.AddCell().SetString(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func applyProductInput(p *domain.Product, in ProductInput) error {
	setString(&p.Name, in.Name)
	setString(&p.Tagline, in.Tagline)
	setString(&p.Description, in.Description)
	setString(&p.Image, in.Image)
	setString(&p.Icon, in.Icon)
	setString(&p.Gradient, in.Gradient)
	setString(&p.AccentGradient, in.AccentGradient)
	setString(&p.Ingredients, in.Ingredients)
	setString(&p.ProductNumber, in.ProductNumber)
	if in.Slug != nil {
		p.Slug = domain.Slugify(strings.TrimSpace(*in.Slug))
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return domain.Invalid("price", "price must not be negative")
		}
		p.Price = *in.Price
	}
	p.CompareAtPrice = decimal.NullDecimal{}
	if in.CompareAtPrice != nil {
		if in.CompareAtPrice.IsNegative() {
			return domain.Invalid("compare_at_price", "compare-at price must not be negative")
		}
		p.CompareAtPrice = decimal.NewNullDecimal(*in.CompareAtPrice)
	}
	if in.FlavorProfile != nil {
		p.FlavorProfile = *in.FlavorProfile
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.SortOrder != nil {
		p.SortOrder = *in.SortOrder
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
