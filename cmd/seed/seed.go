package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/AlxM1/aelo/internal/repository"
	"github.com/shopspring/decimal"
)

const (
	defaultAdminEmail    = "admin@drinkaelo.com"
	defaultAdminPassword = "admin123"
)

// seed loads the starting catalog. Re-running it refreshes the products and
// leaves the admin, settings, FAQs and navigation alone once they exist.
func seed(ctx context.Context, repo *repository.Repository, log *slog.Logger) error {
	if err := seedAdmin(ctx, repo, log); err != nil {
		return err
	}
	if err := seedSettings(ctx, repo, log); err != nil {
		return err
	}
	if err := seedProducts(ctx, repo, log); err != nil {
		return err
	}
	if err := seedFAQs(ctx, repo, log); err != nil {
		return err
	}
	return seedNavigation(ctx, repo, log)
}

func seedAdmin(ctx context.Context, repo *repository.Repository, log *slog.Logger) error {
	_, err := repo.GetUserByEmail(ctx, defaultAdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	hash, err := access.HashPassword(defaultAdminPassword)
	if err != nil {
		return err
	}
	admin := &domain.User{
		Email:        defaultAdminEmail,
		PasswordHash: hash,
		Name:         "Admin",
		Role:         domain.RoleSuperAdmin,
		IsActive:     true,
	}
	if err := repo.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info("created admin user", "email", admin.Email)
	return nil
}

func seedSettings(ctx context.Context, repo *repository.Repository, log *slog.Logger) error {
	_, err := repo.GetSettings(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("read settings: %w", err)
	}

	s := &domain.SiteSettings{
		SiteName:      "aelo",
		SiteTagline:   str("Zero Moments Wasted"),
		ContactEmail:  str("hello@drinkaelo.com"),
		City:          str("Vancouver"),
		Province:      str("BC"),
		Country:       str("Canada"),
		InstagramURL:  str("https://www.instagram.com/drinkaelo/"),
		FacebookURL:   str("https://www.facebook.com/drinkaelo"),
		TiktokURL:     str("https://www.tiktok.com/@drinkaelo"),
		PromoCode:     str("FRIENDSOFAELO"),
		PromoDiscount: str("10%"),
		PromoEnabled:  true,
		HeroTitle:     str("Zero Moments Wasted"),
		FounderName:   str("Christos Kalaitzis"),
		CompanyName:   str("Liquid Intelligence Ltd."),
	}
	if err := repo.UpsertSettings(ctx, s); err != nil {
		return fmt.Errorf("create settings: %w", err)
	}
	log.Info("created site settings")
	return nil
}

func seedProducts(ctx context.Context, repo *repository.Repository, log *slog.Logger) error {
	for _, p := range catalog() {
		existing, err := repo.GetProductBySlug(ctx, p.Slug)
		switch {
		case err == nil:
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
			if err := repo.UpdateProduct(ctx, &p); err != nil {
				return fmt.Errorf("update product %s: %w", p.Slug, err)
			}
		case errors.Is(err, domain.ErrNotFound):
			if err := repo.CreateProduct(ctx, &p); err != nil {
				return fmt.Errorf("create product %s: %w", p.Slug, err)
			}
		default:
			return fmt.Errorf("look up product %s: %w", p.Slug, err)
		}
	}
	log.Info("seeded products", "count", len(catalog()))
	return nil
}

func seedFAQs(ctx context.Context, repo *repository.Repository, log *slog.Logger) error {
	existing, err := repo.ListFAQs(ctx, false)
	if err != nil {
		return fmt.Errorf("list faqs: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	faqs := []domain.FAQ{
		{Question: "Are there any carbohydrates in any of your products?", Answer: "No.", Category: "ingredients", SortOrder: 1},
		{Question: "What's the alcohol content in your drinks?", Answer: "All aēlo drinks contain 0.0% alcohol.", Category: "ingredients", SortOrder: 2},
		{Question: "Are your products vegan?", Answer: "Yes, all aēlo products are 100% vegan.", Category: "dietary", SortOrder: 1},
		{Question: "Are your products gluten-free?", Answer: "Yes, all aēlo products are gluten-free.", Category: "dietary", SortOrder: 2},
		{Question: "Are your products keto-friendly?", Answer: "Yes! With zero sugar and zero calories, all aēlo products are perfect for a keto lifestyle.", Category: "dietary", SortOrder: 3},
		{Question: "Where can I buy aēlo products?", Answer: "You can purchase directly from our website. We ship across Canada and the United States.", Category: "products", SortOrder: 1},
		{Question: "How should I store aēlo drinks?", Answer: "Store in a cool, dry place. Refrigerate after opening and consume within 3 days.", Category: "products", SortOrder: 2},
		{Question: "Do you offer wholesale pricing?", Answer: "Yes! Contact us at partnerships@drinkaelo.com for wholesale inquiries.", Category: "partnerships", SortOrder: 1},
		{Question: "Can I stock aēlo in my restaurant or bar?", Answer: "Absolutely! We'd love to partner with you. Reach out to partnerships@drinkaelo.com.", Category: "partnerships", SortOrder: 2},
	}
	for i := range faqs {
		faqs[i].IsPublished = true
		if err := repo.CreateFAQ(ctx, &faqs[i]); err != nil {
			return fmt.Errorf("create faq: %w", err)
		}
	}
	log.Info("created FAQs", "count", len(faqs))
	return nil
}

func seedNavigation(ctx context.Context, repo *repository.Repository, log *slog.Logger) error {
	existing, err := repo.ListNavItems(ctx, "", false)
	if err != nil {
		return fmt.Errorf("list navigation: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	items := []domain.NavItem{
		{Label: "Products", Href: "/products", SortOrder: 1},
		{Label: "Our Story", Href: "/#story", SortOrder: 2},
		{Label: "Our Mission", Href: "/#mission", SortOrder: 3},
		{Label: "Find aelo", Href: "/#find-aelo", SortOrder: 4},
		{Label: "About", Href: "/#about", SortOrder: 5},
		{Label: "Sustainability", Href: "/#sustainability", SortOrder: 6},
		{Label: "Contact", Href: "/contact", SortOrder: 7},
	}
	for i := range items {
		items[i].Location = domain.NavHeader
		items[i].IsVisible = true
		if err := repo.CreateNavItem(ctx, &items[i]); err != nil {
			return fmt.Errorf("create nav item: %w", err)
		}
	}
	log.Info("created navigation items", "count", len(items))
	return nil
}

func catalog() []domain.Product {
	price := decimal.RequireFromString("24.99")
	return []domain.Product{
		{
			Slug:           "gin-tonic",
			Name:           "Gin & Tonic",
			Tagline:        "Award-Winning Spanish Style",
			Description:    "Handcrafted aromatic bitters made with real spices and notes of fresh cucumber, blood orange, lime, and fresh mint leaves.",
			Price:          price,
			Image:          "/gin-tonic.webp",
			Icon:           "🌿",
			Gradient:       "from-cyan-100 via-teal-100 to-emerald-100",
			AccentGradient: "from-cyan-500 to-teal-600",
			Ingredients:    "Filtered water, alcohol-free gin, tonic, citric acid, organic stevia",
			FlavorProfile: []domain.FlavorNote{
				{Name: "Fresh Cucumber", Color: "bg-green-100 text-green-700 border-green-200"},
				{Name: "Blood Orange", Color: "bg-orange-100 text-orange-700 border-orange-200"},
				{Name: "Lime", Color: "bg-lime-100 text-lime-700 border-lime-200"},
				{Name: "Mint Leaves", Color: "bg-emerald-100 text-emerald-700 border-emerald-200"},
			},
			ProductNumber: "001",
			IsActive:      true,
			SortOrder:     1,
		},
		{
			Slug:           "aperitivo-spritz",
			Name:           "Aperitivo Spritz",
			Tagline:        "European-Inspired Refreshment",
			Description:    "Notes of fresh Seville oranges, grapefruit, rhubarb, and handcrafted aromatic bitters made with real spices and sparkling prosecco.",
			Price:          price,
			Image:          "/aperitivo-spritz.webp",
			Icon:           "🍊",
			Gradient:       "from-orange-100 via-red-100 to-pink-100",
			AccentGradient: "from-orange-500 to-red-600",
			Ingredients:    "Filtered water, alcohol-free aperitivo, sparkling prosecco, citric acid, organic stevia",
			FlavorProfile: []domain.FlavorNote{
				{Name: "Seville Orange", Color: "bg-orange-100 text-orange-700 border-orange-200"},
				{Name: "Grapefruit", Color: "bg-pink-100 text-pink-700 border-pink-200"},
				{Name: "Rhubarb", Color: "bg-red-100 text-red-700 border-red-200"},
				{Name: "Bitters", Color: "bg-amber-100 text-amber-700 border-amber-200"},
			},
			ProductNumber: "002",
			IsActive:      true,
			SortOrder:     2,
		},
		{
			Slug:           "peach-bellini",
			Name:           "Peach Bellini",
			Tagline:        "Sparkling Peach Elegance",
			Description:    "Smooth notes of fresh peaches combined with handcrafted aromatic bitters, real spices, herbs and sparkling Prosecco.",
			Price:          price,
			Image:          "/peach-bellini.webp",
			Icon:           "🍑",
			Gradient:       "from-rose-100 via-pink-100 to-orange-100",
			AccentGradient: "from-rose-500 to-pink-600",
			Ingredients:    "Filtered water, peach puree, alcohol-free prosecco, citric acid, organic stevia",
			FlavorProfile: []domain.FlavorNote{
				{Name: "Fresh Peach", Color: "bg-orange-100 text-orange-700 border-orange-200"},
				{Name: "Prosecco", Color: "bg-yellow-100 text-yellow-700 border-yellow-200"},
				{Name: "Herbs", Color: "bg-green-100 text-green-700 border-green-200"},
			},
			ProductNumber: "003",
			IsActive:      true,
			SortOrder:     3,
		},
		{
			Slug:           "lime-margarita",
			Name:           "Lime Margarita",
			Tagline:        "The Party Pleaser",
			Description:    "Tequila-extract based blend combining bitter orange, lime juice, and a pinch of salt. Perfect for any celebration.",
			Price:          price,
			Image:          "/lime-margarita.webp",
			Icon:           "🍋",
			Gradient:       "from-lime-100 via-green-100 to-yellow-100",
			AccentGradient: "from-lime-500 to-green-600",
			Ingredients:    "Filtered water, alcohol-free tequila extract, lime juice, agave, salt, citric acid",
			FlavorProfile: []domain.FlavorNote{
				{Name: "Lime", Color: "bg-lime-100 text-lime-700 border-lime-200"},
				{Name: "Bitter Orange", Color: "bg-orange-100 text-orange-700 border-orange-200"},
				{Name: "Salt", Color: "bg-slate-100 text-slate-700 border-slate-200"},
				{Name: "Agave", Color: "bg-amber-100 text-amber-700 border-amber-200"},
			},
			ProductNumber: "004",
			IsActive:      true,
			SortOrder:     4,
		},
		{
			Slug:           "limoncello-spritz",
			Name:           "Limoncello Spritz",
			Tagline:        "Classic Summer Flavor",
			Description:    "Zero alcohol, zero sugar and zero calories featuring alcohol-free aperitivo and bright lemon essence with sparkling sophistication.",
			Price:          price,
			Image:          "/limoncello-spritz.webp",
			Icon:           "✨",
			Gradient:       "from-yellow-100 via-amber-100 to-orange-100",
			AccentGradient: "from-yellow-500 to-amber-600",
			Ingredients:    "Filtered water, alcohol-free limoncello, sparkling water, citric acid, organic stevia",
			FlavorProfile: []domain.FlavorNote{
				{Name: "Lemon", Color: "bg-yellow-100 text-yellow-700 border-yellow-200"},
				{Name: "Citrus", Color: "bg-orange-100 text-orange-700 border-orange-200"},
				{Name: "Sparkling", Color: "bg-sky-100 text-sky-700 border-sky-200"},
			},
			ProductNumber: "005",
			IsActive:      true,
			SortOrder:     5,
		},
	}
}

func str(s string) *string { return &s }
