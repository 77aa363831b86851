package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FlavorNote struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Product struct {
	ID             uuid.UUID           `json:"id"`
	Slug           string              `json:"slug"`
	Name           string              `json:"name"`
	Tagline        string              `json:"tagline"`
	Description    string              `json:"description"`
	Price          decimal.Decimal     `json:"price"`
	CompareAtPrice decimal.NullDecimal `json:"compare_at_price"`
	Image          string              `json:"image"`
	Icon           string              `json:"icon"`
	Gradient       string              `json:"gradient"`
	AccentGradient string              `json:"accent_gradient"`
	Ingredients    string              `json:"ingredients"`
	FlavorProfile  []FlavorNote        `json:"flavor_profile"`
	ProductNumber  string              `json:"product_number"`
	IsActive       bool                `json:"is_active"`
	SortOrder      int                 `json:"sort_order"`
	CreatedByID    uuid.NullUUID       `json:"created_by_id"`
	UpdatedByID    uuid.NullUUID       `json:"updated_by_id"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases name and collapses every run of non [a-z0-9] characters into "-".
func Slugify(name string) string {
	return slugSeparators.ReplaceAllString(strings.ToLower(name), "-")
}
