package domain

import (
	"time"

	"github.com/google/uuid"
)

type FAQ struct {
	ID          uuid.UUID `json:"id"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	Category    string    `json:"category"`
	SortOrder   int       `json:"sort_order"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Media struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	Alt          *string   `json:"alt"`
	CreatedAt    time.Time `json:"created_at"`
}

type NavLocation string

const (
	NavHeader NavLocation = "header"
	NavFooter NavLocation = "footer"
)

func (l NavLocation) Valid() bool {
	return l == NavHeader || l == NavFooter
}

type NavItem struct {
	ID        uuid.UUID     `json:"id"`
	Label     string        `json:"label"`
	Href      string        `json:"href"`
	Location  NavLocation   `json:"location"`
	ParentID  uuid.NullUUID `json:"parent_id"`
	SortOrder int           `json:"sort_order"`
	IsVisible bool          `json:"is_visible"`
	Children  []NavItem     `json:"children,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

const DefaultSettingsID = "default"

// SiteSettings is the single site-wide configuration row.
type SiteSettings struct {
	ID              string    `json:"id"`
	SiteName        string    `json:"site_name"`
	SiteTagline     *string   `json:"site_tagline"`
	LogoURL         *string   `json:"logo_url"`
	FaviconURL      *string   `json:"favicon_url"`
	ColorPrimary    *string   `json:"color_primary"`
	ColorAccent     *string   `json:"color_accent"`
	ContactEmail    *string   `json:"contact_email"`
	ContactPhone    *string   `json:"contact_phone"`
	AddressLine1    *string   `json:"address_line1"`
	City            *string   `json:"city"`
	Province        *string   `json:"province"`
	Country         *string   `json:"country"`
	PostalCode      *string   `json:"postal_code"`
	InstagramURL    *string   `json:"instagram_url"`
	FacebookURL     *string   `json:"facebook_url"`
	TiktokURL       *string   `json:"tiktok_url"`
	DefaultMetaDesc *string   `json:"default_meta_desc"`
	PromoCode       *string   `json:"promo_code"`
	PromoDiscount   *string   `json:"promo_discount"`
	PromoEnabled    bool      `json:"promo_enabled"`
	HeroTitle       *string   `json:"hero_title"`
	HeroSubtitle    *string   `json:"hero_subtitle"`
	FounderName     *string   `json:"founder_name"`
	CompanyName     *string   `json:"company_name"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func DefaultSiteSettings(now time.Time) *SiteSettings {
	return &SiteSettings{
		ID:        DefaultSettingsID,
		SiteName:  "aelo",
		UpdatedAt: now,
	}
}

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

func NewPage[T any](items []T, total, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Page[T]{Items: items, Total: total, Page: page, Limit: limit, TotalPages: pages}
}

// PageRequest is a 1-based page number with a page size.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the request, falling back to defaultLimit when Limit is unset.
func (p PageRequest) Normalize(defaultLimit int) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
	return p
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}
