package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AlxM1/aelo/internal/domain"
)

const settingsColumns = `id, site_name, site_tagline, logo_url, favicon_url, color_primary, color_accent,
	contact_email, contact_phone, address_line1, city, province, country, postal_code, instagram_url,
	facebook_url, tiktok_url, default_meta_desc, promo_code, promo_discount, promo_enabled, hero_title,
	hero_subtitle, founder_name, company_name, updated_at`

// settingsOptional returns the nullable fields in column order: head sits
// between site_name and promo_enabled, tail between promo_enabled and updated_at.
func settingsOptional(s *domain.SiteSettings) (head []**string, tail []**string) {
	head = []**string{
		&s.SiteTagline, &s.LogoURL, &s.FaviconURL, &s.ColorPrimary, &s.ColorAccent,
		&s.ContactEmail, &s.ContactPhone, &s.AddressLine1, &s.City, &s.Province, &s.Country,
		&s.PostalCode, &s.InstagramURL, &s.FacebookURL, &s.TiktokURL, &s.DefaultMetaDesc,
		&s.PromoCode, &s.PromoDiscount,
	}
	tail = []**string{&s.HeroTitle, &s.HeroSubtitle, &s.FounderName, &s.CompanyName}
	return head, tail
}

func (r *Repository) GetSettings(ctx context.Context) (*domain.SiteSettings, error) {
	var s domain.SiteSettings
	head, tail := settingsOptional(&s)
	headNull := make([]sql.NullString, len(head))
	tailNull := make([]sql.NullString, len(tail))

	dest := []any{&s.ID, &s.SiteName}
	for i := range headNull {
		dest = append(dest, &headNull[i])
	}
	dest = append(dest, &s.PromoEnabled)
	for i := range tailNull {
		dest = append(dest, &tailNull[i])
	}
	dest = append(dest, &s.UpdatedAt)

	err := r.db.QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM site_settings WHERE id = $1`, domain.DefaultSettingsID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query site settings: %w", err)
	}

	for i, p := range head {
		*p = stringPtr(headNull[i])
	}
	for i, p := range tail {
		*p = stringPtr(tailNull[i])
	}
	return &s, nil
}

// UpsertSettings writes the single settings row, creating it on first save.
func (r *Repository) UpsertSettings(ctx context.Context, s *domain.SiteSettings) error {
	s.ID = domain.DefaultSettingsID
	s.UpdatedAt = r.now()
	head, tail := settingsOptional(s)

	args := []any{s.ID, s.SiteName}
	for _, p := range head {
		args = append(args, nullString(*p))
	}
	args = append(args, s.PromoEnabled)
	for _, p := range tail {
		args = append(args, nullString(*p))
	}
	args = append(args, s.UpdatedAt)

	query := `INSERT INTO site_settings (` + settingsColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
	                  $21, $22, $23, $24, $25, $26)
	          ON CONFLICT (id) DO UPDATE SET
	              site_name = excluded.site_name,
	              site_tagline = excluded.site_tagline,
	              logo_url = excluded.logo_url,
	              favicon_url = excluded.favicon_url,
	              color_primary = excluded.color_primary,
	              color_accent = excluded.color_accent,
	              contact_email = excluded.contact_email,
	              contact_phone = excluded.contact_phone,
	              address_line1 = excluded.address_line1,
	              city = excluded.city,
	              province = excluded.province,
	              country = excluded.country,
	              postal_code = excluded.postal_code,
	              instagram_url = excluded.instagram_url,
	              facebook_url = excluded.facebook_url,
	              tiktok_url = excluded.tiktok_url,
	              default_meta_desc = excluded.default_meta_desc,
	              promo_code = excluded.promo_code,
	              promo_discount = excluded.promo_discount,
	              promo_enabled = excluded.promo_enabled,
	              hero_title = excluded.hero_title,
	              hero_subtitle = excluded.hero_subtitle,
	              founder_name = excluded.founder_name,
	              company_name = excluded.company_name,
	              updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert site settings: %w", err)
	}
	return nil
}
