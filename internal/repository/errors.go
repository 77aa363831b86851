package repository

import (
	"fmt"

	"github.com/AlxM1/aelo/internal/domain"
)

var (
	ErrUserNotFound            = fmt.Errorf("user %w", domain.ErrNotFound)
	ErrProductNotFound         = fmt.Errorf("product %w", domain.ErrNotFound)
	ErrOrderNotFound           = fmt.Errorf("order %w", domain.ErrNotFound)
	ErrFAQNotFound             = fmt.Errorf("faq %w", domain.ErrNotFound)
	ErrMediaNotFound           = fmt.Errorf("media %w", domain.ErrNotFound)
	ErrNavItemNotFound         = fmt.Errorf("navigation item %w", domain.ErrNotFound)
	ErrSettingsNotFound        = fmt.Errorf("site settings %w", domain.ErrNotFound)
	ErrCheckoutSessionNotFound = fmt.Errorf("checkout session %w", domain.ErrNotFound)
	ErrIdempotencyKeyNotFound  = fmt.Errorf("idempotency key %w", domain.ErrNotFound)

	ErrEmailTaken         = fmt.Errorf("email already in use: %w", domain.ErrConflict)
	ErrSlugTaken          = fmt.Errorf("slug already in use: %w", domain.ErrConflict)
	ErrDuplicateCheckout  = fmt.Errorf("order already exists for checkout session: %w", domain.ErrConflict)
	ErrOrderNumberTaken   = fmt.Errorf("order number already in use: %w", domain.ErrConflict)
	ErrIdempotencyKeyUsed = fmt.Errorf("idempotency key already used: %w", domain.ErrConflict)
	ErrStatusChanged      = fmt.Errorf("order status changed concurrently: %w", domain.ErrConflict)
)
