package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/AlxM1/aelo/internal/cart"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/AlxM1/aelo/internal/payment"
	"github.com/AlxM1/aelo/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CheckoutConfig struct {
	PublicBaseURL string
	Currency      string
}

type CheckoutRequest struct {
	CartSessionID  string
	Lines          []cart.Line
	IdempotencyKey string
}

type CheckoutResult struct {
	CheckoutSessionID uuid.UUID `json:"checkout_session_id"`
	URL               string    `json:"url"`
}

// CheckoutService hands the cart to the hosted checkout. It never creates an
// order; that happens when the payment is confirmed.
type CheckoutService struct {
	repo         CheckoutStore
	collaborator CheckoutCollaborator
	carts        *CartService
	cfg          CheckoutConfig
	log          *slog.Logger
	now          func() time.Time
}

func NewCheckoutService(repo CheckoutStore, collaborator CheckoutCollaborator, carts *CartService, cfg CheckoutConfig, log *slog.Logger) *CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = "cad"
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &CheckoutService{
		repo:         repo,
		collaborator: collaborator,
		carts:        carts,
		cfg:          cfg,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// InitiateCheckout returns the URL of the hosted checkout page. A repeated
// idempotency key replays the outcome recorded for it.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.IdempotencyKey != "" {
		existing, err := s.repo.GetCheckoutSessionByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil && !errors.Is(err, repository.ErrIdempotencyKeyNotFound) {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
		if existing != nil {
			s.log.Info("duplicate checkout request", "idempotency_key", req.IdempotencyKey, "checkout_id", existing.ID, "status", existing.Status)
			return replayCheckout(existing)
		}
	}

	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}

	cs := &domain.CheckoutSession{
		CartSessionID: req.CartSessionID,
		Snapshot:      s.buildCartSnapshot(req.Lines),
	}
	if req.IdempotencyKey != "" {
		cs.IdempotencyKey = &req.IdempotencyKey
	}

	if err := s.repo.CreateCheckoutSession(ctx, cs); err != nil {
		if errors.Is(err, repository.ErrIdempotencyKeyUsed) {
			existing, getErr := s.repo.GetCheckoutSessionByIdempotencyKey(ctx, req.IdempotencyKey)
			if getErr != nil {
				return nil, fmt.Errorf("failed to check idempotency: %w", getErr)
			}
			return replayCheckout(existing)
		}
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	session, err := s.collaborator.CreateSession(ctx, s.sessionRequest(cs, req.Lines))
	if err != nil {
		s.markFailed(cs.ID)
		if !errors.Is(err, domain.ErrCheckoutUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrCheckoutUnavailable, err)
		}
		return nil, err
	}

	if err := s.repo.AttachExternalSession(ctx, cs.ID, session.ID, session.URL); err != nil {
		s.markFailed(cs.ID)
		return nil, fmt.Errorf("failed to record checkout session: %w", err)
	}

	s.log.Info("checkout initiated",
		"checkout_id", cs.ID,
		"external_id", session.ID,
		"items", len(req.Lines),
		"total", cs.Snapshot.TotalAmount.StringFixed(2))

	return &CheckoutResult{CheckoutSessionID: cs.ID, URL: session.URL}, nil
}

// CompleteRedirect clears the customer's cart when they land on the success
// page. Each checkout session clears at most once, so reloading the page
// leaves a newer cart alone. It reports whether the cart was cleared.
func (s *CheckoutService) CompleteRedirect(ctx context.Context, cartSessionID string, checkoutSessionID uuid.UUID) (bool, error) {
	cs, err := s.repo.GetCheckoutSession(ctx, checkoutSessionID)
	if err != nil {
		return false, err
	}
	if cs.CartSessionID != cartSessionID || cs.Status == domain.CheckoutStatusFailed {
		return false, nil
	}

	claimed, err := s.repo.MarkCartCleared(ctx, cs.ID)
	if err != nil || !claimed {
		return false, err
	}
	if err := s.carts.ClearCart(ctx, cartSessionID); err != nil {
		s.releaseCartClear(cs.ID)
		return false, err
	}
	return true, nil
}

func replayCheckout(cs *domain.CheckoutSession) (*CheckoutResult, error) {
	switch {
	case cs.RedirectURL != nil:
		return &CheckoutResult{CheckoutSessionID: cs.ID, URL: *cs.RedirectURL}, nil
	case cs.Status == domain.CheckoutStatusFailed:
		return nil, fmt.Errorf("%w: checkout %s failed", domain.ErrCheckoutUnavailable, cs.ID)
	default:
		return nil, fmt.Errorf("%w: checkout %s is still being created", domain.ErrConflict, cs.ID)
	}
}

func validateLines(lines []cart.Line) error {
	if len(lines) == 0 {
		return domain.Invalid("items", "cart is empty")
	}
	for _, l := range lines {
		if l.Quantity < 1 {
			return domain.Invalid("quantity", fmt.Sprintf("quantity for %q must be at least 1", l.Name))
		}
		if l.UnitPrice.IsNegative() {
			return domain.Invalid("unit_price", fmt.Sprintf("price for %q must not be negative", l.Name))
		}
	}
	return nil
}

// buildCartSnapshot freezes the prices the order will later be built from.
func (s *CheckoutService) buildCartSnapshot(lines []cart.Line) domain.CartSnapshot {
	snapshot := domain.CartSnapshot{
		Items:      make([]domain.CartSnapshotItem, 0, len(lines)),
		Currency:   s.cfg.Currency,
		CapturedAt: s.now(),
	}

	total := decimal.Zero
	for _, l := range lines {
		subtotal := l.Subtotal()
		snapshot.Items = append(snapshot.Items, domain.CartSnapshotItem{
			ProductID:   l.ProductID,
			ProductName: l.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}
	snapshot.TotalAmount = total
	return snapshot
}

func (s *CheckoutService) sessionRequest(cs *domain.CheckoutSession, lines []cart.Line) payment.SessionRequest {
	items := make([]payment.LineItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, payment.LineItem{
			Name:       l.Name,
			UnitAmount: payment.MinorUnits(l.UnitPrice),
			Quantity:   l.Quantity,
		})
	}
	return payment.SessionRequest{
		LineItems:         items,
		Currency:          s.cfg.Currency,
		SuccessURL:        s.cfg.PublicBaseURL + "/checkout/success?session_id=" + url.QueryEscape(cs.ID.String()),
		CancelURL:         s.cfg.PublicBaseURL + "/checkout/cancel",
		ClientReferenceID: cs.ID.String(),
	}
}

func (s *CheckoutService) markFailed(id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.repo.UpdateCheckoutStatus(ctx, id, domain.CheckoutStatusFailed); err != nil {
		s.log.Error("failed to mark checkout session failed", "checkout_id", id, "error", err)
	}
}

// releaseCartClear lets a later success redirect retry a clear that failed.
func (s *CheckoutService) releaseCartClear(id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.repo.ReleaseCartClear(ctx, id); err != nil {
		s.log.Error("failed to release cart clear", "checkout_id", id, "error", err)
	}
}
