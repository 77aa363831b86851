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

const checkoutColumns = `id, external_id, cart_session_id, idempotency_key, snapshot, redirect_url, status, created_at, updated_at`

func scanCheckoutSession(row rowScanner) (*domain.CheckoutSession, error) {
	var (
		cs                  domain.CheckoutSession
		externalID, idemKey sql.NullString
		redirectURL         sql.NullString
		snapshot            []byte
	)
	if err := row.Scan(
		&cs.ID,
		&externalID,
		&cs.CartSessionID,
		&idemKey,
		&snapshot,
		&redirectURL,
		&cs.Status,
		&cs.CreatedAt,
		&cs.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &cs.Snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	cs.ExternalID = stringPtr(externalID)
	cs.IdempotencyKey = stringPtr(idemKey)
	cs.RedirectURL = stringPtr(redirectURL)
	return &cs, nil
}

func (r *Repository) CreateCheckoutSession(ctx context.Context, cs *domain.CheckoutSession) error {
	now := r.now()
	if cs.ID == uuid.Nil {
		cs.ID = uuid.New()
	}
	if cs.Status == "" {
		cs.Status = domain.CheckoutStatusOpen
	}
	cs.CreatedAt, cs.UpdatedAt = now, now

	snapshot, err := json.Marshal(cs.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}

	query := `INSERT INTO checkout_sessions (` + checkoutColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.ExecContext(ctx, query,
		cs.ID,
		nullString(cs.ExternalID),
		cs.CartSessionID,
		nullString(cs.IdempotencyKey),
		string(snapshot),
		nullString(cs.RedirectURL),
		string(cs.Status),
		cs.CreatedAt,
		cs.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "idempotency_key") {
			return ErrIdempotencyKeyUsed
		}
		return fmt.Errorf("insert checkout session: %w", err)
	}
	return nil
}

func (r *Repository) GetCheckoutSession(ctx context.Context, id uuid.UUID) (*domain.CheckoutSession, error) {
	return r.getCheckoutSession(ctx, "id", id, ErrCheckoutSessionNotFound)
}

func (r *Repository) GetCheckoutSessionByIdempotencyKey(ctx context.Context, key string) (*domain.CheckoutSession, error) {
	return r.getCheckoutSession(ctx, "idempotency_key", key, ErrIdempotencyKeyNotFound)
}

func (r *Repository) GetCheckoutSessionByExternalID(ctx context.Context, externalID string) (*domain.CheckoutSession, error) {
	return r.getCheckoutSession(ctx, "external_id", externalID, ErrCheckoutSessionNotFound)
}

func (r *Repository) getCheckoutSession(ctx context.Context, column string, value any, notFound error) (*domain.CheckoutSession, error) {
	query := `SELECT ` + checkoutColumns + ` FROM checkout_sessions WHERE ` + column + ` = $1`
	cs, err := scanCheckoutSession(r.db.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("query checkout session by %s: %w", column, err)
	}
	return cs, nil
}

// AttachExternalSession records the payment provider's session id and the
// hosted page the customer is sent to.
func (r *Repository) AttachExternalSession(ctx context.Context, id uuid.UUID, externalID, redirectURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE checkout_sessions SET external_id = $1, redirect_url = $2, updated_at = $3 WHERE id = $4`,
		externalID, redirectURL, r.now(), id)
	if err != nil {
		return fmt.Errorf("attach external session: %w", err)
	}
	return affectedOne(res, ErrCheckoutSessionNotFound)
}

func (r *Repository) UpdateCheckoutStatus(ctx context.Context, id uuid.UUID, status domain.CheckoutStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE checkout_sessions SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), r.now(), id)
	if err != nil {
		return fmt.Errorf("update checkout status: %w", err)
	}
	return affectedOne(res, ErrCheckoutSessionNotFound)
}

// MarkCartCleared claims the one cart clear a completed checkout is entitled to.
// It returns false when the claim was already taken.
func (r *Repository) MarkCartCleared(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE checkout_sessions SET cart_cleared_at = $1, updated_at = $1 WHERE id = $2 AND cart_cleared_at IS NULL`,
		r.now(), id)
	if err != nil {
		return false, fmt.Errorf("mark cart cleared: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return true, nil
	}
	if _, err := r.GetCheckoutSession(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// ReleaseCartClear hands back a claim taken by MarkCartCleared whose clear
// did not go through.
func (r *Repository) ReleaseCartClear(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE checkout_sessions SET cart_cleared_at = NULL, updated_at = $1 WHERE id = $2`,
		r.now(), id)
	if err != nil {
		return fmt.Errorf("release cart clear: %w", err)
	}
	return nil
}
