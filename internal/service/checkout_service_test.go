package service

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/AlxM1/aelo/internal/cart"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/AlxM1/aelo/internal/repository"
	"github.com/AlxM1/aelo/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	svc      *CheckoutService
	repo     *repository.Repository
	collab   *mockCollaborator
	carts    *CartService
	cartRepo *mockCartRepository
}

func setupCheckout(t *testing.T) *checkoutFixture {
	t.Helper()
	repo := setupRepo(t)
	collab := &mockCollaborator{}
	carts, cartRepo, _ := setupCartService()
	svc := NewCheckoutService(repo, collab, carts, CheckoutConfig{
		PublicBaseURL: "https://drinkaelo.com/",
		Currency:      "cad",
	}, logger.Nop())
	return &checkoutFixture{svc: svc, repo: repo, collab: collab, carts: carts, cartRepo: cartRepo}
}

func testLines() []cart.Line {
	price := decimal.RequireFromString("24.99")
	return []cart.Line{
		{ProductID: uuid.New(), Name: "Yuzu Ginger", UnitPrice: price, Quantity: 2},
		{ProductID: uuid.New(), Name: "Hibiscus Rose", UnitPrice: price, Quantity: 1},
	}
}

func TestInitiateCheckout_Success(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()

	res, err := f.svc.InitiateCheckout(ctx, CheckoutRequest{CartSessionID: "cart-1", Lines: testLines()})
	require.NoError(t, err)
	assert.Contains(t, res.URL, "https://pay.example.com/cs_test_")

	require.Equal(t, 1, f.collab.calls())
	req := f.collab.requests[0]
	assert.Equal(t, "cad", req.Currency)
	require.Len(t, req.LineItems, 2)
	assert.Equal(t, int64(2499), req.LineItems[0].UnitAmount)
	assert.Equal(t, 2, req.LineItems[0].Quantity)
	assert.Equal(t, "Yuzu Ginger", req.LineItems[0].Name)
	assert.Equal(t, "https://drinkaelo.com/checkout/cancel", req.CancelURL)
	assert.Equal(t, res.CheckoutSessionID.String(), req.ClientReferenceID)

	success, err := url.Parse(req.SuccessURL)
	require.NoError(t, err)
	assert.Equal(t, "/checkout/success", success.Path)
	assert.Equal(t, res.CheckoutSessionID.String(), success.Query().Get("session_id"))

	cs, err := f.repo.GetCheckoutSession(ctx, res.CheckoutSessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusOpen, cs.Status)
	assert.Equal(t, "cart-1", cs.CartSessionID)
	require.NotNil(t, cs.ExternalID)
	assert.Equal(t, "74.97", cs.Snapshot.TotalAmount.StringFixed(2))
	assert.Len(t, cs.Snapshot.Items, 2)
}

func TestInitiateCheckout_Validation(t *testing.T) {
	tests := []struct {
		name  string
		lines []cart.Line
	}{
		{name: "empty cart", lines: nil},
		{name: "zero quantity", lines: []cart.Line{{ProductID: uuid.New(), Name: "Yuzu", UnitPrice: decimal.RequireFromString("24.99"), Quantity: 0}}},
		{name: "negative price", lines: []cart.Line{{ProductID: uuid.New(), Name: "Yuzu", UnitPrice: decimal.RequireFromString("-1"), Quantity: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupCheckout(t)
			_, err := f.svc.InitiateCheckout(context.Background(), CheckoutRequest{CartSessionID: "cart-1", Lines: tt.lines})

			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, 0, f.collab.calls())
		})
	}
}

func TestInitiateCheckout_CollaboratorFailure(t *testing.T) {
	f := setupCheckout(t)
	f.collab.err = errors.New("connection refused")
	ctx := context.Background()

	_, err := f.svc.InitiateCheckout(ctx, CheckoutRequest{CartSessionID: "cart-1", Lines: testLines(), IdempotencyKey: "key-1"})
	assert.ErrorIs(t, err, domain.ErrCheckoutUnavailable)

	cs, err := f.repo.GetCheckoutSessionByIdempotencyKey(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusFailed, cs.Status)
	assert.Nil(t, cs.RedirectURL)

	// the key replays its recorded outcome, without another attempt
	f.collab.err = nil
	_, err = f.svc.InitiateCheckout(ctx, CheckoutRequest{CartSessionID: "cart-1", Lines: testLines(), IdempotencyKey: "key-1"})
	assert.ErrorIs(t, err, domain.ErrCheckoutUnavailable)
	assert.Equal(t, 1, f.collab.calls())
}

// attachFailingStore loses the collaborator's reply on the way to the database.
type attachFailingStore struct {
	*repository.Repository
}

func (attachFailingStore) AttachExternalSession(context.Context, uuid.UUID, string, string) error {
	return errors.New("database is locked")
}

func TestInitiateCheckout_RecordFailureIsNotReplayedAsPending(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()
	svc := NewCheckoutService(attachFailingStore{f.repo}, f.collab, f.carts, CheckoutConfig{
		PublicBaseURL: "https://drinkaelo.com",
		Currency:      "cad",
	}, logger.Nop())

	_, err := svc.InitiateCheckout(ctx, CheckoutRequest{CartSessionID: "cart-1", Lines: testLines(), IdempotencyKey: "key-1"})
	require.Error(t, err)

	cs, err := f.repo.GetCheckoutSessionByIdempotencyKey(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusFailed, cs.Status)

	_, err = svc.InitiateCheckout(ctx, CheckoutRequest{CartSessionID: "cart-1", Lines: testLines(), IdempotencyKey: "key-1"})
	assert.ErrorIs(t, err, domain.ErrCheckoutUnavailable)
	assert.NotErrorIs(t, err, domain.ErrConflict)
}

func TestInitiateCheckout_IdempotencyKeyReplaysURL(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()

	first, err := f.svc.InitiateCheckout(ctx, CheckoutRequest{CartSessionID: "cart-1", Lines: testLines(), IdempotencyKey: "key-1"})
	require.NoError(t, err)

	again, err := f.svc.InitiateCheckout(ctx, CheckoutRequest{CartSessionID: "cart-1", Lines: testLines(), IdempotencyKey: "key-1"})
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, f.collab.calls())

	other, err := f.svc.InitiateCheckout(ctx, CheckoutRequest{CartSessionID: "cart-1", Lines: testLines(), IdempotencyKey: "key-2"})
	require.NoError(t, err)
	assert.NotEqual(t, first.CheckoutSessionID, other.CheckoutSessionID)
	assert.Equal(t, 2, f.collab.calls())
}

func TestCompleteRedirect_ClearsCartOnce(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()
	f.cartRepo.carts["cart-1"] = testLines()

	res, err := f.svc.InitiateCheckout(ctx, CheckoutRequest{CartSessionID: "cart-1", Lines: testLines()})
	require.NoError(t, err)

	cleared, err := f.svc.CompleteRedirect(ctx, "cart-1", res.CheckoutSessionID)
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.NotContains(t, f.cartRepo.carts, "cart-1")

	// a reload of the success page must not wipe the new cart
	f.cartRepo.carts["cart-1"] = testLines()[:1]
	cleared, err = f.svc.CompleteRedirect(ctx, "cart-1", res.CheckoutSessionID)
	require.NoError(t, err)
	assert.False(t, cleared)
	assert.Contains(t, f.cartRepo.carts, "cart-1")
}

func TestCompleteRedirect_RetriesAfterFailedClear(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()
	f.cartRepo.carts["cart-1"] = testLines()

	res, err := f.svc.InitiateCheckout(ctx, CheckoutRequest{CartSessionID: "cart-1", Lines: testLines()})
	require.NoError(t, err)

	f.cartRepo.err = errors.New("mongo: server selection timeout")
	cleared, err := f.svc.CompleteRedirect(ctx, "cart-1", res.CheckoutSessionID)
	require.Error(t, err)
	assert.False(t, cleared)
	assert.Contains(t, f.cartRepo.carts, "cart-1")

	f.cartRepo.err = nil
	cleared, err = f.svc.CompleteRedirect(ctx, "cart-1", res.CheckoutSessionID)
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.NotContains(t, f.cartRepo.carts, "cart-1")

	cleared, err = f.svc.CompleteRedirect(ctx, "cart-1", res.CheckoutSessionID)
	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestCompleteRedirect_OtherCartUntouched(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()
	f.cartRepo.carts["cart-2"] = testLines()

	res, err := f.svc.InitiateCheckout(ctx, CheckoutRequest{CartSessionID: "cart-1", Lines: testLines()})
	require.NoError(t, err)

	cleared, err := f.svc.CompleteRedirect(ctx, "cart-2", res.CheckoutSessionID)
	require.NoError(t, err)
	assert.False(t, cleared)
	assert.Contains(t, f.cartRepo.carts, "cart-2")

	_, err = f.svc.CompleteRedirect(ctx, "cart-1", uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
