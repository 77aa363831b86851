package domain

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_IsTerminal(t *testing.T) {
	terminal := map[OrderStatus]bool{
		OrderStatusDelivered: true,
		OrderStatusCancelled: true,
		OrderStatusRefunded:  true,
	}
	for _, s := range OrderStatuses {
		assert.Equal(t, terminal[s], s.IsTerminal(), s.String())
	}
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPaid, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusPending, OrderStatusRefunded, true},
		{OrderStatusShipped, OrderStatusCancelled, true},
		{OrderStatusPaid, OrderStatusPaid, true},
		{OrderStatusDelivered, OrderStatusDelivered, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusProcessing, false},
		{OrderStatusCancelled, OrderStatusRefunded, false},
		{OrderStatusDelivered, OrderStatusRefunded, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, s)

	_, err = ParseOrderStatus("shipped")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("ADMIN")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("OWNER")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "role", ve.Field)
}

func TestRole_AtLeast(t *testing.T) {
	assert.True(t, RoleSuperAdmin.AtLeast(RoleAdmin))
	assert.True(t, RoleAdmin.AtLeast(RoleAdmin))
	assert.False(t, RoleEditor.AtLeast(RoleAdmin))
	assert.False(t, Role("").AtLeast(RoleEditor))
	assert.Equal(t, 0, Role("GUEST").Rank())
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "gin-tonic", Slugify("Gin & Tonic"))
	assert.Equal(t, "aperitivo-spritz", Slugify("Aperitivo Spritz"))
	assert.Equal(t, "-caf-2-", Slugify(" Café 2!"))
}

func TestNewOrderNumber_Format(t *testing.T) {
	at := time.Date(2026, 1, 15, 23, 0, 0, 0, time.UTC)
	n := NewOrderNumber(at)
	assert.Regexp(t, regexp.MustCompile(`^AELO-20260115-[0-9A-F]{6}$`), n)
	assert.NotEqual(t, n, NewOrderNumber(at))
}

func TestOrder_ItemsTotal(t *testing.T) {
	price := decimal.RequireFromString("24.99")
	o := Order{Items: []OrderItem{
		{Quantity: 2, UnitPrice: price, Subtotal: price.Mul(decimal.NewFromInt(2))},
	}}
	assert.Equal(t, "49.98", o.ItemsTotal().StringFixed(2))
}

func TestNewPage(t *testing.T) {
	p := NewPage[int](nil, 41, 2, 20)
	assert.NotNil(t, p.Items)
	assert.Equal(t, 3, p.TotalPages)

	req := PageRequest{Page: 0, Limit: 0}.Normalize(50)
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 50, req.Limit)
	assert.Equal(t, 0, req.Offset())
	assert.Equal(t, 40, PageRequest{Page: 3, Limit: 20}.Offset())
}
