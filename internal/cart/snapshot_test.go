package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTripKeepsLines(t *testing.T) {
	s := New()
	a, b := product("A", "24.99"), product("B", "12.50")
	s.AddItem(a)
	s.AddItem(a)
	s.AddItem(b)

	data, err := s.MarshalSnapshot()
	require.NoError(t, err)

	restored, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, 3, restored.TotalItems())
	assert.Equal(t, "62.48", restored.TotalPrice().StringFixed(2))
	assert.Equal(t, a.ID, restored.Lines()[0].ProductID)
}

func TestSnapshot_EmptyCart(t *testing.T) {
	data, err := New().MarshalSnapshot()
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"lines":[]}`, string(data))
}

func TestUnmarshalSnapshot_CorruptLoadsEmpty(t *testing.T) {
	id := uuid.NewString()
	cases := map[string]string{
		"not json":          `{"version":1,"lines":[`,
		"wrong version":     `{"version":9,"lines":[]}`,
		"zero quantity":     `{"version":1,"lines":[{"product_id":"` + id + `","name":"x","unit_price":"1.00","quantity":0}]}`,
		"negative price":    `{"version":1,"lines":[{"product_id":"` + id + `","name":"x","unit_price":"-1.00","quantity":1}]}`,
		"missing product":   `{"version":1,"lines":[{"name":"x","unit_price":"1.00","quantity":1}]}`,
		"duplicate product": `{"version":1,"lines":[{"product_id":"` + id + `","unit_price":"1","quantity":1},{"product_id":"` + id + `","unit_price":"1","quantity":2}]}`,
		"bad price":         `{"version":1,"lines":[{"product_id":"` + id + `","unit_price":"abc","quantity":1}]}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(raw))
			assert.ErrorIs(t, err, ErrCorruptSnapshot)

			s := UnmarshalSnapshot([]byte(raw))
			require.NotNil(t, s)
			assert.True(t, s.IsEmpty())
			assert.Equal(t, 0, s.TotalItems())
		})
	}
}

func TestRestore_InvalidLinesLoadEmpty(t *testing.T) {
	good := Line{ProductID: uuid.New(), UnitPrice: decimal.NewFromInt(2), Quantity: 2}
	bad := Line{ProductID: uuid.New(), UnitPrice: decimal.NewFromInt(2), Quantity: -3}

	assert.Equal(t, 2, Restore([]Line{good}).TotalItems())
	assert.True(t, Restore([]Line{good, bad}).IsEmpty())
}
