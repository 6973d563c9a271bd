package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMergesAndSorts(t *testing.T) {
	lines, err := Normalize([]Line{
		{ProductID: "b", Quantity: 1},
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []Line{{ProductID: "a", Quantity: 2}, {ProductID: "b", Quantity: 4}}, lines)
}

func TestNormalizeRejectsNonPositive(t *testing.T) {
	_, err := Normalize([]Line{{ProductID: "a", Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestNewProduct(t *testing.T) {
	tests := []struct {
		name  string
		price decimal.Decimal
		stock int
		err   error
	}{
		{name: "ok", price: decimal.RequireFromString("9.99"), stock: 3},
		{name: "negative stock", price: decimal.Zero, stock: -1, err: ErrInvalidQuantity},
		{name: "negative price", price: decimal.NewFromInt(-1), stock: 1, err: ErrInvalidPrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProduct("p1", "Seeds", tt.price, tt.stock)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.stock, p.Available())
		})
	}
}
