package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/marketplace-orders/internal/infrastructure/memory"
)

type fixedIDs struct{ id string }

func (f fixedIDs) NewID() string { return f.id }

func TestCatalogLifecycle(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog(memory.NewStore().Catalog(), fixedIDs{id: "generated"}, nil)

	p, err := c.Create(ctx, CreateProductInput{Name: "mouse", Price: decimal.RequireFromString("19.99"), Stock: 7})
	require.NoError(t, err)
	assert.Equal(t, "generated", p.ID)

	_, err = c.Create(ctx, CreateProductInput{ID: "generated", Name: "dup", Price: decimal.Zero})
	assert.ErrorIs(t, err, ErrConflict)

	repriced, err := c.Reprice(ctx, RepriceInput{ProductID: p.ID, Price: decimal.RequireFromString("24.50")})
	require.NoError(t, err)
	assert.Equal(t, "24.50", repriced.Price.StringFixed(2))
	assert.Equal(t, 7, repriced.Stock)

	got, err := c.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "mouse", got.Name)

	all, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCatalogValidation(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog(memory.NewStore().Catalog(), fixedIDs{id: "x"}, nil)

	tests := []struct {
		name string
		in   CreateProductInput
	}{
		{"missing name", CreateProductInput{Price: decimal.NewFromInt(1)}},
		{"negative price", CreateProductInput{Name: "a", Price: decimal.NewFromInt(-1)}},
		{"negative stock", CreateProductInput{Name: "a", Price: decimal.NewFromInt(1), Stock: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Create(ctx, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := c.Reprice(ctx, RepriceInput{ProductID: "x", Price: decimal.NewFromInt(-3)})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = c.Reprice(ctx, RepriceInput{ProductID: "ghost", Price: decimal.NewFromInt(3)})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Get(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
