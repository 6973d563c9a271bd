package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/inventory"
)

type catalog struct{ s *Store }

func (c *catalog) Create(ctx context.Context, p *inventory.Product) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("catalog: id is required")
	}
	c.s.productsMu.Lock()
	defer c.s.productsMu.Unlock()
	if _, exists := c.s.products[p.ID]; exists {
		return inventory.ErrConflict
	}
	row := &productRow{p: *p, holds: make(map[string]int)}
	row.p.Held = 0
	c.s.products[p.ID] = row
	return nil
}

func (c *catalog) Get(ctx context.Context, id string) (*inventory.Product, error) {
	r, ok := c.s.row(id)
	if !ok {
		return nil, inventory.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.p
	return &p, nil
}

func (c *catalog) List(ctx context.Context) ([]*inventory.Product, error) {
	c.s.productsMu.RLock()
	rows := make([]*productRow, 0, len(c.s.products))
	for _, r := range c.s.products {
		rows = append(rows, r)
	}
	c.s.productsMu.RUnlock()

	out := make([]*inventory.Product, 0, len(rows))
	for _, r := range rows {
		r.mu.Lock()
		p := r.p
		r.mu.Unlock()
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *catalog) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (*inventory.Product, error) {
	if price.IsNegative() {
		return nil, inventory.ErrInvalidPrice
	}
	r, ok := c.s.row(id)
	if !ok {
		return nil, inventory.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p.Price = price
	r.p.UpdatedAt = time.Now().UTC()
	p := r.p
	return &p, nil
}
