package inventory

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("inventory: product not found")
	ErrInvalidQuantity = errors.New("inventory: quantity must be greater than zero")
	ErrInvalidPrice    = errors.New("inventory: price must be zero or greater")
	ErrOutOfStock      = errors.New("inventory: out of stock")
	ErrConflict        = errors.New("inventory: product already exists")
)

// StockError names the product that could not cover a request.
type StockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("inventory: out of stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrOutOfStock }

// Product is a purchasable stock unit. Stock and Held are owned by the Ledger.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Stock     int
	Held      int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewProduct(id, name string, price decimal.Decimal, stock int) (*Product, error) {
	if stock < 0 {
		return nil, ErrInvalidQuantity
	}
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	now := time.Now().UTC()
	return &Product{
		ID:        id,
		Name:      name,
		Price:     price,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Available is the stock not yet promised to a pending order.
func (p *Product) Available() int {
	return p.Stock - p.Held
}

// Line is a quantity of one product.
type Line struct {
	ProductID string
	Quantity  int
}

// Normalize merges lines of the same product and sorts them by product ID,
// which is also the lock order used by ledger implementations.
func Normalize(lines []Line) ([]Line, error) {
	merged := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		merged[l.ProductID] += l.Quantity
	}
	out := make([]Line, 0, len(merged))
	for id, qty := range merged {
		out = append(out, Line{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}
