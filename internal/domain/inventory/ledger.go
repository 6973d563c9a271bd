package inventory

import (
	"context"

	"github.com/shopspring/decimal"
)

// Ledger is the authoritative stock count. Every method is atomic per product
// and multi-line methods apply all lines or none.
type Ledger interface {
	// CheckAndPrice returns the current unit price when quantity units are available.
	// It never mutates stock.
	CheckAndPrice(ctx context.Context, productID string, quantity int) (decimal.Decimal, error)
	// Hold sets aside available units for a pending order.
	Hold(ctx context.Context, orderID string, lines []Line) error
	// ReleaseHold drops whatever the order still holds. Missing holds are not an error.
	ReleaseHold(ctx context.Context, orderID string) error
	// Commit decrements stock, consuming the order's hold for each line when present.
	Commit(ctx context.Context, orderID string, lines []Line) error
	// Release puts committed units back into stock.
	Release(ctx context.Context, lines []Line) error
}

// Catalog is the read side of products plus the admin writes that never touch stock.
type Catalog interface {
	Create(ctx context.Context, p *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (*Product, error)
}
