package store

import (
	"context"

	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/inventory"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
)

// Tx exposes repositories bound to one unit of work.
type Tx interface {
	Orders() order.Repository
	Payments() payment.Repository
	Ledger() inventory.Ledger
}

// UnitOfWork runs fn atomically: every write made through tx is applied, or
// none is when fn returns an error or ctx ends before commit.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Store is the persistence root. Its Tx methods run outside any unit of work.
type Store interface {
	Tx
	UnitOfWork
	Catalog() inventory.Catalog
}

// Locker serializes work on one key, typically an order ID.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
