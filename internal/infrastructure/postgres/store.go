package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/inventory"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/store"
)

var _ store.Store = (*Store)(nil)

// Store persists aggregates in PostgreSQL. Units of work map to transactions;
// rows read inside one are locked FOR UPDATE until commit.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Orders() order.Repository     { return &orderRepo{q: s.pool} }
func (s *Store) Payments() payment.Repository { return &paymentRepo{q: s.pool} }
func (s *Store) Ledger() inventory.Ledger     { return &ledger{s: s} }
func (s *Store) Catalog() inventory.Catalog   { return &catalog{q: s.pool} }

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	pgtx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = pgtx.Rollback(ctx) }()

	if err := fn(ctx, &tx{s: s, q: pgtx}); err != nil {
		return err
	}
	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

type tx struct {
	s *Store
	q pgx.Tx
}

func (t *tx) Orders() order.Repository     { return &orderRepo{q: t.q, lock: true} }
func (t *tx) Payments() payment.Repository { return &paymentRepo{q: t.q} }
func (t *tx) Ledger() inventory.Ledger     { return &ledger{s: t.s, tx: t.q} }
