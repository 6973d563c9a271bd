package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/inventory"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps every aggregate in process memory.
//
// Writes made inside Do apply immediately and are journaled; a failed unit
// replays the journal backwards. Other callers can observe those writes before
// the unit finishes, so callers serialize conflicting units with a Locker.
type Store struct {
	productsMu sync.RWMutex
	products   map[string]*productRow

	ordersMu sync.RWMutex
	orders   map[string]*order.Order
	orderSeq []string

	paymentsMu     sync.RWMutex
	payments       map[string]*payment.Payment
	paymentSeq     []string
	byGatewayRef   map[gatewayKey]string
	byGatewayOrder map[string]string
	successByOrder map[string]string
}

type gatewayKey struct{ orderID, paymentID string }

func NewStore() *Store {
	return &Store{
		products:       make(map[string]*productRow),
		orders:         make(map[string]*order.Order),
		payments:       make(map[string]*payment.Payment),
		byGatewayRef:   make(map[gatewayKey]string),
		byGatewayOrder: make(map[string]string),
		successByOrder: make(map[string]string),
	}
}

func (s *Store) Orders() order.Repository     { return &orderRepo{s: s} }
func (s *Store) Payments() payment.Repository { return &paymentRepo{s: s} }
func (s *Store) Ledger() inventory.Ledger     { return &ledger{s: s} }
func (s *Store) Catalog() inventory.Catalog   { return &catalog{s: s} }

// Do runs fn against a journaled view of the store. Every write is undone
// when fn fails or ctx is done once fn returns.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j := &journal{}
	t := &tx{s: s, j: j}
	if err := fn(ctx, t); err != nil {
		j.rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		j.rollback()
		return err
	}
	return nil
}

type tx struct {
	s *Store
	j *journal
}

func (t *tx) Orders() order.Repository     { return &orderRepo{s: t.s, j: t.j} }
func (t *tx) Payments() payment.Repository { return &paymentRepo{s: t.s, j: t.j} }
func (t *tx) Ledger() inventory.Ledger     { return &ledger{s: t.s, j: t.j} }

// journal collects undo steps. A nil journal means autocommit.
type journal struct {
	mu   sync.Mutex
	undo []func()
}

func (j *journal) record(fn func()) {
	if j == nil {
		return
	}
	j.mu.Lock()
	j.undo = append(j.undo, fn)
	j.mu.Unlock()
}

func (j *journal) rollback() {
	j.mu.Lock()
	steps := j.undo
	j.undo = nil
	j.mu.Unlock()
	for i := len(steps) - 1; i >= 0; i-- {
		steps[i]()
	}
}
