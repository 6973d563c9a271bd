package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/inventory"
)

// productRow is the unit of locking. Different products never contend.
type productRow struct {
	mu    sync.Mutex
	p     inventory.Product
	holds map[string]int // orderID -> held units
}

func (s *Store) row(id string) (*productRow, bool) {
	s.productsMu.RLock()
	defer s.productsMu.RUnlock()
	r, ok := s.products[id]
	return r, ok
}

// lockRows locks the rows for the given (sorted) lines in order.
func (s *Store) lockRows(lines []inventory.Line) ([]*productRow, func(), error) {
	rows := make([]*productRow, 0, len(lines))
	for _, l := range lines {
		r, ok := s.row(l.ProductID)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", inventory.ErrNotFound, l.ProductID)
		}
		rows = append(rows, r)
	}
	for _, r := range rows {
		r.mu.Lock()
	}
	return rows, func() {
		for i := len(rows) - 1; i >= 0; i-- {
			rows[i].mu.Unlock()
		}
	}, nil
}

type ledger struct {
	s *Store
	j *journal
}

func (l *ledger) CheckAndPrice(ctx context.Context, productID string, quantity int) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, inventory.ErrInvalidQuantity
	}
	r, ok := l.s.row(productID)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", inventory.ErrNotFound, productID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if avail := r.p.Available(); avail < quantity {
		return decimal.Zero, &inventory.StockError{ProductID: productID, Requested: quantity, Available: avail}
	}
	return r.p.Price, nil
}

func (l *ledger) Hold(ctx context.Context, orderID string, lines []inventory.Line) error {
	lines, err := inventory.Normalize(lines)
	if err != nil {
		return err
	}
	rows, unlock, err := l.s.lockRows(lines)
	if err != nil {
		return err
	}
	defer unlock()

	for i, ln := range lines {
		if avail := rows[i].p.Available(); avail < ln.Quantity {
			return &inventory.StockError{ProductID: ln.ProductID, Requested: ln.Quantity, Available: avail}
		}
	}
	for i, ln := range lines {
		rows[i].addHold(orderID, ln.Quantity)
		r, q := rows[i], ln.Quantity
		l.j.record(func() {
			r.mu.Lock()
			r.addHold(orderID, -q)
			r.mu.Unlock()
		})
	}
	return nil
}

func (l *ledger) ReleaseHold(ctx context.Context, orderID string) error {
	l.s.productsMu.RLock()
	ids := make([]string, 0, len(l.s.products))
	for id := range l.s.products {
		ids = append(ids, id)
	}
	l.s.productsMu.RUnlock()
	sort.Strings(ids)

	for _, id := range ids {
		r, _ := l.s.row(id)
		r.mu.Lock()
		q := r.holds[orderID]
		r.addHold(orderID, -q)
		r.mu.Unlock()
		if q > 0 {
			l.j.record(func() {
				r.mu.Lock()
				r.addHold(orderID, q)
				r.mu.Unlock()
			})
		}
	}
	return nil
}

func (l *ledger) Commit(ctx context.Context, orderID string, lines []inventory.Line) error {
	lines, err := inventory.Normalize(lines)
	if err != nil {
		return err
	}
	if err := l.commit(orderID, lines); err != nil {
		return err
	}
	// a committed order keeps no hold on products it did not list
	return l.ReleaseHold(ctx, orderID)
}

func (l *ledger) commit(orderID string, lines []inventory.Line) error {
	rows, unlock, err := l.s.lockRows(lines)
	if err != nil {
		return err
	}
	defer unlock()

	consumed := make([]int, len(lines))
	for i, ln := range lines {
		r := rows[i]
		held := min(r.holds[orderID], ln.Quantity)
		// units the order already holds count as available to it
		if avail := r.p.Available() + held; avail < ln.Quantity {
			return &inventory.StockError{ProductID: ln.ProductID, Requested: ln.Quantity, Available: avail}
		}
		consumed[i] = held
	}

	now := time.Now().UTC()
	for i, ln := range lines {
		r, q, c := rows[i], ln.Quantity, consumed[i]
		prevUpdated := r.p.UpdatedAt
		r.addHold(orderID, -c)
		r.p.Stock -= q
		r.p.UpdatedAt = now
		l.j.record(func() {
			r.mu.Lock()
			r.p.Stock += q
			r.addHold(orderID, c)
			r.p.UpdatedAt = prevUpdated
			r.mu.Unlock()
		})
	}
	return nil
}

func (l *ledger) Release(ctx context.Context, lines []inventory.Line) error {
	lines, err := inventory.Normalize(lines)
	if err != nil {
		return err
	}
	rows, unlock, err := l.s.lockRows(lines)
	if err != nil {
		return err
	}
	defer unlock()

	now := time.Now().UTC()
	for i, ln := range lines {
		r, q := rows[i], ln.Quantity
		prevUpdated := r.p.UpdatedAt
		r.p.Stock += q
		r.p.UpdatedAt = now
		l.j.record(func() {
			r.mu.Lock()
			r.p.Stock -= q
			r.p.UpdatedAt = prevUpdated
			r.mu.Unlock()
		})
	}
	return nil
}

// addHold must be called with r.mu held.
func (r *productRow) addHold(orderID string, delta int) {
	if delta == 0 {
		return
	}
	r.holds[orderID] += delta
	r.p.Held += delta
	if r.holds[orderID] <= 0 {
		delete(r.holds, orderID)
	}
}
