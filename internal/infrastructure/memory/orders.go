package memory

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
)

type orderRepo struct {
	s *Store
	j *journal
}

func (r *orderRepo) Insert(ctx context.Context, o *order.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.s.ordersMu.Lock()
	defer r.s.ordersMu.Unlock()

	if _, exists := r.s.orders[o.ID]; exists {
		return order.ErrConflict
	}
	r.s.orders[o.ID] = o.Clone()
	r.s.orderSeq = append(r.s.orderSeq, o.ID)

	id := o.ID
	r.j.record(func() {
		r.s.ordersMu.Lock()
		defer r.s.ordersMu.Unlock()
		delete(r.s.orders, id)
		for i := len(r.s.orderSeq) - 1; i >= 0; i-- {
			if r.s.orderSeq[i] == id {
				r.s.orderSeq = append(r.s.orderSeq[:i], r.s.orderSeq[i+1:]...)
				break
			}
		}
	})
	return nil
}

func (r *orderRepo) Get(ctx context.Context, id string) (*order.Order, error) {
	r.s.ordersMu.RLock()
	defer r.s.ordersMu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *orderRepo) Update(ctx context.Context, o *order.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.s.ordersMu.Lock()
	defer r.s.ordersMu.Unlock()

	prev, exists := r.s.orders[o.ID]
	if !exists {
		return order.ErrNotFound
	}
	r.s.orders[o.ID] = o.Clone()

	r.j.record(func() {
		r.s.ordersMu.Lock()
		r.s.orders[prev.ID] = prev
		r.s.ordersMu.Unlock()
	})
	return nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	return r.list(func(o *order.Order) bool { return o.UserID == userID }), nil
}

func (r *orderRepo) List(ctx context.Context) ([]*order.Order, error) {
	return r.list(func(*order.Order) bool { return true }), nil
}

// list returns matches in creation order.
func (r *orderRepo) list(match func(*order.Order) bool) []*order.Order {
	r.s.ordersMu.RLock()
	defer r.s.ordersMu.RUnlock()

	out := make([]*order.Order, 0)
	for _, id := range r.s.orderSeq {
		if o := r.s.orders[id]; o != nil && match(o) {
			out = append(out, o.Clone())
		}
	}
	return out
}
