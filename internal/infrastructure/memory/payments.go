package memory

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
)

type paymentRepo struct {
	s *Store
	j *journal
}

func (r *paymentRepo) Insert(ctx context.Context, p *payment.Payment) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("payment repository: id is required")
	}

	r.s.paymentsMu.Lock()
	defer r.s.paymentsMu.Unlock()

	if _, exists := r.s.payments[p.ID]; exists {
		return payment.ErrConflict
	}
	key := gatewayKey{orderID: p.Gateway.OrderID, paymentID: p.Gateway.PaymentID}
	keyed := key.paymentID != ""
	if keyed {
		if _, exists := r.s.byGatewayRef[key]; exists {
			return fmt.Errorf("%w: gateway payment %s already recorded", payment.ErrConflict, key.paymentID)
		}
	}
	success := p.Status == payment.StatusSuccess
	if success {
		if _, exists := r.s.successByOrder[p.OrderID]; exists {
			return fmt.Errorf("%w: order %s already has a successful payment", payment.ErrConflict, p.OrderID)
		}
	}

	r.s.payments[p.ID] = p.Clone()
	r.s.paymentSeq = append(r.s.paymentSeq, p.ID)
	if keyed {
		r.s.byGatewayRef[key] = p.ID
	}
	firstForGatewayOrder := false
	if key.orderID != "" {
		if _, exists := r.s.byGatewayOrder[key.orderID]; !exists {
			r.s.byGatewayOrder[key.orderID] = p.ID
			firstForGatewayOrder = true
		}
	}
	if success {
		r.s.successByOrder[p.OrderID] = p.ID
	}

	id, orderID := p.ID, p.OrderID
	r.j.record(func() {
		r.s.paymentsMu.Lock()
		defer r.s.paymentsMu.Unlock()
		delete(r.s.payments, id)
		if keyed {
			delete(r.s.byGatewayRef, key)
		}
		if firstForGatewayOrder {
			delete(r.s.byGatewayOrder, key.orderID)
		}
		if success {
			delete(r.s.successByOrder, orderID)
		}
		for i := len(r.s.paymentSeq) - 1; i >= 0; i-- {
			if r.s.paymentSeq[i] == id {
				r.s.paymentSeq = append(r.s.paymentSeq[:i], r.s.paymentSeq[i+1:]...)
				break
			}
		}
	})
	return nil
}

func (r *paymentRepo) Get(ctx context.Context, id string) (*payment.Payment, error) {
	r.s.paymentsMu.RLock()
	defer r.s.paymentsMu.RUnlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *paymentRepo) List(ctx context.Context) ([]*payment.Payment, error) {
	r.s.paymentsMu.RLock()
	defer r.s.paymentsMu.RUnlock()
	out := make([]*payment.Payment, 0, len(r.s.paymentSeq))
	for _, id := range r.s.paymentSeq {
		out = append(out, r.s.payments[id].Clone())
	}
	return out, nil
}

func (r *paymentRepo) FindByGatewayRef(ctx context.Context, ref payment.GatewayRef) (*payment.Payment, error) {
	if ref.PaymentID == "" {
		return nil, payment.ErrNotFound
	}
	r.s.paymentsMu.RLock()
	defer r.s.paymentsMu.RUnlock()
	id, ok := r.s.byGatewayRef[gatewayKey{orderID: ref.OrderID, paymentID: ref.PaymentID}]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return r.s.payments[id].Clone(), nil
}

func (r *paymentRepo) FindByGatewayOrder(ctx context.Context, gatewayOrderID string) (*payment.Payment, error) {
	if gatewayOrderID == "" {
		return nil, payment.ErrNotFound
	}
	r.s.paymentsMu.RLock()
	defer r.s.paymentsMu.RUnlock()
	id, ok := r.s.byGatewayOrder[gatewayOrderID]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return r.s.payments[id].Clone(), nil
}

func (r *paymentRepo) FindSuccessByOrder(ctx context.Context, orderID string) (*payment.Payment, error) {
	r.s.paymentsMu.RLock()
	defer r.s.paymentsMu.RUnlock()
	id, ok := r.s.successByOrder[orderID]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return r.s.payments[id].Clone(), nil
}
