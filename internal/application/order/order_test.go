package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	dominv "github.com/Zhima-Mochi/marketplace-orders/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/marketplace-orders/internal/domain/outbox"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/store"
	"github.com/Zhima-Mochi/marketplace-orders/internal/infrastructure/memory"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() string { return fmt.Sprintf("id-%d", s.n.Add(1)) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type fixture struct {
	st     *memory.Store
	pub    *recordingPublisher
	create *CreateOrderUseCase
	cancel *CancelOrderUseCase
	status *SetOrderStatusUseCase
	query  *Queries
}

func newFixture(t *testing.T, products map[string]int) *fixture {
	t.Helper()
	st := memory.NewStore()
	for id, stock := range products {
		p, err := dominv.NewProduct(id, "product "+id, decimal.RequireFromString("250.00"), stock)
		require.NoError(t, err)
		require.NoError(t, st.Catalog().Create(context.Background(), p))
	}
	locker := memory.NewLocker()
	pub := &recordingPublisher{}
	return &fixture{
		st:     st,
		pub:    pub,
		create: NewCreateOrderUseCase(st, &seqIDs{}, pub, nil),
		cancel: NewCancelOrderUseCase(st, locker, pub, nil),
		status: NewSetOrderStatusUseCase(st, locker, nil),
		query:  NewQueries(st.Orders(), nil),
	}
}

func (f *fixture) product(t *testing.T, id string) *dominv.Product {
	t.Helper()
	p, err := f.st.Catalog().Get(context.Background(), id)
	require.NoError(t, err)
	return p
}

// pay commits the order's stock and marks it PAID, as a capture would.
func (f *fixture) pay(t *testing.T, orderID string) {
	t.Helper()
	err := f.st.Do(context.Background(), func(ctx context.Context, tx store.Tx) error {
		o, err := tx.Orders().Get(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.MarkPaid(); err != nil {
			return err
		}
		if err := tx.Orders().Update(ctx, o); err != nil {
			return err
		}
		return tx.Ledger().Commit(ctx, o.ID, o.Lines())
	})
	require.NoError(t, err)
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t, map[string]int{"p1": 5, "p2": 5})
	ctx := context.Background()

	o, err := f.create.Execute(ctx, CreateOrderInput{UserID: "u1", Items: []ItemInput{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p2", Quantity: 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, "500.00", o.TotalPrice.StringFixed(2))
	require.Len(t, o.Items, 2)

	stored, err := f.query.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalPrice.Equal(o.TotalPrice))

	p1 := f.product(t, "p1")
	assert.Equal(t, 5, p1.Stock, "creation never decrements stock")
	assert.Equal(t, 1, p1.Held)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, "order.created", f.pub.events[0].EventName())
}

func TestCreateOrderPriceSnapshot(t *testing.T) {
	f := newFixture(t, map[string]int{"p1": 5})
	ctx := context.Background()

	o, err := f.create.Execute(ctx, CreateOrderInput{UserID: "u1", Items: []ItemInput{{ProductID: "p1", Quantity: 2}}})
	require.NoError(t, err)

	_, err = f.st.Catalog().UpdatePrice(ctx, "p1", decimal.NewFromInt(1))
	require.NoError(t, err)

	items, err := f.query.Items(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "250.00", items[0].UnitPrice.StringFixed(2))
}

func TestCreateOrderAggregatesQuantities(t *testing.T) {
	f := newFixture(t, map[string]int{"p1": 3})

	_, err := f.create.Execute(context.Background(), CreateOrderInput{UserID: "u1", Items: []ItemInput{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p1", Quantity: 2},
	}})
	require.ErrorIs(t, err, ErrInsufficientStock)
	var se *dominv.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "p1", se.ProductID)

	all, err := f.query.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Zero(t, f.product(t, "p1").Held)
	assert.Empty(t, f.pub.events)
}

func TestCreateOrderKeepsRequestedItems(t *testing.T) {
	f := newFixture(t, map[string]int{"p1": 5, "p2": 5})
	ctx := context.Background()

	o, err := f.create.Execute(ctx, CreateOrderInput{UserID: "u1", Items: []ItemInput{
		{ProductID: "p2", Quantity: 1},
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p2", Quantity: 2},
	}})
	require.NoError(t, err)

	items, err := f.query.Items(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"p2", "p1", "p2"}, []string{items[0].ProductID, items[1].ProductID, items[2].ProductID})
	assert.Equal(t, []int{1, 1, 2}, []int{items[0].Quantity, items[1].Quantity, items[2].Quantity})
	assert.True(t, items[2].UnitPrice.Equal(items[0].UnitPrice))

	assert.Equal(t, 3, f.product(t, "p2").Held)
	assert.Equal(t, 1, f.product(t, "p1").Held)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	f := newFixture(t, map[string]int{"p1": 3})
	_, err := f.create.Execute(context.Background(), CreateOrderInput{UserID: "u1", Items: []ItemInput{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "ghost", Quantity: 1},
	}})
	require.ErrorIs(t, err, ErrProductNotFound)
	assert.Zero(t, f.product(t, "p1").Held)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t, map[string]int{"p1": 3})
	tests := []struct {
		name string
		in   CreateOrderInput
	}{
		{"missing user", CreateOrderInput{Items: []ItemInput{{ProductID: "p1", Quantity: 1}}}},
		{"no items", CreateOrderInput{UserID: "u1"}},
		{"missing product", CreateOrderInput{UserID: "u1", Items: []ItemInput{{Quantity: 1}}}},
		{"zero quantity", CreateOrderInput{UserID: "u1", Items: []ItemInput{{ProductID: "p1", Quantity: 0}}}},
		{"negative quantity", CreateOrderInput{UserID: "u1", Items: []ItemInput{{ProductID: "p1", Quantity: -2}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.create.Execute(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateOrderIgnoresPublishFailure(t *testing.T) {
	f := newFixture(t, map[string]int{"p1": 1})
	f.pub.err = errors.New("bus down")

	o, err := f.create.Execute(context.Background(), CreateOrderInput{UserID: "u1", Items: []ItemInput{{ProductID: "p1", Quantity: 1}}})
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
}

func TestConcurrentCreateForLastUnit(t *testing.T) {
	f := newFixture(t, map[string]int{"p1": 1})

	var won atomic.Int32
	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := f.create.Execute(context.Background(), CreateOrderInput{
				UserID: fmt.Sprintf("u%d", i),
				Items:  []ItemInput{{ProductID: "p1", Quantity: 1}},
			})
			switch {
			case err == nil:
				won.Add(1)
				return nil
			case errors.Is(err, ErrInsufficientStock):
				return nil
			default:
				return err
			}
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), won.Load())
	assert.Equal(t, 1, f.product(t, "p1").Held)
}

func TestCancelPendingOrder(t *testing.T) {
	f := newFixture(t, map[string]int{"p1": 2})
	ctx := context.Background()
	o, err := f.create.Execute(ctx, CreateOrderInput{UserID: "u1", Items: []ItemInput{{ProductID: "p1", Quantity: 2}}})
	require.NoError(t, err)

	res, err := f.cancel.Execute(ctx, CancelOrderInput{OrderID: o.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, res.Order.Status)
	assert.False(t, res.StockRestored)

	p := f.product(t, "p1")
	assert.Equal(t, 2, p.Stock)
	assert.Zero(t, p.Held)

	again, err := f.cancel.Execute(ctx, CancelOrderInput{OrderID: o.ID})
	require.NoError(t, err)
	assert.True(t, again.AlreadyCancelled)
	assert.Equal(t, 2, f.product(t, "p1").Stock)
}

func TestCancelPaidOrderRestoresStock(t *testing.T) {
	f := newFixture(t, map[string]int{"p1": 3})
	ctx := context.Background()
	o, err := f.create.Execute(ctx, CreateOrderInput{UserID: "u1", Items: []ItemInput{{ProductID: "p1", Quantity: 2}}})
	require.NoError(t, err)
	f.pay(t, o.ID)
	require.Equal(t, 1, f.product(t, "p1").Stock)

	res, err := f.cancel.Execute(ctx, CancelOrderInput{OrderID: o.ID})
	require.NoError(t, err)
	assert.True(t, res.StockRestored)
	assert.Equal(t, 3, f.product(t, "p1").Stock)

	// a second cancel must not restore twice
	_, err = f.cancel.Execute(ctx, CancelOrderInput{OrderID: o.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, f.product(t, "p1").Stock)

	last := f.pub.events[len(f.pub.events)-1]
	cancelled, ok := last.(domain.OrderCancelledEvent)
	require.True(t, ok)
	assert.True(t, cancelled.StockRestored)
}

func TestConcurrentCancelRestoresOnce(t *testing.T) {
	f := newFixture(t, map[string]int{"p1": 4})
	ctx := context.Background()
	o, err := f.create.Execute(ctx, CreateOrderInput{UserID: "u1", Items: []ItemInput{{ProductID: "p1", Quantity: 4}}})
	require.NoError(t, err)
	f.pay(t, o.ID)

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := f.cancel.Execute(ctx, CancelOrderInput{OrderID: o.ID})
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 4, f.product(t, "p1").Stock)
}

func TestCancelUnknownOrder(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.cancel.Execute(context.Background(), CancelOrderInput{OrderID: "nope"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetOrderStatus(t *testing.T) {
	f := newFixture(t, map[string]int{"p1": 2})
	ctx := context.Background()
	o, err := f.create.Execute(ctx, CreateOrderInput{UserID: "u1", Items: []ItemInput{{ProductID: "p1", Quantity: 1}}})
	require.NoError(t, err)

	_, err = f.status.Execute(ctx, SetOrderStatusInput{OrderID: o.ID, Status: "SHIPPED"})
	require.ErrorIs(t, err, ErrValidation)

	updated, err := f.status.Execute(ctx, SetOrderStatusInput{OrderID: o.ID, Status: "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, updated.Status)

	p := f.product(t, "p1")
	assert.Equal(t, 2, p.Stock, "override never moves stock")
	assert.Zero(t, p.Held)

	_, err = f.status.Execute(ctx, SetOrderStatusInput{OrderID: "nope", Status: "PAID"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueries(t *testing.T) {
	f := newFixture(t, map[string]int{"p1": 10})
	ctx := context.Background()
	for _, u := range []string{"u1", "u2", "u1"} {
		_, err := f.create.Execute(ctx, CreateOrderInput{UserID: u, Items: []ItemInput{{ProductID: "p1", Quantity: 1}}})
		require.NoError(t, err)
	}

	mine, err := f.query.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := f.query.ListByUser(ctx, "u9")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.query.ListByUser(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)

	all, err := f.query.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.query.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.query.Items(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
