package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/inventory"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/store"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("plain")))
}

// Integration tests run against a disposable database named by POSTGRES_TEST_DSN.
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := Connect(ctx, dsn, 16)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))
	return NewStore(pool)
}

func seedProduct(t *testing.T, s *Store, stock int) string {
	t.Helper()
	id := "p-" + uuid.NewString()
	p, err := inventory.NewProduct(id, "widget", decimal.RequireFromString("12.50"), stock)
	require.NoError(t, err)
	require.NoError(t, s.Catalog().Create(context.Background(), p))
	return id
}

func TestLedgerHoldCommitRelease(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	pid := seedProduct(t, s, 3)
	orderID := uuid.NewString()
	lines := []inventory.Line{{ProductID: pid, Quantity: 2}}

	require.NoError(t, s.Ledger().Hold(ctx, orderID, lines))
	_, err := s.Ledger().CheckAndPrice(ctx, pid, 2)
	assert.ErrorIs(t, err, inventory.ErrOutOfStock)

	require.NoError(t, s.Ledger().Commit(ctx, orderID, lines))
	p, err := s.Catalog().Get(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)
	assert.Zero(t, p.Held)

	require.NoError(t, s.Ledger().Release(ctx, lines))
	p, err = s.Catalog().Get(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
}

func TestLedgerConcurrentCommit(t *testing.T) {
	s := testStore(t)
	pid := seedProduct(t, s, 5)

	var ok atomic.Int32
	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			err := s.Ledger().Commit(context.Background(), uuid.NewString(), []inventory.Line{{ProductID: pid, Quantity: 1}})
			if err == nil {
				ok.Add(1)
				return nil
			}
			if errors.Is(err, inventory.ErrOutOfStock) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(5), ok.Load())
}

func TestDoRollsBack(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	pid := seedProduct(t, s, 2)

	o, err := order.New(uuid.NewString(), "u1", []order.Item{{ProductID: pid, Quantity: 1, UnitPrice: decimal.RequireFromString("12.50")}})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Orders().Insert(ctx, o); err != nil {
			return err
		}
		if err := tx.Ledger().Hold(ctx, o.ID, o.Lines()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Orders().Get(ctx, o.ID)
	assert.ErrorIs(t, err, order.ErrNotFound)
	p, err := s.Catalog().Get(ctx, pid)
	require.NoError(t, err)
	assert.Zero(t, p.Held)
}

func TestOrderAndPaymentRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	pid := seedProduct(t, s, 2)

	o, err := order.New(uuid.NewString(), "u-"+uuid.NewString(), []order.Item{{ProductID: pid, Quantity: 2, UnitPrice: decimal.RequireFromString("12.50")}})
	require.NoError(t, err)
	require.NoError(t, s.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Orders().Insert(ctx, o)
	}))

	got, err := s.Orders().Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "25.00", got.TotalPrice.StringFixed(2))
	require.Len(t, got.Items, 1)

	mine, err := s.Orders().ListByUser(ctx, o.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	ref := payment.GatewayRef{OrderID: "gw-" + o.ID, PaymentID: "pay-1", Signature: "sig"}
	p, err := payment.NewSuccess(uuid.NewString(), o.ID, o.UserID, o.TotalPrice, payment.MethodRazorpay, ref)
	require.NoError(t, err)
	require.NoError(t, s.Payments().Insert(ctx, p))

	dup, err := payment.NewSuccess(uuid.NewString(), o.ID, o.UserID, o.TotalPrice, payment.MethodManual, payment.GatewayRef{})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Payments().Insert(ctx, dup), payment.ErrConflict)

	byRef, err := s.Payments().FindByGatewayRef(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byRef.ID)
	byGatewayOrder, err := s.Payments().FindByGatewayOrder(ctx, ref.OrderID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, byGatewayOrder.OrderID)

	piped := payment.GatewayRef{OrderID: "gw|" + o.ID, PaymentID: "pay|2"}
	failed, err := payment.NewFailed(uuid.NewString(), o.ID, o.UserID, o.TotalPrice, payment.MethodRazorpay, piped, "stock")
	require.NoError(t, err)
	require.NoError(t, s.Payments().Insert(ctx, failed))
	byRef, err = s.Payments().FindByGatewayRef(ctx, piped)
	require.NoError(t, err)
	assert.Equal(t, failed.ID, byRef.ID)
}
