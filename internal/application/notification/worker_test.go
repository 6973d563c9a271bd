package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domnotify "github.com/Zhima-Mochi/marketplace-orders/internal/domain/notification"
	domorder "github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/marketplace-orders/internal/domain/outbox"
	dompayment "github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
)

type sent struct {
	userID, message string
	typ             domnotify.Type
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, userID, message string, typ domnotify.Type) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{userID, message, typ})
	return n.err
}

type fakeSubscriber struct {
	handlers map[string]domoutbox.Handler
}

func (s *fakeSubscriber) Subscribe(name string, h domoutbox.Handler) {
	s.handlers[name] = h
}

func TestWorkerSubscribesToEvents(t *testing.T) {
	sub := &fakeSubscriber{handlers: map[string]domoutbox.Handler{}}
	New(sub, &recordingNotifier{}, 0, nil).Start()

	for _, name := range []string{"order.created", "order.cancelled", "payment.captured", "payment.stock_exhausted"} {
		assert.Contains(t, sub.handlers, name)
	}
}

func TestWorkerMessages(t *testing.T) {
	tests := []struct {
		name    string
		event   domoutbox.Event
		message string
		typ     domnotify.Type
	}{
		{
			name:    "created",
			event:   domorder.OrderCreatedEvent{OrderID: "o1", UserID: "u1"},
			message: "Order #o1 placed successfully!",
			typ:     domnotify.TypeInfo,
		},
		{
			name:    "cancelled after payment",
			event:   domorder.OrderCancelledEvent{OrderID: "o1", UserID: "u1", StockRestored: true},
			message: "Order #o1 has been cancelled. Your payment will be refunded.",
			typ:     domnotify.TypeInfo,
		},
		{
			name:    "captured",
			event:   dompayment.CapturedEvent{OrderID: "o1", UserID: "u1", Amount: decimal.NewFromInt(500)},
			message: "Payment of 500.00 received for order #o1.",
			typ:     domnotify.TypeSuccess,
		},
		{
			name:    "stock exhausted",
			event:   dompayment.StockExhaustedEvent{OrderID: "o1", UserID: "u1"},
			message: "Payment for order #o1 was received but the items are no longer available. A refund will follow.",
			typ:     domnotify.TypeWarning,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &recordingNotifier{}
			w := New(nil, n, 0, nil)
			require.NoError(t, w.handle(context.Background(), tt.event))
			require.Len(t, n.sent, 1)
			assert.Equal(t, "u1", n.sent[0].userID)
			assert.Equal(t, tt.message, n.sent[0].message)
			assert.Equal(t, tt.typ, n.sent[0].typ)
		})
	}
}

func TestWorkerReturnsDeliveryError(t *testing.T) {
	n := &recordingNotifier{err: errors.New("down")}
	w := New(nil, n, 0, nil)
	err := w.handle(context.Background(), domorder.OrderCreatedEvent{OrderID: "o1", UserID: "u1"})
	assert.Error(t, err)
}

type otherEvent struct{}

func (otherEvent) EventName() string { return "other" }

func TestWorkerIgnoresUnknownEvents(t *testing.T) {
	n := &recordingNotifier{}
	w := New(nil, n, 0, nil)
	require.NoError(t, w.handle(context.Background(), otherEvent{}))
	require.NoError(t, w.handle(context.Background(), domorder.OrderCreatedEvent{OrderID: "o1"}))
	assert.Empty(t, n.sent)
}
