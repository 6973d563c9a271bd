package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is emitted after an order and its items are persisted.
type OrderCreatedEvent struct {
	OrderID    string
	UserID     string
	TotalPrice decimal.Decimal
	ItemCount  int
	OccurredAt time.Time
}

func (OrderCreatedEvent) EventName() string { return "order.created" }

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalPrice: o.TotalPrice,
		ItemCount:  len(o.Items),
		OccurredAt: time.Now().UTC(),
	}
}

// OrderCancelledEvent is emitted when an order reaches CANCELLED.
type OrderCancelledEvent struct {
	OrderID       string
	UserID        string
	StockRestored bool
	OccurredAt    time.Time
}

func (OrderCancelledEvent) EventName() string { return "order.cancelled" }

func NewOrderCancelledEvent(o *Order, restored bool) OrderCancelledEvent {
	return OrderCancelledEvent{
		OrderID:       o.ID,
		UserID:        o.UserID,
		StockRestored: restored,
		OccurredAt:    time.Now().UTC(),
	}
}
