package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// CapturedEvent is emitted after a payment is applied to its order.
type CapturedEvent struct {
	PaymentID  string
	OrderID    string
	UserID     string
	Amount     decimal.Decimal
	OccurredAt time.Time
}

func (CapturedEvent) EventName() string { return "payment.captured" }

func NewCapturedEvent(p *Payment) CapturedEvent {
	return CapturedEvent{
		PaymentID:  p.ID,
		OrderID:    p.OrderID,
		UserID:     p.UserID,
		Amount:     p.Amount,
		OccurredAt: time.Now().UTC(),
	}
}

// StockExhaustedEvent is emitted when money was taken but stock could not be
// committed. An operator has to refund or restock.
type StockExhaustedEvent struct {
	PaymentID        string
	OrderID          string
	UserID           string
	Amount           decimal.Decimal
	GatewayPaymentID string
	Reason           string
	OccurredAt       time.Time
}

func (StockExhaustedEvent) EventName() string { return "payment.stock_exhausted" }

func NewStockExhaustedEvent(p *Payment) StockExhaustedEvent {
	return StockExhaustedEvent{
		PaymentID:        p.ID,
		OrderID:          p.OrderID,
		UserID:           p.UserID,
		Amount:           p.Amount,
		GatewayPaymentID: p.Gateway.PaymentID,
		Reason:           p.FailureReason,
		OccurredAt:       time.Now().UTC(),
	}
}
