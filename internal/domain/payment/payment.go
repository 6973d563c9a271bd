package payment

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("payment: not found")
	ErrConflict      = errors.New("payment: conflict")
	ErrInvalidAmount = errors.New("payment: amount must be greater than zero")
	ErrInvalidMethod = errors.New("payment: unknown method")
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

type Method string

const (
	MethodRazorpay Method = "RAZORPAY"
	MethodCard     Method = "CARD"
	MethodUPI      Method = "UPI"
	MethodWallet   Method = "WALLET"
	MethodManual   Method = "MANUAL"
)

// ParseMethod defaults an empty method to MANUAL.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case "":
		return MethodManual, nil
	case MethodRazorpay, MethodCard, MethodUPI, MethodWallet, MethodManual:
		return m, nil
	default:
		return "", ErrInvalidMethod
	}
}

// GatewayRef correlates a payment with the provider's records.
type GatewayRef struct {
	OrderID   string
	PaymentID string
	Signature string
}

// Payment is append-only: it is written once with its terminal status.
type Payment struct {
	ID            string
	OrderID       string
	UserID        string
	Amount        decimal.Decimal
	Method        Method
	Status        Status
	Gateway       GatewayRef
	FailureReason string
	PaidAt        time.Time
}

func newPayment(id, orderID, userID string, amount decimal.Decimal, method Method, ref GatewayRef) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return &Payment{
		ID:      id,
		OrderID: orderID,
		UserID:  userID,
		Amount:  amount,
		Method:  method,
		Gateway: ref,
		PaidAt:  time.Now().UTC(),
	}, nil
}

func NewSuccess(id, orderID, userID string, amount decimal.Decimal, method Method, ref GatewayRef) (*Payment, error) {
	p, err := newPayment(id, orderID, userID, amount, method, ref)
	if err != nil {
		return nil, err
	}
	p.Status = StatusSuccess
	return p, nil
}

func NewFailed(id, orderID, userID string, amount decimal.Decimal, method Method, ref GatewayRef, reason string) (*Payment, error) {
	p, err := newPayment(id, orderID, userID, amount, method, ref)
	if err != nil {
		return nil, err
	}
	p.Status = StatusFailed
	p.FailureReason = reason
	return p, nil
}

func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
