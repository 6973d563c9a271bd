package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/inventory"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: conflict")
	ErrNoItems                = errors.New("order: at least one item is required")
	ErrInvalidQuantity        = errors.New("order: quantity must be greater than zero")
	ErrInvalidStatus          = errors.New("order: unknown status")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
)

type Status string

const (
	StatusPending       Status = "PENDING"
	StatusPaid          Status = "PAID"
	StatusCancelled     Status = "CANCELLED"
	StatusPaymentFailed Status = "PAYMENT_FAILED"
)

// ParseStatus accepts any casing of a known status name.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusPaid, StatusCancelled, StatusPaymentFailed:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Item is a line of an order with its unit price frozen at creation.
type Item struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID            string
	UserID        string
	Items         []Item
	TotalPrice    decimal.Decimal
	Status        Status
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// New builds a PENDING order and computes its total once from the snapshotted prices.
func New(id, userID string, items []Item) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	total := decimal.Zero
	copied := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		total = total.Add(it.Subtotal())
		copied = append(copied, it)
	}

	now := time.Now().UTC()
	return &Order{
		ID:         id,
		UserID:     userID,
		Items:      copied,
		TotalPrice: total,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Lines returns the stock lines the order touches, merged per product.
func (o *Order) Lines() []inventory.Line {
	lines := make([]inventory.Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, inventory.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	merged, err := inventory.Normalize(lines)
	if err != nil {
		// items are validated in New
		return lines
	}
	return merged
}

// MarkPaid moves a pending order to PAID.
func (o *Order) MarkPaid() error {
	next, err := stateOf(o.Status).OnPaid(o)
	if err != nil {
		return err
	}
	o.apply(next)
	return nil
}

// MarkPaymentFailed records that money was captured but stock could not be committed.
func (o *Order) MarkPaymentFailed(reason string) error {
	next, err := stateOf(o.Status).OnPaymentFailed(o, reason)
	if err != nil {
		return err
	}
	o.apply(next)
	return nil
}

// Cancel moves the order to CANCELLED. restoreStock reports whether committed
// units must go back to the ledger; changed is false when already cancelled.
func (o *Order) Cancel() (restoreStock bool, changed bool, err error) {
	from := o.Status
	next, err := stateOf(from).OnCancel(o)
	if err != nil {
		return false, false, err
	}
	if next.Status() == from {
		return false, false, nil
	}
	o.apply(next)
	return from == StatusPaid, true, nil
}

// ForceStatus is the operator override; it skips the state machine.
func (o *Order) ForceStatus(s Status) {
	o.Status = s
	o.touch()
}

func (o *Order) CanPay() bool {
	return o.Status == StatusPending
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]Item(nil), o.Items...)
	return &c
}

func (o *Order) apply(s State) {
	o.Status = s.Status()
	o.touch()
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
