package payment

import (
	"errors"
	"fmt"

	domorder "github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
)

var (
	ErrNotFound                   = dompayment.ErrNotFound
	ErrOrderNotFound              = domorder.ErrNotFound
	ErrValidation                 = errors.New("payment: validation failed")
	ErrAmountMismatch             = errors.New("payment: amount does not match order total")
	ErrInvalidSignature           = errors.New("payment: invalid gateway signature")
	ErrGatewayUnavailable         = errors.New("payment: gateway unavailable")
	ErrStockExhaustedAfterPayment = errors.New("payment: stock exhausted after payment")
	ErrAlreadyPaid                = errors.New("payment: order already paid")
	ErrOrderNotPayable            = errors.New("payment: order is not payable")
	ErrGatewayOrderMismatch       = errors.New("payment: gateway order belongs to another order")
	ErrRepository                 = errors.New("payment: repository failure")
)

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domorder.ErrNotFound):
		return ErrOrderNotFound
	case errors.Is(err, dompayment.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}

func newValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
