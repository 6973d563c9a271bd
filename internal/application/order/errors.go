package order

import (
	"errors"
	"fmt"

	dominv "github.com/Zhima-Mochi/marketplace-orders/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
)

var (
	ErrNotFound               = domain.ErrNotFound
	ErrProductNotFound        = dominv.ErrNotFound
	ErrInsufficientStock      = errors.New("order: insufficient stock")
	ErrValidation             = errors.New("order: validation failed")
	ErrInvalidStateTransition = domain.ErrInvalidStateTransition
	ErrRepository             = errors.New("order: repository failure")
)

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, dominv.ErrNotFound):
		return err
	case errors.Is(err, dominv.ErrOutOfStock):
		return fmt.Errorf("%w: %w", ErrInsufficientStock, err)
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}

func newValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
