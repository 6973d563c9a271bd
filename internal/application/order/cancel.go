package order

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/marketplace-orders/internal/application"
	domain "github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/marketplace-orders/internal/domain/outbox"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/store"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
)

const useCaseOrderCancel = "order.cancel"

type CancelOrderInput struct {
	OrderID string
}

type CancelOrderResult struct {
	Order         *domain.Order
	StockRestored bool
	// AlreadyCancelled is true when the call was a no-op.
	AlreadyCancelled bool
}

var _ application.UseCase[CancelOrderInput, *CancelOrderResult] = (*CancelOrderUseCase)(nil)

// CancelOrderUseCase cancels an order, returning committed stock when it had been paid.
type CancelOrderUseCase struct {
	uow       store.UnitOfWork
	locker    store.Locker
	publisher domoutbox.Publisher
	in        application.Instruments
}

func NewCancelOrderUseCase(uow store.UnitOfWork, locker store.Locker, publisher domoutbox.Publisher, tel observability.Observability) *CancelOrderUseCase {
	return &CancelOrderUseCase{
		uow:       uow,
		locker:    locker,
		publisher: publisher,
		in:        application.NewInstruments(tel, orderService),
	}
}

func (uc *CancelOrderUseCase) Execute(ctx context.Context, cmd CancelOrderInput) (_ *CancelOrderResult, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseOrderCancel, "CancelOrder", attribute.String("order.id", cmd.OrderID))
	defer func() { run.End(err) }()

	if cmd.OrderID == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return nil, newValidation("order id is required")
	}

	unlock, err := uc.locker.Lock(ctx, LockKey(cmd.OrderID))
	if err != nil {
		run.Fail("LOCK_FAILED")
		return nil, err
	}
	defer unlock()

	res := &CancelOrderResult{}
	err = uc.uow.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		o, err := tx.Orders().Get(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		restore, changed, err := o.Cancel()
		if err != nil {
			return err
		}
		res.Order = o
		if !changed {
			res.AlreadyCancelled = true
			return nil
		}
		if restore {
			if err := tx.Ledger().Release(ctx, o.Lines()); err != nil {
				return err
			}
			res.StockRestored = true
		} else if err := tx.Ledger().ReleaseHold(ctx, o.ID); err != nil {
			return err
		}
		return tx.Orders().Update(ctx, o)
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			run.Fail("ORDER_NOT_FOUND")
		case errors.Is(err, domain.ErrInvalidStateTransition):
			run.Fail("STATE_TRANSITION_FAILED")
			return nil, err
		default:
			run.Fail("CANCEL_FAILED")
		}
		return nil, wrapRepositoryError(err)
	}

	run.Field("stock_restored", res.StockRestored)
	if res.AlreadyCancelled {
		run.Status = "ALREADY_CANCELLED"
		return res, nil
	}
	if pubErr := uc.in.Publish(ctx, uc.publisher, domain.NewOrderCancelledEvent(res.Order, res.StockRestored)); pubErr != nil {
		run.Status = "EVENT_PUBLISH_FAILED"
	}
	return res, nil
}
