package order

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/marketplace-orders/internal/application"
	domain "github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/store"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
)

const useCaseOrderSetStatus = "order.set_status"

type SetOrderStatusInput struct {
	OrderID string
	Status  string
}

var _ application.UseCase[SetOrderStatusInput, *domain.Order] = (*SetOrderStatusUseCase)(nil)

// SetOrderStatusUseCase is the operator override. It never moves stock; an
// order forced out of PENDING gives up its hold.
type SetOrderStatusUseCase struct {
	uow    store.UnitOfWork
	locker store.Locker
	in     application.Instruments
}

func NewSetOrderStatusUseCase(uow store.UnitOfWork, locker store.Locker, tel observability.Observability) *SetOrderStatusUseCase {
	return &SetOrderStatusUseCase{
		uow:    uow,
		locker: locker,
		in:     application.NewInstruments(tel, orderService),
	}
}

func (uc *SetOrderStatusUseCase) Execute(ctx context.Context, cmd SetOrderStatusInput) (_ *domain.Order, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseOrderSetStatus, "SetOrderStatus",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("order.requested_status", cmd.Status),
	)
	defer func() { run.End(err) }()

	if cmd.OrderID == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return nil, newValidation("order id is required")
	}
	status, err := domain.ParseStatus(cmd.Status)
	if err != nil {
		run.Fail("STATUS_INVALID")
		return nil, newValidation(err.Error())
	}

	unlock, err := uc.locker.Lock(ctx, LockKey(cmd.OrderID))
	if err != nil {
		run.Fail("LOCK_FAILED")
		return nil, err
	}
	defer unlock()

	var out *domain.Order
	err = uc.uow.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		o, err := tx.Orders().Get(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		from := o.Status
		o.ForceStatus(status)
		if from == domain.StatusPending && status != domain.StatusPending {
			if err := tx.Ledger().ReleaseHold(ctx, o.ID); err != nil {
				return err
			}
		}
		if err := tx.Orders().Update(ctx, o); err != nil {
			return err
		}
		run.Field("from_status", string(from))
		out = o
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			run.Fail("ORDER_NOT_FOUND")
		} else {
			run.Fail("REPO_UPDATE_FAILED")
		}
		return nil, wrapRepositoryError(err)
	}
	run.Logger().Warn("order_status_overridden",
		observability.F("order_id", out.ID),
		observability.F("status", string(out.Status)),
	)
	return out, nil
}
