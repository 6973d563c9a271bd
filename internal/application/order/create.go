package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/marketplace-orders/internal/application"
	dominv "github.com/Zhima-Mochi/marketplace-orders/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/marketplace-orders/internal/domain/outbox"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/store"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
)

const (
	orderService       = "order-service"
	useCaseOrderCreate = "order.create"
)

type ItemInput struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	UserID string
	Items  []ItemInput
}

var _ application.UseCase[CreateOrderInput, *domain.Order] = (*CreateOrderUseCase)(nil)

// CreateOrderUseCase prices the requested items, persists the order and holds its stock.
type CreateOrderUseCase struct {
	uow         store.UnitOfWork
	idGenerator IDGenerator
	publisher   domoutbox.Publisher
	in          application.Instruments
}

func NewCreateOrderUseCase(
	uow store.UnitOfWork,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		uow:         uow,
		idGenerator: idGen,
		publisher:   publisher,
		in:          application.NewInstruments(tel, orderService),
	}
}

func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderInput) (_ *domain.Order, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseOrderCreate, "CreateOrder",
		attribute.String("order.user_id", cmd.UserID),
		attribute.Int("order.item_count", len(cmd.Items)),
	)
	defer func() { run.End(err) }()

	if cmd.UserID == "" {
		run.Fail("USER_ID_REQUIRED")
		return nil, newValidation("user id is required")
	}
	if len(cmd.Items) == 0 {
		run.Fail("ITEMS_REQUIRED")
		return nil, newValidation("at least one item is required")
	}
	lines := make([]dominv.Line, 0, len(cmd.Items))
	for _, it := range cmd.Items {
		if it.ProductID == "" {
			run.Fail("PRODUCT_ID_REQUIRED")
			return nil, newValidation("product id is required")
		}
		if it.Quantity <= 0 {
			run.Fail("QUANTITY_INVALID")
			return nil, newValidation("quantity must be greater than zero")
		}
		lines = append(lines, dominv.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	// combined quantity per product is what has to be available
	merged, err := dominv.Normalize(lines)
	if err != nil {
		run.Fail("QUANTITY_INVALID")
		return nil, newValidation(err.Error())
	}

	orderID := uc.idGenerator.NewID()
	var entity *domain.Order
	err = uc.uow.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		prices := make(map[string]decimal.Decimal, len(merged))
		for _, l := range merged {
			price, err := tx.Ledger().CheckAndPrice(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return err
			}
			prices[l.ProductID] = price
		}
		// items keep the order the client sent them in
		items := make([]domain.Item, 0, len(lines))
		for _, l := range lines {
			items = append(items, domain.Item{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: prices[l.ProductID]})
		}
		o, err := domain.New(orderID, cmd.UserID, items)
		if err != nil {
			return fmt.Errorf("order: construct: %w", err)
		}
		if err := tx.Orders().Insert(ctx, o); err != nil {
			return err
		}
		if err := tx.Ledger().Hold(ctx, o.ID, o.Lines()); err != nil {
			return err
		}
		entity = o
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, dominv.ErrOutOfStock):
			run.Fail("INSUFFICIENT_STOCK")
		case errors.Is(err, dominv.ErrNotFound):
			run.Fail("PRODUCT_NOT_FOUND")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			run.Fail("CONTEXT_CANCELED")
			return nil, err
		default:
			run.Fail("REPO_INSERT_FAILED")
		}
		return nil, wrapRepositoryError(err)
	}

	run.Field("order_id", entity.ID)
	run.Span().SetAttributes(
		attribute.String("order.id", entity.ID),
		attribute.String("order.status", string(entity.Status)),
	)
	run.Span().AddEvent("order.created", trace.WithAttributes(attribute.String("order.id", entity.ID)))

	if pubErr := uc.in.Publish(ctx, uc.publisher, domain.NewOrderCreatedEvent(entity)); pubErr != nil {
		run.Status = "EVENT_PUBLISH_FAILED"
		run.Field("event_publish_error", pubErr.Error())
	}
	return entity, nil
}
