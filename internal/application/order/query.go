package order

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/marketplace-orders/internal/application"
	domain "github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
)

const (
	useCaseOrderGet        = "order.get"
	useCaseOrderItems      = "order.items"
	useCaseOrderListByUser = "order.list_by_user"
	useCaseOrderList       = "order.list"
)

// Queries serves the read side of orders.
type Queries struct {
	repo domain.Repository
	in   application.Instruments
}

func NewQueries(repo domain.Repository, tel observability.Observability) *Queries {
	return &Queries{repo: repo, in: application.NewInstruments(tel, orderService)}
}

func (q *Queries) Get(ctx context.Context, orderID string) (_ *domain.Order, err error) {
	ctx, run := q.in.Begin(ctx, useCaseOrderGet, "GetOrder", attribute.String("order.id", orderID))
	defer func() { run.End(err) }()

	if orderID == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return nil, newValidation("order id is required")
	}
	o, err := q.repo.Get(ctx, orderID)
	if err != nil {
		run.Fail("ORDER_LOAD_FAILED")
		return nil, wrapRepositoryError(err)
	}
	return o, nil
}

func (q *Queries) Items(ctx context.Context, orderID string) (_ []domain.Item, err error) {
	ctx, run := q.in.Begin(ctx, useCaseOrderItems, "GetOrderItems", attribute.String("order.id", orderID))
	defer func() { run.End(err) }()

	if orderID == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return nil, newValidation("order id is required")
	}
	o, err := q.repo.Get(ctx, orderID)
	if err != nil {
		run.Fail("ORDER_LOAD_FAILED")
		return nil, wrapRepositoryError(err)
	}
	return o.Items, nil
}

func (q *Queries) ListByUser(ctx context.Context, userID string) (_ []*domain.Order, err error) {
	ctx, run := q.in.Begin(ctx, useCaseOrderListByUser, "ListOrdersByUser", attribute.String("order.user_id", userID))
	defer func() { run.End(err) }()

	if userID == "" {
		run.Fail("USER_ID_REQUIRED")
		return nil, newValidation("user id is required")
	}
	out, err := q.repo.ListByUser(ctx, userID)
	if err != nil {
		run.Fail("ORDER_LIST_FAILED")
		return nil, wrapRepositoryError(err)
	}
	run.Field("count", len(out))
	return out, nil
}

func (q *Queries) List(ctx context.Context) (_ []*domain.Order, err error) {
	ctx, run := q.in.Begin(ctx, useCaseOrderList, "ListOrders")
	defer func() { run.End(err) }()

	out, err := q.repo.List(ctx)
	if err != nil {
		run.Fail("ORDER_LIST_FAILED")
		return nil, wrapRepositoryError(err)
	}
	run.Field("count", len(out))
	return out, nil
}
