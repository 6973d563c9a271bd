package payment

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/marketplace-orders/internal/application"
	dompayment "github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
)

const (
	useCasePaymentGet  = "payment.get"
	useCasePaymentList = "payment.list"
)

type Queries struct {
	repo dompayment.Repository
	in   application.Instruments
}

func NewQueries(repo dompayment.Repository, tel observability.Observability) *Queries {
	return &Queries{repo: repo, in: application.NewInstruments(tel, paymentService)}
}

func (q *Queries) Get(ctx context.Context, id string) (_ *dompayment.Payment, err error) {
	ctx, run := q.in.Begin(ctx, useCasePaymentGet, "GetPayment", attribute.String("payment.id", id))
	defer func() { run.End(err) }()

	if id == "" {
		run.Fail("PAYMENT_ID_REQUIRED")
		return nil, newValidation("payment id is required")
	}
	p, err := q.repo.Get(ctx, id)
	if err != nil {
		run.Fail("PAYMENT_LOAD_FAILED")
		return nil, wrapRepositoryError(err)
	}
	return p, nil
}

func (q *Queries) List(ctx context.Context) (_ []*dompayment.Payment, err error) {
	ctx, run := q.in.Begin(ctx, useCasePaymentList, "ListPayments")
	defer func() { run.End(err) }()

	out, err := q.repo.List(ctx)
	if err != nil {
		run.Fail("PAYMENT_LIST_FAILED")
		return nil, wrapRepositoryError(err)
	}
	run.Field("count", len(out))
	return out, nil
}
