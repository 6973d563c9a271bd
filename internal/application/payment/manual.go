package payment

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/marketplace-orders/internal/application"
	domoutbox "github.com/Zhima-Mochi/marketplace-orders/internal/domain/outbox"
	dompayment "github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/store"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
)

const useCasePaymentMake = "payment.make"

type MakePaymentInput struct {
	OrderID string
	UserID  string
	Amount  decimal.Decimal
	Method  string
}

var _ application.UseCase[MakePaymentInput, *dompayment.Payment] = (*MakePaymentUseCase)(nil)

// MakePaymentUseCase records a payment taken outside the gateway callback flow.
type MakePaymentUseCase struct {
	settler *settler
	in      application.Instruments
}

func NewMakePaymentUseCase(
	st store.Store,
	locker store.Locker,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *MakePaymentUseCase {
	in := application.NewInstruments(tel, paymentService)
	return &MakePaymentUseCase{
		settler: &settler{st: st, locker: locker, idGenerator: idGen, publisher: publisher, in: in},
		in:      in,
	}
}

func (uc *MakePaymentUseCase) Execute(ctx context.Context, cmd MakePaymentInput) (_ *dompayment.Payment, err error) {
	ctx, run := uc.in.Begin(ctx, useCasePaymentMake, "MakePayment",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("payment.method", cmd.Method),
	)
	defer func() { run.End(err) }()

	if cmd.OrderID == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return nil, newValidation("order id is required")
	}
	if !cmd.Amount.IsPositive() {
		run.Fail("AMOUNT_INVALID")
		return nil, newValidation("amount must be greater than zero")
	}
	method, err := dompayment.ParseMethod(cmd.Method)
	if err != nil {
		run.Fail("METHOD_INVALID")
		return nil, newValidation(err.Error())
	}

	return uc.settler.settle(ctx, run, settlement{
		OrderID: cmd.OrderID,
		UserID:  cmd.UserID,
		Amount:  cmd.Amount,
		Method:  method,
	})
}
