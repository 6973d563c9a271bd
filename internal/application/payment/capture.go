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

const (
	paymentService        = "payment-service"
	useCasePaymentCapture = "payment.capture"
)

type CapturePaymentInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	OrderID          string
	UserID           string
	Amount           decimal.Decimal
}

var _ application.UseCase[CapturePaymentInput, *dompayment.Payment] = (*CapturePaymentUseCase)(nil)

// CapturePaymentUseCase handles the gateway's signed capture callback.
// Retried callbacks with the same gateway identifiers return the first result.
type CapturePaymentUseCase struct {
	gateway dompayment.Gateway
	settler *settler
	in      application.Instruments
}

func NewCapturePaymentUseCase(
	st store.Store,
	locker store.Locker,
	gateway dompayment.Gateway,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *CapturePaymentUseCase {
	in := application.NewInstruments(tel, paymentService)
	return &CapturePaymentUseCase{
		gateway: gateway,
		settler: &settler{st: st, locker: locker, idGenerator: idGen, publisher: publisher, in: in},
		in:      in,
	}
}

func (uc *CapturePaymentUseCase) Execute(ctx context.Context, cmd CapturePaymentInput) (_ *dompayment.Payment, err error) {
	ctx, run := uc.in.Begin(ctx, useCasePaymentCapture, "CapturePayment",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("payment.gateway_order_id", cmd.GatewayOrderID),
		attribute.String("payment.gateway_payment_id", cmd.GatewayPaymentID),
	)
	defer func() { run.End(err) }()

	switch {
	case cmd.GatewayOrderID == "" || cmd.GatewayPaymentID == "" || cmd.Signature == "":
		run.Fail("GATEWAY_FIELDS_REQUIRED")
		return nil, newValidation("gateway order id, payment id and signature are required")
	case cmd.OrderID == "":
		run.Fail("ORDER_ID_REQUIRED")
		return nil, newValidation("order id is required")
	case !cmd.Amount.IsPositive():
		run.Fail("AMOUNT_INVALID")
		return nil, newValidation("amount must be greater than zero")
	}

	if !uc.gateway.VerifySignature(cmd.GatewayOrderID, cmd.GatewayPaymentID, cmd.Signature) {
		run.Fail("INVALID_SIGNATURE")
		return nil, ErrInvalidSignature
	}

	return uc.settler.settle(ctx, run, settlement{
		OrderID: cmd.OrderID,
		UserID:  cmd.UserID,
		Amount:  cmd.Amount,
		Method:  dompayment.MethodRazorpay,
		Ref: dompayment.GatewayRef{
			OrderID:   cmd.GatewayOrderID,
			PaymentID: cmd.GatewayPaymentID,
			Signature: cmd.Signature,
		},
	})
}
