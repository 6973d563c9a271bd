package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/marketplace-orders/internal/application"
	domorder "github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
)

const (
	useCasePaymentInitiate = "payment.initiate"
	gatewayPeer            = "payment_gateway"
	endpointCreateIntent   = "create_intent"
	receiptPrefix          = "order_rcpt_"
)

type InitiatePaymentInput struct {
	OrderID string
	Amount  decimal.Decimal
}

type InitiatePaymentResult struct {
	OrderID string
	Intent  *dompayment.Intent
}

var _ application.UseCase[InitiatePaymentInput, *InitiatePaymentResult] = (*InitiatePaymentUseCase)(nil)

// InitiatePaymentUseCase asks the gateway for a payment intent. Local state is untouched.
type InitiatePaymentUseCase struct {
	orders   domorder.Repository
	gateway  dompayment.Gateway
	currency string
	timeout  time.Duration
	in       application.Instruments
}

func NewInitiatePaymentUseCase(
	orders domorder.Repository,
	gateway dompayment.Gateway,
	currency string,
	timeout time.Duration,
	tel observability.Observability,
) *InitiatePaymentUseCase {
	return &InitiatePaymentUseCase{
		orders:   orders,
		gateway:  gateway,
		currency: currency,
		timeout:  timeout,
		in:       application.NewInstruments(tel, paymentService),
	}
}

func (uc *InitiatePaymentUseCase) Execute(ctx context.Context, cmd InitiatePaymentInput) (_ *InitiatePaymentResult, err error) {
	ctx, run := uc.in.Begin(ctx, useCasePaymentInitiate, "InitiatePayment", attribute.String("order.id", cmd.OrderID))
	defer func() { run.End(err) }()

	if cmd.OrderID == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return nil, newValidation("order id is required")
	}
	if !cmd.Amount.IsPositive() {
		run.Fail("AMOUNT_INVALID")
		return nil, newValidation("amount must be greater than zero")
	}

	o, err := uc.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		if errors.Is(err, domorder.ErrNotFound) {
			run.Fail("ORDER_NOT_FOUND")
		} else {
			run.Fail("ORDER_LOAD_FAILED")
		}
		return nil, wrapRepositoryError(err)
	}
	if !cmd.Amount.Equal(o.TotalPrice) {
		run.Fail("AMOUNT_MISMATCH")
		return nil, fmt.Errorf("%w: got %s, want %s", ErrAmountMismatch, cmd.Amount.String(), o.TotalPrice.String())
	}
	if !o.CanPay() {
		run.Fail("ORDER_NOT_PAYABLE")
		return nil, fmt.Errorf("%w: status %s", ErrOrderNotPayable, o.Status)
	}

	var intent *dompayment.Intent
	err = uc.in.External(ctx, gatewayPeer, endpointCreateIntent, uc.timeout, func(ctx context.Context) error {
		var gerr error
		intent, gerr = uc.gateway.CreateIntent(ctx, cmd.Amount, uc.currency, receiptPrefix+o.ID)
		return gerr
	})
	if err != nil {
		run.Fail("GATEWAY_UNAVAILABLE")
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}

	run.Field("gateway_order_id", intent.ID)
	run.Span().SetAttributes(attribute.String("payment.gateway_order_id", intent.ID))
	return &InitiatePaymentResult{OrderID: o.ID, Intent: intent}, nil
}
