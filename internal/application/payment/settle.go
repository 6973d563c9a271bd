package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/marketplace-orders/internal/application"
	apporder "github.com/Zhima-Mochi/marketplace-orders/internal/application/order"
	dominv "github.com/Zhima-Mochi/marketplace-orders/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/marketplace-orders/internal/domain/outbox"
	dompayment "github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/store"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
)

// settlement is a request to apply money to an order.
type settlement struct {
	OrderID string
	UserID  string
	Amount  decimal.Decimal
	Method  dompayment.Method
	Ref     dompayment.GatewayRef
}

// settler applies a payment to an order: it records the payment, marks the
// order PAID and commits the stock in one unit of work. When the stock commit
// fails the money is on record through a FAILED payment and a PAYMENT_FAILED order.
type settler struct {
	st          store.Store
	locker      store.Locker
	idGenerator IDGenerator
	publisher   domoutbox.Publisher
	in          application.Instruments
}

func (s *settler) settle(ctx context.Context, run *application.Run, req settlement) (*dompayment.Payment, error) {
	if p, err := s.replay(ctx, req.Ref); p != nil || err != nil {
		if err == nil {
			run.Status = "IDEMPOTENT_REPLAY"
			run.Span().AddEvent("payment.idempotent_replay", trace.WithAttributes(attribute.String("payment.id", p.ID)))
			return replayResult(p)
		}
		run.Fail("IDEMPOTENCY_LOOKUP_FAILED")
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, apporder.LockKey(req.OrderID))
	if err != nil {
		run.Fail("LOCK_FAILED")
		return nil, err
	}
	defer unlock()

	// a concurrent replay may have finished while we waited on the lock
	if p, err := s.replay(ctx, req.Ref); p != nil || err != nil {
		if err == nil {
			run.Status = "IDEMPOTENT_REPLAY"
			return replayResult(p)
		}
		run.Fail("IDEMPOTENCY_LOOKUP_FAILED")
		return nil, err
	}

	var applied *dompayment.Payment
	err = s.st.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		o, err := tx.Orders().Get(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if err := checkGatewayOrder(ctx, tx, req.Ref.OrderID, o.ID); err != nil {
			return err
		}
		if !req.Amount.Equal(o.TotalPrice) {
			return fmt.Errorf("%w: got %s, want %s", ErrAmountMismatch, req.Amount.String(), o.TotalPrice.String())
		}
		if o.Status == domorder.StatusPaid {
			return ErrAlreadyPaid
		}
		if !o.CanPay() {
			return fmt.Errorf("%w: status %s", ErrOrderNotPayable, o.Status)
		}
		userID := req.UserID
		if userID == "" {
			userID = o.UserID
		}
		p, err := dompayment.NewSuccess(s.idGenerator.NewID(), o.ID, userID, req.Amount, req.Method, req.Ref)
		if err != nil {
			return newValidation(err.Error())
		}
		if err := tx.Payments().Insert(ctx, p); err != nil {
			if errors.Is(err, dompayment.ErrConflict) {
				return fmt.Errorf("%w: %w", ErrAlreadyPaid, err)
			}
			return err
		}
		if err := o.MarkPaid(); err != nil {
			return fmt.Errorf("%w: %w", ErrOrderNotPayable, err)
		}
		if err := tx.Orders().Update(ctx, o); err != nil {
			return err
		}
		if err := tx.Ledger().Commit(ctx, o.ID, o.Lines()); err != nil {
			return err
		}
		applied = p
		return nil
	})
	if err == nil {
		run.Field("payment_id", applied.ID)
		run.Span().SetAttributes(attribute.String("payment.id", applied.ID))
		if pubErr := s.in.Publish(ctx, s.publisher, dompayment.NewCapturedEvent(applied)); pubErr != nil {
			run.Status = "EVENT_PUBLISH_FAILED"
		}
		return applied, nil
	}

	switch {
	case errors.Is(err, dominv.ErrOutOfStock):
		return s.compensate(ctx, run, req, err)
	case errors.Is(err, domorder.ErrNotFound):
		run.Fail("ORDER_NOT_FOUND")
		return nil, ErrOrderNotFound
	case errors.Is(err, ErrAmountMismatch):
		run.Fail("AMOUNT_MISMATCH")
	case errors.Is(err, ErrAlreadyPaid):
		run.Fail("ALREADY_PAID")
	case errors.Is(err, ErrOrderNotPayable):
		run.Fail("ORDER_NOT_PAYABLE")
	case errors.Is(err, ErrGatewayOrderMismatch):
		run.Fail("GATEWAY_ORDER_MISMATCH")
	case errors.Is(err, ErrValidation):
		run.Fail("PAYMENT_INVALID")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		run.Fail("CONTEXT_CANCELED")
	default:
		run.Fail("SETTLE_FAILED")
		return nil, wrapRepositoryError(err)
	}
	return nil, err
}

// compensate runs after the settling unit rolled back because stock ran out.
// The caller has already been charged, so the failure is recorded durably.
func (s *settler) compensate(ctx context.Context, run *application.Run, req settlement, cause error) (*dompayment.Payment, error) {
	run.Fail("STOCK_EXHAUSTED_AFTER_PAYMENT")
	reason := cause.Error()
	var se *dominv.StockError
	if errors.As(cause, &se) {
		reason = fmt.Sprintf("stock exhausted for product %s", se.ProductID)
	}

	// compensation must land even if the caller has gone away
	cctx := context.WithoutCancel(ctx)
	var failed *dompayment.Payment
	err := s.st.Do(cctx, func(ctx context.Context, tx store.Tx) error {
		o, err := tx.Orders().Get(ctx, req.OrderID)
		if err != nil {
			return err
		}
		userID := req.UserID
		if userID == "" {
			userID = o.UserID
		}
		p, err := dompayment.NewFailed(s.idGenerator.NewID(), o.ID, userID, req.Amount, req.Method, req.Ref, reason)
		if err != nil {
			return err
		}
		if err := tx.Payments().Insert(ctx, p); err != nil {
			return err
		}
		if err := tx.Ledger().ReleaseHold(ctx, o.ID); err != nil {
			return err
		}
		if err := o.MarkPaymentFailed(reason); err != nil {
			return err
		}
		if err := tx.Orders().Update(ctx, o); err != nil {
			return err
		}
		failed = p
		return nil
	})
	if err != nil {
		run.Logger().Error("payment_compensation_failed",
			observability.F("order_id", req.OrderID),
			observability.F("gateway_payment_id", req.Ref.PaymentID),
			observability.F("cause", reason),
			observability.F("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w (compensation failed: %w)", ErrStockExhaustedAfterPayment, cause, err)
	}

	run.Field("payment_id", failed.ID)
	run.Logger().Error("payment_stock_exhausted",
		observability.F("order_id", failed.OrderID),
		observability.F("payment_id", failed.ID),
		observability.F("gateway_payment_id", failed.Gateway.PaymentID),
		observability.F("reason", reason),
	)
	_ = s.in.Publish(cctx, s.publisher, dompayment.NewStockExhaustedEvent(failed))
	return failed, fmt.Errorf("%w: %w", ErrStockExhaustedAfterPayment, cause)
}

// checkGatewayOrder rejects a gateway order already recorded against another local order.
func checkGatewayOrder(ctx context.Context, tx store.Tx, gatewayOrderID, orderID string) error {
	if gatewayOrderID == "" {
		return nil
	}
	prior, err := tx.Payments().FindByGatewayOrder(ctx, gatewayOrderID)
	switch {
	case errors.Is(err, dompayment.ErrNotFound):
		return nil
	case err != nil:
		return err
	case prior.OrderID != orderID:
		return fmt.Errorf("%w: %s", ErrGatewayOrderMismatch, gatewayOrderID)
	}
	return nil
}

func (s *settler) replay(ctx context.Context, ref dompayment.GatewayRef) (*dompayment.Payment, error) {
	if ref.PaymentID == "" {
		return nil, nil
	}
	p, err := s.st.Payments().FindByGatewayRef(ctx, ref)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, dompayment.ErrNotFound):
		return nil, nil
	default:
		return nil, wrapRepositoryError(err)
	}
}

// replayResult returns a recorded capture unchanged, re-reporting a failed one.
func replayResult(p *dompayment.Payment) (*dompayment.Payment, error) {
	if p.Status == dompayment.StatusFailed {
		return p, fmt.Errorf("%w: %s", ErrStockExhaustedAfterPayment, p.FailureReason)
	}
	return p, nil
}
