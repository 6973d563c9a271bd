package notification

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/marketplace-orders/internal/application"
	domnotify "github.com/Zhima-Mochi/marketplace-orders/internal/domain/notification"
	domorder "github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/marketplace-orders/internal/domain/outbox"
	dompayment "github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
	workerpresentation "github.com/Zhima-Mochi/marketplace-orders/internal/presentation/worker"
)

const (
	workerService  = "notification-worker"
	notifierPeer   = "notifier"
	endpointNotify = "notify"
	useCasePrefix  = "notification."
	defaultTimeout = 2 * time.Second
)

// Worker turns domain events into user notifications. Delivery is fire and
// forget: a failed notification is logged and never retried.
type Worker struct {
	subscriber domoutbox.Subscriber
	notifier   domnotify.Notifier
	timeout    time.Duration
	in         application.Instruments
}

func New(subscriber domoutbox.Subscriber, notifier domnotify.Notifier, timeout time.Duration, tel observability.Observability) *Worker {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Worker{
		subscriber: subscriber,
		notifier:   notifier,
		timeout:    timeout,
		in:         application.NewInstruments(tel, workerService),
	}
}

// Start registers the worker's handlers.
func (w *Worker) Start() {
	if w.subscriber == nil || w.notifier == nil {
		return
	}
	w.subscriber.Subscribe(domorder.OrderCreatedEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(domorder.OrderCancelledEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(dompayment.CapturedEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(dompayment.StockExhaustedEvent{}.EventName(), w.handle)
}

type message struct {
	userID  string
	orderID string
	text    string
	typ     domnotify.Type
}

func messageFor(e domoutbox.Event) (message, bool) {
	switch evt := e.(type) {
	case domorder.OrderCreatedEvent:
		return message{evt.UserID, evt.OrderID, fmt.Sprintf("Order #%s placed successfully!", evt.OrderID), domnotify.TypeInfo}, true
	case domorder.OrderCancelledEvent:
		text := fmt.Sprintf("Order #%s has been cancelled.", evt.OrderID)
		if evt.StockRestored {
			text = fmt.Sprintf("Order #%s has been cancelled. Your payment will be refunded.", evt.OrderID)
		}
		return message{evt.UserID, evt.OrderID, text, domnotify.TypeInfo}, true
	case dompayment.CapturedEvent:
		return message{evt.UserID, evt.OrderID, fmt.Sprintf("Payment of %s received for order #%s.", evt.Amount.StringFixed(2), evt.OrderID), domnotify.TypeSuccess}, true
	case dompayment.StockExhaustedEvent:
		text := fmt.Sprintf("Payment for order #%s was received but the items are no longer available. A refund will follow.", evt.OrderID)
		return message{evt.UserID, evt.OrderID, text, domnotify.TypeWarning}, true
	default:
		return message{}, false
	}
}

func (w *Worker) handle(ctx context.Context, e domoutbox.Event) (err error) {
	useCase := useCasePrefix + e.EventName()
	ctx = workerpresentation.WithEventContext(ctx, w.in.Logger(), map[string]string{"event": e.EventName()})
	ctx, run := w.in.Begin(ctx, useCase, "Notify", attribute.String("event", e.EventName()))
	defer func() { run.End(err) }()

	msg, ok := messageFor(e)
	if !ok {
		run.Outcome, run.Status = "ignored", "UNKNOWN_EVENT"
		return nil
	}
	run.Field("order_id", msg.orderID)
	if msg.userID == "" {
		run.Outcome, run.Status = "ignored", "NO_RECIPIENT"
		return nil
	}

	err = w.in.External(ctx, notifierPeer, endpointNotify, w.timeout, func(ctx context.Context) error {
		return w.notifier.Notify(ctx, msg.userID, msg.text, msg.typ)
	})
	if err != nil {
		run.Fail("NOTIFY_FAILED")
		run.Logger().Warn("notification_failed",
			observability.F("order_id", msg.orderID),
			observability.F("error", err.Error()),
		)
		return fmt.Errorf("notification: deliver: %w", err)
	}
	return nil
}
