package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Zhima-Mochi/marketplace-orders/internal/domain/outbox"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability/logctx"
)

const (
	SpanPrefix     = "UC."
	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond
)

// Instruments carries the RED metrics, tracer and base logger shared by use cases.
type Instruments struct {
	tracer observability.Tracer
	log    observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

// NewInstruments binds the instruments once; a nil tel yields no-ops.
func NewInstruments(tel observability.Observability, service string) Instruments {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return Instruments{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", service)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

func (in Instruments) Logger() observability.Logger { return in.log }

// Run tracks one use case execution. Callers set Outcome/Status as they go
// and call End exactly once, usually deferred.
type Run struct {
	in      Instruments
	useCase string
	start   time.Time
	span    trace.Span
	logger  observability.Logger
	fields  []observability.Field

	Outcome, Status string
}

// Begin opens the span and derives the request-scoped logger.
func (in Instruments) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, SpanPrefix+spanName, attrs...)
	logger := logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase))
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		logger = logger.With(
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	ctx = logctx.With(ctx, logger)
	return ctx, &Run{
		in:      in,
		useCase: useCase,
		start:   time.Now(),
		span:    span,
		logger:  logger,
		Outcome: "success",
		Status:  "OK",
	}
}

func (r *Run) Span() trace.Span             { return r.span }
func (r *Run) Logger() observability.Logger { return r.logger }

// Fail marks the run as failed with a status code.
func (r *Run) Fail(status string) {
	r.Outcome, r.Status = "error", status
}

// Field adds a field to the final use_case_done log line.
func (r *Run) Field(k string, v any) {
	r.fields = append(r.fields, observability.F(k, v))
}

// End records span status, RED metrics and the use_case_done log line.
func (r *Run) End(err error) {
	lat := time.Since(r.start).Seconds()
	if err != nil && r.Outcome == "success" {
		r.Outcome = "error"
	}

	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, r.Status)
	} else {
		r.span.SetStatus(codes.Ok, r.Status)
	}
	r.span.End()

	r.in.reqCounter.Add(1,
		observability.L("use_case", r.useCase),
		observability.L("outcome", r.Outcome),
	)
	r.in.durHistogram.Observe(lat, observability.L("use_case", r.useCase))

	fields := append([]observability.Field{
		observability.F("outcome", r.Outcome),
		observability.F("status", r.Status),
		observability.F("latency_seconds", lat),
	}, r.fields...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	r.logger.Info("use_case_done", fields...)
}

// External calls fn with a deadline and records external_* metrics for peer/endpoint.
func (in Instruments) External(ctx context.Context, peer, endpoint string, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	err := fn(ctx)
	outcome := "success"
	switch {
	case err != nil && ctx.Err() != nil:
		outcome = "canceled"
	case err != nil:
		outcome = "error"
	}
	in.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	in.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
	)
	return err
}

// Publish hands e to the outbox with a short deadline. A failure is recorded
// and logged but callers treat it as non-fatal.
func (in Instruments) Publish(ctx context.Context, p domoutbox.Publisher, e domoutbox.Event) error {
	if p == nil || e == nil {
		return nil
	}
	err := in.External(ctx, publishPeer, e.EventName(), publishTimeout, func(ctx context.Context) error {
		return p.Publish(ctx, e)
	})
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
		logctx.FromOr(ctx, in.log).Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	}
	return err
}
