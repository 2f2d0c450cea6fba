// Package tracing opens an OpenTelemetry span for every task run.
package tracing

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxorio/asyncworker/pkg/task"
)

// InstrumentationName names the tracer spans are created with
const InstrumentationName = "github.com/fluxorio/asyncworker/pkg/task"

// Observer is a task.Observer that wraps each run in a span. The computation
// receives the span's context, so spans it starts become children of the run.
type Observer struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

var _ task.Observer = (*Observer)(nil)

// NewObserver traces runs with tp, or the global provider if tp is nil
func NewObserver(tp trace.TracerProvider) *Observer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Observer{
		tracer: tp.Tracer(InstrumentationName),
		spans:  make(map[string]trace.Span),
	}
}

func (o *Observer) TaskStarted(ctx context.Context, info task.Info) context.Context {
	opts := []trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("task.id", info.ID),
			attribute.String("task.kind", string(info.Kind)),
		),
	}
	if !info.Started.IsZero() {
		opts = append(opts, trace.WithTimestamp(info.Started))
	}
	ctx, span := o.tracer.Start(ctx, info.Name, opts...)

	o.mu.Lock()
	o.spans[info.ID] = span
	o.mu.Unlock()
	return ctx
}

func (o *Observer) TaskSettled(_ context.Context, info task.Info, outcome task.Outcome, err error) {
	o.mu.Lock()
	span, ok := o.spans[info.ID]
	delete(o.spans, info.ID)
	o.mu.Unlock()
	if !ok {
		return
	}

	span.SetAttributes(attribute.String("task.outcome", string(outcome)))
	switch outcome {
	case task.OutcomeSuccess:
		span.SetStatus(codes.Ok, "")
	case task.OutcomeCancelled:
		span.AddEvent("cancelled")
	default:
		if err != nil {
			span.RecordError(unwrapComputation(err))
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Error, string(outcome))
		}
	}
	span.End()
}

// Active reports the number of open spans
func (o *Observer) Active() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.spans)
}

func unwrapComputation(err error) error {
	var ce *task.ComputationError
	if errors.As(err, &ce) {
		return ce.Err
	}
	return err
}
