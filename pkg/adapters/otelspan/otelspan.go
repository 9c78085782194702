// Package otelspan mirrors operations into OpenTelemetry spans. Each
// started operation opens a span with its real start timestamp, progress
// events become span events, and the terminal call closes the span with
// the real stop timestamp, outcome attributes, and status. Sub-operations
// nest under their parent's span, so existing trace tooling renders the
// operation tree unchanged.
package otelspan

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/opline/opline/pkg/ports"
	"github.com/opline/opline/pkg/record"
)

const scope = "github.com/opline/opline/pkg/adapters/otelspan"

// Observer implements ports.Observer on a tracer. Operations that never
// finish keep their span open until process end, exactly as a leaked
// span would.
type Observer struct {
	tracer trace.Tracer

	mu     sync.Mutex
	active map[string]activeSpan
}

type activeSpan struct {
	ctx  context.Context
	span trace.Span
}

// NewObserver builds an observer on the given provider; nil uses the
// global one.
func NewObserver(tp trace.TracerProvider) *Observer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Observer{
		tracer: tp.Tracer(scope),
		active: make(map[string]activeSpan),
	}
}

func spanName(r *record.Record) string {
	if r.OpName == "" {
		return r.Category
	}
	return r.Category + "/" + r.OpName
}

func startAttrs(r *record.Record) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("opline.session", r.SessionID),
		attribute.Int64("opline.position", int64(r.Position)),
	}
	if r.ParentID != "" {
		attrs = append(attrs, attribute.String("opline.parent", r.ParentID))
	}
	if r.Description != "" {
		attrs = append(attrs, attribute.String("opline.description", r.Description))
	}
	return attrs
}

func (o *Observer) OpStarted(r *record.Record) {
	parentCtx := context.Background()
	o.mu.Lock()
	if p, ok := o.active[r.ParentID]; ok {
		parentCtx = p.ctx
	}
	o.mu.Unlock()

	ctx, span := o.tracer.Start(parentCtx, spanName(r),
		trace.WithTimestamp(time.Unix(0, r.StartTime)),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(startAttrs(r)...),
	)

	o.mu.Lock()
	o.active[r.FullID()] = activeSpan{ctx: ctx, span: span}
	o.mu.Unlock()
}

func (o *Observer) OpProgressed(r *record.Record) {
	o.mu.Lock()
	e, ok := o.active[r.FullID()]
	o.mu.Unlock()
	if !ok {
		return
	}
	e.span.AddEvent("progress", trace.WithAttributes(
		attribute.Int64("opline.iteration", r.Iteration),
		attribute.Int64("opline.expected_iterations", r.ExpectedIterations),
	))
}

func (o *Observer) OpFinished(r *record.Record) {
	id := r.FullID()
	o.mu.Lock()
	e, ok := o.active[id]
	delete(o.active, id)
	o.mu.Unlock()

	if !ok {
		// Never-started or late-attached operation: synthesize the span
		// whole so the trace still shows it.
		start := r.StartTime
		if start == 0 {
			start = r.StopTime
		}
		_, span := o.tracer.Start(context.Background(), spanName(r),
			trace.WithTimestamp(time.Unix(0, start)),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(startAttrs(r)...),
		)
		e = activeSpan{span: span}
	}

	span := e.span
	span.SetAttributes(finishAttrs(r)...)
	switch {
	case r.IsFailed():
		msg := r.FailMessage
		if msg == "" {
			msg = r.FailPath
		}
		span.RecordError(errors.New(msg))
		span.SetStatus(codes.Error, msg)
	case r.IsOK():
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(time.Unix(0, r.StopTime)))
}

func finishAttrs(r *record.Record) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("opline.outcome", r.Outcome()),
		attribute.String("opline.path", r.Path()),
	}
	if r.Iteration > 0 {
		attrs = append(attrs, attribute.Int64("opline.iteration", r.Iteration))
	}
	if r.IsSlow() {
		attrs = append(attrs, attribute.Bool("opline.slow", true))
	}
	for _, p := range r.Context.Pairs() {
		attrs = append(attrs, attribute.String("opline.ctx."+p.Key, p.Value))
	}
	return attrs
}

var _ ports.Observer = (*Observer)(nil)
