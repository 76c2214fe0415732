package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartOperationSpan starts a new span for a simulated operation governed by
// the named policy, recording the wait budget that was read for it.
func StartOperationSpan(ctx context.Context, tracer trace.Tracer, policyName string, wait time.Duration) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "operation "+policyName,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("fusetune.policy", policyName),
		attribute.Float64("fusetune.wait_ms", float64(wait)/float64(time.Millisecond)),
	)
	return ctx, span
}

// EndOperationSpan finishes a span, recording the observed elapsed time and
// error status if applicable.
func EndOperationSpan(span trace.Span, elapsed time.Duration, timedOut bool, err error) {
	span.SetAttributes(
		attribute.Float64("fusetune.elapsed_ms", float64(elapsed)/float64(time.Millisecond)),
		attribute.Bool("fusetune.timed_out", timedOut),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
