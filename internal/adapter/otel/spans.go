package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tokencalc"

// StartPipelineSpan starts a span for one assistant pipeline invocation.
func StartPipelineSpan(ctx context.Context, sessionID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "pipeline",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
		),
	)
}

// StartStageSpan starts a span for one pipeline stage
// ("formulate", "evaluate" or "synthesize").
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "pipeline."+stage)
}

// StartEqualsSpan starts a span for a metered equals press.
func StartEqualsSpan(ctx context.Context, accountID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "calculator.equals",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
		),
	)
}
