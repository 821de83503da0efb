package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "rescuedesk"

// StartExecuteSpan starts a span covering one execute call on a plan.
func StartExecuteSpan(ctx context.Context, planID, user string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "rescue.execute",
		trace.WithAttributes(
			attribute.String("plan.id", planID),
			attribute.String("plan.user", user),
		),
	)
}

// StartStepSpan starts a span for one step invocation.
func StartStepSpan(ctx context.Context, planID, stepID, action string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "rescue.step",
		trace.WithAttributes(
			attribute.String("plan.id", planID),
			attribute.String("step.id", stepID),
			attribute.String("step.action", action),
		),
	)
}
