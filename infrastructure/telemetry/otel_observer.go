package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies spans emitted around derive passes.
const tracerName = "rostrum-engine"

// StartDeriveSpan opens a span for one engine operation and annotates
// it with the input size and requested options. The returned end
// function records the error status and closes the span.
func StartDeriveSpan(ctx context.Context, operation string, records int, includeRows, includeCV bool) (context.Context, func(error)) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, operation, trace.WithAttributes(
		attribute.Int("rostrum.records", records),
		attribute.Bool("rostrum.include_rows", includeRows),
		attribute.Bool("rostrum.include_bias_cv", includeCV),
	))

	return ctx, func(err error) {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
