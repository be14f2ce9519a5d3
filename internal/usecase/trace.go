package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("playerlink/internal/usecase")

// startUsecaseSpan opens a span under ctx. CLI entry points (batch run, odds ingest, a
// consumed message) have no parent, so their span becomes the trace root.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// failSpan marks span as failed and returns err unchanged.
func failSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
