package services

import (
	"context"
	"fmt"
	"time"

	"shipdash/internal/infrastructure"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	TracerName = "shipdash.dashboard"
)

// DerivationTracer instruments the derivation of dashboard views
type DerivationTracer struct {
	tracer          trace.Tracer
	businessMetrics *infrastructure.BusinessMetrics
}

// NewDerivationTracer creates a tracer backed by the given providers. Nil
// providers fall back to the global tracer and meter.
func NewDerivationTracer(providers *infrastructure.OTelProviders) (*DerivationTracer, error) {
	businessMetrics, err := infrastructure.CreateBusinessMetrics(providers.GetMeter())
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	return &DerivationTracer{
		tracer:          providers.GetTracer(),
		businessMetrics: businessMetrics,
	}, nil
}

// TraceDerivation starts a span for one view. The returned func ends the span
// and records the derivation metrics.
func (dt *DerivationTracer) TraceDerivation(ctx context.Context, view string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	if dt == nil {
		return ctx, func(error) {}
	}

	start := time.Now()
	ctx, span := dt.tracer.Start(ctx, "dashboard."+view,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(append([]attribute.KeyValue{attribute.String("dashboard.view", view)}, attrs...)...),
	)

	return ctx, func(err error) {
		duration := time.Since(start)
		span.SetAttributes(attribute.Float64("dashboard.duration_seconds", duration.Seconds()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		infrastructure.RecordDerivationMetrics(ctx, dt.businessMetrics, view, duration, err)
		span.End()
	}
}

// RecordExport counts a completed download
func (dt *DerivationTracer) RecordExport(ctx context.Context, view, format string) {
	if dt == nil {
		return
	}
	infrastructure.RecordExport(ctx, dt.businessMetrics, view, format)
}

// RecordSnapshot records the size of the loaded dataset
func (dt *DerivationTracer) RecordSnapshot(ctx context.Context, source string, rows int) {
	if dt == nil {
		return
	}
	infrastructure.RecordDatasetLoaded(ctx, dt.businessMetrics, source, rows)
}
