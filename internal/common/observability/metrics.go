// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// Observability records one span and two instruments per submit attempt.
type Observability struct {
	meterProvider   *metric.MeterProvider
	tracer          trace.Tracer
	attemptCounter  otelmetric.Int64Counter
	attemptDuration otelmetric.Float64Histogram
}

// New exports metrics into reg and traces through the global provider.
// A failing exporter degrades to a tracer-only Observability.
func New(serviceName string, reg prometheus.Registerer) *Observability {
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		otel.Handle(err)
		return &Observability{tracer: otel.Tracer(serviceName)}
	}
	return NewWithReader(serviceName, exporter, otel.GetTracerProvider())
}

// NewWithReader wires an explicit metric reader and tracer provider.
func NewWithReader(serviceName string, reader metric.Reader, tp trace.TracerProvider) *Observability {
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	meter := provider.Meter(serviceName)

	attemptCounter, _ := meter.Int64Counter(
		"pipeline.attempts",
		otelmetric.WithDescription("Number of submit attempts processed"),
	)

	attemptDuration, _ := meter.Float64Histogram(
		"pipeline.duration",
		otelmetric.WithDescription("Submit attempt duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:   provider,
		tracer:          tp.Tracer(serviceName),
		attemptCounter:  attemptCounter,
		attemptDuration: attemptDuration,
	}
}

// StartAttempt opens the span covering one submit attempt.
func (o *Observability) StartAttempt(ctx context.Context, formType string) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, "form.submit", trace.WithAttributes(
		attribute.String("form.type", formType),
	))
}

// RecordAttempt counts a finished attempt and its duration.
func (o *Observability) RecordAttempt(ctx context.Context, formType, outcome string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("form_type", formType),
		attribute.String("outcome", outcome),
	)
	if o.attemptCounter != nil {
		o.attemptCounter.Add(ctx, 1, attrs)
	}
	if o.attemptDuration != nil {
		o.attemptDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
