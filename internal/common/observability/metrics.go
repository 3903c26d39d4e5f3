package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability holds the service-level OpenTelemetry meter. The
// prometheus exporter feeds the same /metrics endpoint as the
// client_golang collectors.
type Observability struct {
	meterProvider     *metric.MeterProvider
	meter             otelmetric.Meter
	detectionCounter  otelmetric.Int64Counter
	detectionDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	detectionCounter, _ := meter.Int64Counter(
		"detections.processed",
		otelmetric.WithDescription("Number of duplicate detection calls processed"),
	)

	detectionDuration, _ := meter.Float64Histogram(
		"detections.duration",
		otelmetric.WithDescription("Duplicate detection call duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:     provider,
		meter:             meter,
		detectionCounter:  detectionCounter,
		detectionDuration: detectionDuration,
	}
}

// RecordDetection records one detection call with its outcome.
func (o *Observability) RecordDetection(ctx context.Context, outcome string, duration time.Duration) {
	if o.detectionCounter != nil {
		o.detectionCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
	if o.detectionDuration != nil {
		o.detectionDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

// Shutdown flushes the meter provider.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
