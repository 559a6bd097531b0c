package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records smart-search request metrics through OpenTelemetry.
// The zero value is usable and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	searchCounter  otelmetric.Int64Counter
	searchDuration otelmetric.Float64Histogram
	resultCount    otelmetric.Int64Histogram
}

// New exports through the Prometheus default registry and installs the
// provider globally.
func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}
	o, err := NewWithReader(serviceName, exporter)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(o.meterProvider)
	return o, nil
}

// NewWithReader builds the instruments on a caller supplied reader.
func NewWithReader(serviceName string, reader metric.Reader) (*Observability, error) {
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	meter := provider.Meter(serviceName)

	searchCounter, err := meter.Int64Counter(
		"search.requests",
		otelmetric.WithDescription("Smart search requests by status"),
	)
	if err != nil {
		return nil, err
	}

	searchDuration, err := meter.Float64Histogram(
		"search.duration",
		otelmetric.WithDescription("Smart search latency"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	resultCount, err := meter.Int64Histogram(
		"search.results",
		otelmetric.WithDescription("Listings returned per smart search"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider:  provider,
		searchCounter:  searchCounter,
		searchDuration: searchDuration,
		resultCount:    resultCount,
	}, nil
}

// RecordSearchRequest records one smart search. backend is "postgres" or
// "elasticsearch"; status is "ok", "invalid" or "error".
func (o *Observability) RecordSearchRequest(ctx context.Context, backend, status string, duration time.Duration, results int) {
	if o == nil || o.searchCounter == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("status", status),
	)
	o.searchCounter.Add(ctx, 1, attrs)
	o.searchDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if status == "ok" {
		o.resultCount.Record(ctx, int64(results), otelmetric.WithAttributes(attribute.String("backend", backend)))
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
