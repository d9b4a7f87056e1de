// Package otel exports the sync client's spans over OTLP/HTTP.
package otel

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// AttrSyncEndpoint tags exported spans with the palace endpoint they target.
const AttrSyncEndpoint = attribute.Key("palace.endpoint")

// Config selects where spans are exported and how the process is described.
type Config struct {
	Endpoint string `env:"PALACE_SYNC_OTEL_ENDPOINT"`
	Enabled  string `env:"PALACE_SYNC_OTEL_ENABLED"`
	// SampleRatio keeps this fraction of root traces; values outside (0,1)
	// keep every trace.
	SampleRatio float64 `env:"PALACE_SYNC_OTEL_SAMPLE_RATIO"`
	// Version and SyncEndpoint are copied from the client config.
	Version      string
	SyncEndpoint string
}

// enabled reports whether spans would be exported for cfg.
func (c Config) enabled() bool {
	if strings.EqualFold(strings.TrimSpace(c.Enabled), "false") {
		return false
	}
	return strings.TrimSpace(c.Endpoint) != ""
}

// Setup registers a global tracer provider for the sync client.
//
// Tracing is opt-in: without an OTLP endpoint, or with Enabled set to
// "false", Setup returns a no-op shutdown and leaves the global provider
// alone. The returned shutdown flushes pending spans.
func Setup(ctx context.Context, serviceName string, cfg Config) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if !cfg.enabled() {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(strings.TrimSpace(cfg.Endpoint)))
	if err != nil {
		return noop, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := NewResource(ctx, serviceName, cfg)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg.SampleRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp.Shutdown, nil
}

// NewResource describes the sync process: service name, client version,
// and the palace endpoint when one is configured.
func NewResource(ctx context.Context, serviceName string, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(serviceName)}
	if version := strings.TrimSpace(cfg.Version); version != "" {
		attrs = append(attrs, semconv.ServiceVersion(version))
	}
	if endpoint := strings.TrimSpace(cfg.SyncEndpoint); endpoint != "" {
		attrs = append(attrs, AttrSyncEndpoint.String(endpoint))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}
	return res, nil
}

// Sampler honors a parent's decision and samples root spans by ratio.
func Sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}
