// Package otel wires OpenTelemetry tracing for scrapkart binaries.
package otel

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	// EndpointEnv names the OTLP/HTTP collector URL.
	EndpointEnv = "SCRAPKART_OTEL_ENDPOINT"
	// EnabledEnv disables export when set to "false".
	EnabledEnv = "SCRAPKART_OTEL_ENABLED"
	// SampleRatioEnv sets the fraction of root traces kept, 0 to 1.
	SampleRatioEnv = "SCRAPKART_OTEL_SAMPLE_RATIO"
)

// Setup installs a global tracer provider exporting to the collector named
// by SCRAPKART_OTEL_ENDPOINT.
//
// Tracing is opt-in. With no endpoint, or SCRAPKART_OTEL_ENABLED=false, the
// global no-op tracer stays in place and the returned shutdown does nothing.
// The shutdown function flushes pending spans.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	endpoint := strings.TrimSpace(os.Getenv(EndpointEnv))
	if endpoint == "" || strings.EqualFold(os.Getenv(EnabledEnv), "false") {
		return noop, nil
	}
	ratio, err := sampleRatio(os.Getenv(SampleRatioEnv))
	if err != nil {
		return noop, err
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noop, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(serviceName),
		semconv.ServiceNamespace("scrapkart"),
	))
	if err != nil {
		return noop, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

func sampleRatio(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return 0, fmt.Errorf("%s must be between 0 and 1, got %q", SampleRatioEnv, raw)
	}
	return ratio, nil
}
