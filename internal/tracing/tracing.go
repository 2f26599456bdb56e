// Package tracing configures the OpenTelemetry trace and metric pipelines.
// Spans and metrics are exported over OTLP/gRPC to a collector.
package tracing

import (
	"context"
	"crypto/tls"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/credentials"

	"github.com/donaldgifford/deal-scorer/internal/config"
)

// ShutdownFunc flushes pending telemetry and releases the exporter.
type ShutdownFunc func(context.Context) error

// Setup installs the global tracer provider and W3C propagators. When
// tracing is disabled it returns a no-op provider so callers need no
// special casing.
func Setup(ctx context.Context, cfg config.TracingConfig, version string) (trace.TracerProvider, ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(transportCredentials()))
	}

	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	tp, err := newProvider(ctx, cfg, version, exp)
	if err != nil {
		_ = exp.Shutdown(ctx)
		return nil, nil, err
	}

	otel.SetTracerProvider(tp)
	return tp, tp.Shutdown, nil
}

func newProvider(
	ctx context.Context,
	cfg config.TracingConfig,
	version string,
	exp sdktrace.SpanExporter,
) (*sdktrace.TracerProvider, error) {
	res, err := newResource(ctx, cfg, version)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	), nil
}

func newResource(ctx context.Context, cfg config.TracingConfig, version string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("building telemetry resource: %w", err)
	}
	return res, nil
}

func transportCredentials() credentials.TransportCredentials {
	return credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
}
