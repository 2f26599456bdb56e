package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/donaldgifford/deal-scorer/internal/config"
)

// SetupMetrics installs the global meter provider used by OpenTelemetry
// instrumentation such as the outbound HTTP transport. Prometheus remains
// the source for service metrics; this pipeline only carries what the
// instrumentation libraries record. It is a no-op unless both tracing and
// metrics are enabled.
func SetupMetrics(ctx context.Context, cfg config.TracingConfig, version string) (metric.MeterProvider, ShutdownFunc, error) {
	if !cfg.Enabled || !cfg.Metrics {
		return metricnoop.NewMeterProvider(), func(context.Context) error { return nil }, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	} else {
		opts = append(opts, otlpmetricgrpc.WithTLSCredentials(transportCredentials()))
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("creating OTLP metric exporter: %w", err)
	}

	mp, err := newMeterProvider(ctx, cfg, version, sdkmetric.NewPeriodicReader(exp,
		sdkmetric.WithInterval(cfg.MetricInterval),
	))
	if err != nil {
		_ = exp.Shutdown(ctx)
		return nil, nil, err
	}

	otel.SetMeterProvider(mp)
	return mp, mp.Shutdown, nil
}

func newMeterProvider(
	ctx context.Context,
	cfg config.TracingConfig,
	version string,
	reader sdkmetric.Reader,
) (*sdkmetric.MeterProvider, error) {
	res, err := newResource(ctx, cfg, version)
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	), nil
}
