package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/donaldgifford/deal-scorer/internal/config"
)

func TestSetup_Disabled(t *testing.T) {
	tp, shutdown, err := Setup(context.Background(), config.TracingConfig{}, "dev")
	require.NoError(t, err)
	assert.IsType(t, noop.TracerProvider{}, tp)
	require.NoError(t, shutdown(context.Background()))

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
}

func TestNewProvider_ExportsWithResource(t *testing.T) {
	t.Parallel()

	exp := tracetest.NewInMemoryExporter()
	tp, err := newProvider(context.Background(), config.TracingConfig{
		ServiceName: "deal-scorer",
		SampleRatio: 1,
	}, "v1.2.3", exp)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "score")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "score", spans[0].Name)

	attrs := spans[0].Resource.Set()
	name, ok := attrs.Value(attribute.Key("service.name"))
	require.True(t, ok)
	assert.Equal(t, "deal-scorer", name.AsString())
	ver, ok := attrs.Value(attribute.Key("service.version"))
	require.True(t, ok)
	assert.Equal(t, "v1.2.3", ver.AsString())
}

func TestNewProvider_ZeroRatioDropsRootSpans(t *testing.T) {
	t.Parallel()

	exp := tracetest.NewInMemoryExporter()
	tp, err := newProvider(context.Background(), config.TracingConfig{
		ServiceName: "deal-scorer",
		SampleRatio: 0,
	}, "dev", exp)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "score")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	assert.Empty(t, exp.GetSpans())
}

func TestSetupMetrics_Disabled(t *testing.T) {
	t.Parallel()

	for _, cfg := range []config.TracingConfig{
		{},
		{Enabled: true},
		{Metrics: true},
	} {
		mp, shutdown, err := SetupMetrics(context.Background(), cfg, "dev")
		require.NoError(t, err)
		assert.IsType(t, metricnoop.MeterProvider{}, mp)
		require.NoError(t, shutdown(context.Background()))
	}
}

func TestNewMeterProvider_CollectsWithResource(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp, err := newMeterProvider(context.Background(), config.TracingConfig{
		ServiceName: "deal-scorer",
	}, "v1.2.3", reader)
	require.NoError(t, err)

	counter, err := mp.Meter("test").Int64Counter("webhook.requests")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	name, ok := rm.Resource.Set().Value("service.name")
	require.True(t, ok)
	assert.Equal(t, "deal-scorer", name.AsString())

	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	m := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "webhook.requests", m.Name)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)

	require.NoError(t, mp.Shutdown(context.Background()))
}
