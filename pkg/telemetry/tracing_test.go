package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ekaya-inc/ekaya-features/pkg/config"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), config.TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.False(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), "resolve")
	require.False(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_UnsupportedExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), config.TracingConfig{Enabled: true, Exporter: "zipkin"})
	require.Error(t, err)
}

func TestNewProvider_NoExporter(t *testing.T) {
	provider, err := NewProvider(context.Background(), config.TracingConfig{Enabled: true, Exporter: "none"})
	require.NoError(t, err)
	require.True(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), "resolve")
	require.True(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestEndSpan_RecordsError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := newProvider(config.TracingConfig{Enabled: true, SampleRate: 1}, exporter)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	_, ok := provider.Tracer().Start(context.Background(), "materialize.load")
	EndSpan(ok, nil)
	_, failed := provider.Tracer().Start(context.Background(), "materialize.transform")
	EndSpan(failed, errors.New("Binder Error: column not found"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	require.Equal(t, codes.Unset, spans[0].Status.Code)
	require.Equal(t, codes.Error, spans[1].Status.Code)
	require.Len(t, spans[1].Events, 1)
}
