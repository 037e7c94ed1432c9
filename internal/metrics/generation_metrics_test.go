package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestGenerationMetrics_Creation(t *testing.T) {
	m, err := NewGenerationMetrics()
	require.NoError(t, err)
	assert.NotNil(t, m.runsStartedCounter)
	assert.NotNil(t, m.runsCompletedCounter)
	assert.NotNil(t, m.runsFailedCounter)
	assert.NotNil(t, m.fallbacksCounter)
	assert.NotNil(t, m.runDurationHistogram)
	assert.NotNil(t, m.runsActiveGauge)
}

func TestGenerationMetrics_RecordingDoesNotPanic(t *testing.T) {
	m, err := NewGenerationMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordRunStarted(ctx, "prompt")
		m.RecordFallback(ctx, "prompt", "spec", "credential")
		m.RecordRunCompleted(ctx, "prompt", OutcomeFallback, 1200*time.Millisecond)
		m.RecordRunFinished(ctx, "prompt")
		m.RecordRunStarted(ctx, "image")
		m.RecordRunFailed(ctx, "image", 10*time.Millisecond)
		m.RecordRunFinished(ctx, "image")
	})
}

func TestGenerationMetrics_ExportsThroughProvider(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	// The package meter delegates to whatever global provider is installed.
	m, err := NewGenerationMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordRunStarted(ctx, "prompt")
	m.RecordRunCompleted(ctx, "prompt", OutcomeGenerated, time.Second)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			names[md.Name] = true
		}
	}
	assert.True(t, names["landing.runs.started"])
	assert.True(t, names["landing.runs.completed"])
	assert.True(t, names["landing.run.duration"])
}
