package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("landing-generation")

// Run outcomes recorded on completed runs.
const (
	OutcomeGenerated = "generated"
	OutcomeFallback  = "fallback"
)

// GenerationMetrics records orchestration run counts and latency.
type GenerationMetrics struct {
	runsStartedCounter   metric.Int64Counter
	runsCompletedCounter metric.Int64Counter
	runsFailedCounter    metric.Int64Counter
	fallbacksCounter     metric.Int64Counter
	runDurationHistogram metric.Float64Histogram
	runsActiveGauge      metric.Int64UpDownCounter
}

// NewGenerationMetrics creates the instruments on the global meter provider
func NewGenerationMetrics() (*GenerationMetrics, error) {
	return newGenerationMetrics(meter)
}

// NewGenerationMetricsWithProvider creates the instruments on provider instead of the global one.
func NewGenerationMetricsWithProvider(provider metric.MeterProvider) (*GenerationMetrics, error) {
	return newGenerationMetrics(provider.Meter("landing-generation"))
}

func newGenerationMetrics(meter metric.Meter) (*GenerationMetrics, error) {
	runsStartedCounter, err := meter.Int64Counter(
		"landing.runs.started",
		metric.WithDescription("Total number of generation runs started"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	runsCompletedCounter, err := meter.Int64Counter(
		"landing.runs.completed",
		metric.WithDescription("Total number of generation runs that produced a page"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	runsFailedCounter, err := meter.Int64Counter(
		"landing.runs.failed",
		metric.WithDescription("Total number of generation runs that ended with an error event"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	fallbacksCounter, err := meter.Int64Counter(
		"landing.generation.fallbacks",
		metric.WithDescription("Generation calls replaced by a fallback"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	runDurationHistogram, err := meter.Float64Histogram(
		"landing.run.duration",
		metric.WithDescription("Duration of generation runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runsActiveGauge, err := meter.Int64UpDownCounter(
		"landing.runs.active",
		metric.WithDescription("Number of generation runs in flight"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	return &GenerationMetrics{
		runsStartedCounter:   runsStartedCounter,
		runsCompletedCounter: runsCompletedCounter,
		runsFailedCounter:    runsFailedCounter,
		fallbacksCounter:     fallbacksCounter,
		runDurationHistogram: runDurationHistogram,
		runsActiveGauge:      runsActiveGauge,
	}, nil
}

// RecordRunStarted records a new run. Every call must be paired with RecordRunFinished.
func (gm *GenerationMetrics) RecordRunStarted(ctx context.Context, mode string) {
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	gm.runsStartedCounter.Add(ctx, 1, attrs)
	gm.runsActiveGauge.Add(ctx, 1, attrs)
}

// RecordRunFinished marks a run as no longer in flight, however it ended.
func (gm *GenerationMetrics) RecordRunFinished(ctx context.Context, mode string) {
	gm.runsActiveGauge.Add(ctx, -1, metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordFallback records a generation call that failed and was substituted.
// stage is "spec" or "code"; errorClass comes from utils.ClassifyError.
func (gm *GenerationMetrics) RecordFallback(ctx context.Context, mode, stage, errorClass string) {
	gm.fallbacksCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("stage", stage),
			attribute.String("error.type", errorClass),
		),
	)
}

// RecordRunCompleted records a run that emitted a complete event
func (gm *GenerationMetrics) RecordRunCompleted(ctx context.Context, mode, outcome string, duration time.Duration) {
	gm.runsCompletedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("outcome", outcome),
		),
	)
	gm.runDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("status", "completed"),
		),
	)
}

// RecordRunFailed records a run that emitted an error event
func (gm *GenerationMetrics) RecordRunFailed(ctx context.Context, mode string, duration time.Duration) {
	gm.runsFailedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
	gm.runDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("status", "failed"),
		),
	)
}
