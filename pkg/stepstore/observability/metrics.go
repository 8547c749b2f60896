package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records checkpoint metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordSave records a save with the written size, duration and error status.
	RecordSave(ctx context.Context, prefix string, sizeBytes int64, duration time.Duration, err error)

	// RecordRestore records a restore. found is false when the template was returned.
	RecordRestore(ctx context.Context, prefix string, found bool, duration time.Duration, err error)

	// RecordEvictions records checkpoints removed by the retention window.
	RecordEvictions(ctx context.Context, prefix string, count int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	saves          metric.Int64Counter
	saveLatency    metric.Float64Histogram
	saveErrors     metric.Int64Counter
	restores       metric.Int64Counter
	restoreLatency metric.Float64Histogram
	restoreErrors  metric.Int64Counter
	evictions      metric.Int64Counter
	checkpointSize metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter("stepstore"))
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates the instruments on meter.
func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	saves, err := meter.Int64Counter("stepstore.checkpoint.saves",
		metric.WithDescription("Number of checkpoint saves"),
	)
	if err != nil {
		return nil, err
	}

	saveLatency, err := meter.Float64Histogram("stepstore.checkpoint.save_latency_ms",
		metric.WithDescription("Checkpoint save latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	saveErrors, err := meter.Int64Counter("stepstore.checkpoint.save_errors",
		metric.WithDescription("Number of failed checkpoint saves"),
	)
	if err != nil {
		return nil, err
	}

	restores, err := meter.Int64Counter("stepstore.checkpoint.restores",
		metric.WithDescription("Number of checkpoint restores"),
	)
	if err != nil {
		return nil, err
	}

	restoreLatency, err := meter.Float64Histogram("stepstore.checkpoint.restore_latency_ms",
		metric.WithDescription("Checkpoint restore latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	restoreErrors, err := meter.Int64Counter("stepstore.checkpoint.restore_errors",
		metric.WithDescription("Number of failed checkpoint restores"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter("stepstore.checkpoint.evictions",
		metric.WithDescription("Number of checkpoints removed by retention"),
	)
	if err != nil {
		return nil, err
	}

	checkpointSize, err := meter.Int64Histogram("stepstore.checkpoint.size_bytes",
		metric.WithDescription("Checkpoint size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		saves:          saves,
		saveLatency:    saveLatency,
		saveErrors:     saveErrors,
		restores:       restores,
		restoreLatency: restoreLatency,
		restoreErrors:  restoreErrors,
		evictions:      evictions,
		checkpointSize: checkpointSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderWithMeter returns a recorder bound to a specific meter
// instead of the global provider.
func NewMetricsRecorderWithMeter(meter metric.Meter) (MetricsRecorder, error) {
	m, err := newOtelMetrics(meter)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordSave records a checkpoint save.
func (m *otelMetrics) RecordSave(ctx context.Context, prefix string, sizeBytes int64, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("prefix", prefix))

	m.saves.Add(ctx, 1, attrs)
	m.saveLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.saveErrors.Add(ctx, 1, attrs)
		return
	}
	m.checkpointSize.Record(ctx, sizeBytes, attrs)
}

// RecordRestore records a checkpoint restore.
func (m *otelMetrics) RecordRestore(ctx context.Context, prefix string, found bool, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("prefix", prefix),
		attribute.Bool("found", found),
	)

	m.restores.Add(ctx, 1, attrs)
	m.restoreLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.restoreErrors.Add(ctx, 1, attrs)
	}
}

// RecordEvictions records checkpoints removed by retention.
func (m *otelMetrics) RecordEvictions(ctx context.Context, prefix string, count int) {
	if count <= 0 {
		return
	}
	m.evictions.Add(ctx, int64(count), metric.WithAttributes(attribute.String("prefix", prefix)))
}
