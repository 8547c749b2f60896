package observability

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// promMetrics implements MetricsRecorder using Prometheus collectors.
type promMetrics struct {
	saves          *prometheus.CounterVec   // By prefix
	saveErrors     *prometheus.CounterVec   // By prefix
	saveLatency    *prometheus.HistogramVec // By prefix
	checkpointSize *prometheus.HistogramVec // By prefix
	restores       *prometheus.CounterVec   // By prefix and found
	restoreErrors  *prometheus.CounterVec   // By prefix
	restoreLatency *prometheus.HistogramVec // By prefix
	evictions      *prometheus.CounterVec   // By prefix
}

// NewPrometheusRecorder returns a MetricsRecorder whose collectors are
// registered with reg. Collectors already registered by an earlier call are
// reused, so several stores may share one registry.
func NewPrometheusRecorder(reg prometheus.Registerer) (MetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	latencyBuckets := []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0}
	m := &promMetrics{
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepstore",
			Subsystem: "checkpoint",
			Name:      "saves_total",
			Help:      "Total number of checkpoint saves",
		}, []string{"prefix"}),
		saveErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepstore",
			Subsystem: "checkpoint",
			Name:      "save_errors_total",
			Help:      "Total number of failed checkpoint saves",
		}, []string{"prefix"}),
		saveLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stepstore",
			Subsystem: "checkpoint",
			Name:      "save_duration_seconds",
			Help:      "Checkpoint save duration in seconds",
			Buckets:   latencyBuckets,
		}, []string{"prefix"}),
		checkpointSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stepstore",
			Subsystem: "checkpoint",
			Name:      "size_bytes",
			Help:      "Size of saved checkpoints in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}, []string{"prefix"}),
		restores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepstore",
			Subsystem: "checkpoint",
			Name:      "restores_total",
			Help:      "Total number of checkpoint restores",
		}, []string{"prefix", "found"}),
		restoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepstore",
			Subsystem: "checkpoint",
			Name:      "restore_errors_total",
			Help:      "Total number of failed checkpoint restores",
		}, []string{"prefix"}),
		restoreLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stepstore",
			Subsystem: "checkpoint",
			Name:      "restore_duration_seconds",
			Help:      "Checkpoint restore duration in seconds",
			Buckets:   latencyBuckets,
		}, []string{"prefix"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepstore",
			Subsystem: "checkpoint",
			Name:      "evictions_total",
			Help:      "Total number of checkpoints removed by retention",
		}, []string{"prefix"}),
	}

	var err error
	if m.saves, err = register(reg, m.saves); err != nil {
		return nil, err
	}
	if m.saveErrors, err = register(reg, m.saveErrors); err != nil {
		return nil, err
	}
	if m.saveLatency, err = register(reg, m.saveLatency); err != nil {
		return nil, err
	}
	if m.checkpointSize, err = register(reg, m.checkpointSize); err != nil {
		return nil, err
	}
	if m.restores, err = register(reg, m.restores); err != nil {
		return nil, err
	}
	if m.restoreErrors, err = register(reg, m.restoreErrors); err != nil {
		return nil, err
	}
	if m.restoreLatency, err = register(reg, m.restoreLatency); err != nil {
		return nil, err
	}
	if m.evictions, err = register(reg, m.evictions); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c, or returns the collector already registered under
// the same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSave records a checkpoint save.
func (m *promMetrics) RecordSave(_ context.Context, prefix string, sizeBytes int64, duration time.Duration, err error) {
	m.saves.WithLabelValues(prefix).Inc()
	m.saveLatency.WithLabelValues(prefix).Observe(duration.Seconds())
	if err != nil {
		m.saveErrors.WithLabelValues(prefix).Inc()
		return
	}
	m.checkpointSize.WithLabelValues(prefix).Observe(float64(sizeBytes))
}

// RecordRestore records a checkpoint restore.
func (m *promMetrics) RecordRestore(_ context.Context, prefix string, found bool, duration time.Duration, err error) {
	m.restores.WithLabelValues(prefix, strconv.FormatBool(found)).Inc()
	m.restoreLatency.WithLabelValues(prefix).Observe(duration.Seconds())
	if err != nil {
		m.restoreErrors.WithLabelValues(prefix).Inc()
	}
}

// RecordEvictions records checkpoints removed by retention.
func (m *promMetrics) RecordEvictions(_ context.Context, prefix string, count int) {
	if count <= 0 {
		return
	}
	m.evictions.WithLabelValues(prefix).Add(float64(count))
}
