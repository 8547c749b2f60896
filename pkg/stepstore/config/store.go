package config

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randalmurphal/stepstore/pkg/stepstore/checkpoint"
	"github.com/randalmurphal/stepstore/pkg/stepstore/codec"
	"github.com/randalmurphal/stepstore/pkg/stepstore/observability"
)

// StoreSection is the key of the optional section holding store settings.
const StoreSection = "checkpoint"

// Metrics settings.
const (
	MetricsOff        = ""
	MetricsOTel       = "otel"
	MetricsPrometheus = "prometheus"
)

// StoreConfig describes one checkpoint series and where it lives.
type StoreConfig struct {
	// Backend is "dir", "memory", "sqlite" or "bolt".
	Backend string

	// Location is the directory for "dir", or "<db path>#<name>" for "sqlite"
	// and "bolt".
	Location string

	// Prefix names the series.
	Prefix string

	// Keep is the retention window.
	Keep int

	// Codec is a codec name accepted by codec.ByName.
	Codec string

	// Retries is the number of attempts for transient backend failures.
	// Values above 1 enable checkpoint.DefaultRetry backoff.
	Retries int

	// Metrics selects the metrics recorder: "" (off), "otel" or "prometheus".
	// Prometheus collectors go to prometheus.DefaultRegisterer.
	Metrics string

	// Tracing enables OpenTelemetry spans.
	Tracing bool
}

// DefaultStoreConfig returns the settings used for missing keys.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Backend:  checkpoint.BackendDir,
		Location: "checkpoints",
		Prefix:   "checkpoint",
		Keep:     checkpoint.DefaultKeep,
		Codec:    codec.NameJSON,
		Retries:  1,
	}
}

// Store extracts store settings from the "checkpoint" section, or from the
// top level when there is no such section.
func (c Config) Store() StoreConfig {
	src := c
	if sub, ok := c.Sub(StoreSection); ok {
		src = sub
	}

	def := DefaultStoreConfig()
	return StoreConfig{
		Backend:  src.String("backend", def.Backend),
		Location: src.String("location", def.Location),
		Prefix:   src.String("prefix", def.Prefix),
		Keep:     src.Int("keep", def.Keep),
		Codec:    src.String("codec", def.Codec),
		Retries:  src.Int("retries", def.Retries),
		Metrics:  metricsSetting(src, def.Metrics),
		Tracing:  src.Bool("tracing", def.Tracing),
	}
}

// metricsSetting accepts "metrics: otel" as well as "metrics: true".
func metricsSetting(c Config, defaultVal string) string {
	if c.Bool("metrics", false) {
		return MetricsOTel
	}
	return c.String("metrics", defaultVal)
}

// LoadStore reads store settings from a YAML, JSON or TOML file.
func LoadStore(path string) (StoreConfig, error) {
	cfg, err := FromFile(path)
	if err != nil {
		return StoreConfig{}, err
	}
	sc := cfg.Store()
	if err := sc.Validate(); err != nil {
		return StoreConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Validate checks the settings without touching the backend.
func (sc StoreConfig) Validate() error {
	switch sc.Backend {
	case checkpoint.BackendDir, checkpoint.BackendMemory, checkpoint.BackendSQLite, checkpoint.BackendBolt:
	default:
		return fmt.Errorf("unknown backend %q", sc.Backend)
	}
	if sc.Backend != checkpoint.BackendMemory && sc.Location == "" {
		return fmt.Errorf("backend %q requires a location", sc.Backend)
	}
	if err := checkpoint.ValidatePrefix(sc.Prefix); err != nil {
		return err
	}
	if sc.Keep < 1 {
		return fmt.Errorf("%w: %d", checkpoint.ErrInvalidKeep, sc.Keep)
	}
	switch sc.Metrics {
	case MetricsOff, MetricsOTel, MetricsPrometheus:
	default:
		return fmt.Errorf("unknown metrics setting %q", sc.Metrics)
	}
	if sc.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", sc.Retries)
	}
	return nil
}

// OpenBackend opens the configured backend.
func (sc StoreConfig) OpenBackend() (checkpoint.Backend, error) {
	return checkpoint.OpenBackend(sc.Backend, sc.Location)
}

// Options returns the store options implied by the settings.
func (sc StoreConfig) Options(logger *slog.Logger) ([]checkpoint.Option, error) {
	opts := []checkpoint.Option{
		checkpoint.WithKeep(sc.Keep),
		checkpoint.WithLogger(logger),
	}
	if sc.Retries > 1 {
		p := checkpoint.DefaultRetry
		p.MaxAttempts = sc.Retries
		opts = append(opts, checkpoint.WithRetry(p))
	}
	switch sc.Metrics {
	case MetricsOTel:
		opts = append(opts, checkpoint.WithMetrics(observability.NewMetricsRecorder()))
	case MetricsPrometheus:
		rec, err := observability.NewPrometheusRecorder(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, fmt.Errorf("prometheus metrics: %w", err)
		}
		opts = append(opts, checkpoint.WithMetrics(rec))
	}
	if sc.Tracing {
		opts = append(opts, checkpoint.WithSpanManager(observability.NewSpanManager()))
	}
	return opts, nil
}

// OpenStore validates sc and opens a store for values of type V.
func OpenStore[V any](sc StoreConfig, logger *slog.Logger) (*checkpoint.Store[V], error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	c, err := codec.ByName[V](sc.Codec)
	if err != nil {
		return nil, err
	}

	opts, err := sc.Options(logger)
	if err != nil {
		return nil, err
	}

	backend, err := sc.OpenBackend()
	if err != nil {
		return nil, err
	}

	store, err := checkpoint.NewStore[V](backend, sc.Prefix, c, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return store, nil
}
