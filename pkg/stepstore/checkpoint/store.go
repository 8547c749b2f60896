package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/stepstore/pkg/stepstore/codec"
	"github.com/randalmurphal/stepstore/pkg/stepstore/observability"
)

// DefaultKeep is the retention window used when WithKeep is not given.
const DefaultKeep = 1

// Store manages one checkpoint series in a backend.
//
// Store assumes a single writer. Concurrent readers see either the previous
// or the new checkpoint for a step, never a partial one.
type Store[V any] struct {
	backend Backend
	prefix  string
	codec   codec.Codec[V]
	keep    int
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	retry   RetryPolicy
}

// storeConfig holds options for NewStore.
type storeConfig struct {
	keep    int
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	retry   RetryPolicy
}

// Option configures a Store.
type Option func(*storeConfig)

// WithKeep sets how many checkpoints Save retains.
// Default: 1
func WithKeep(n int) Option {
	return func(c *storeConfig) {
		c.keep = n
	}
}

// WithLogger enables structured logging of saves, evictions and restores.
// Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *storeConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics{}
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *storeConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpanManager sets the span manager used for tracing.
// Default: observability.NoopSpanManager{}
func WithSpanManager(sm observability.SpanManager) Option {
	return func(c *storeConfig) {
		if sm != nil {
			c.spans = sm
		}
	}
}

// WithRetry retries transient backend failures.
// Default: NoRetry
func WithRetry(p RetryPolicy) Option {
	return func(c *storeConfig) {
		c.retry = p
	}
}

// NewStore creates a store for the series prefix in backend.
func NewStore[V any](backend Backend, prefix string, c codec.Codec[V], opts ...Option) (*Store[V], error) {
	if backend == nil {
		return nil, errors.New("checkpoint backend is nil")
	}
	if c == nil {
		return nil, errors.New("checkpoint codec is nil")
	}
	if err := ValidatePrefix(prefix); err != nil {
		return nil, err
	}

	cfg := storeConfig{
		keep:    DefaultKeep,
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
		retry:   NoRetry,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.keep < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKeep, cfg.keep)
	}

	return &Store[V]{
		backend: backend,
		prefix:  prefix,
		codec:   c,
		keep:    cfg.keep,
		logger:  observability.EnrichLogger(cfg.logger, backend.Location(), prefix),
		metrics: cfg.metrics,
		spans:   cfg.spans,
		retry:   cfg.retry,
	}, nil
}

// Prefix returns the series prefix.
func (s *Store[V]) Prefix() string {
	return s.prefix
}

// Keep returns the default retention window.
func (s *Store[V]) Keep() int {
	return s.keep
}

// Backend returns the underlying backend.
func (s *Store[V]) Backend() Backend {
	return s.backend
}

// List returns the series ordered by ascending step.
// Returns an empty slice (not error) if the series has no checkpoints.
func (s *Store[V]) List() ([]Entry, error) {
	entries, err := listSeries(s.backend, s.prefix)
	if err != nil {
		return nil, s.wrap("list", "", err)
	}
	return entries, nil
}

// Latest returns the entry with the largest step.
// ok is false if the series is empty.
func (s *Store[V]) Latest() (entry Entry, ok bool, err error) {
	entries, err := s.List()
	if err != nil || len(entries) == 0 {
		return Entry{}, false, err
	}
	return entries[len(entries)-1], true, nil
}

// Save writes value as the checkpoint for step and evicts all but the
// store's retention window. An existing checkpoint for the same step
// name is replaced.
func (s *Store[V]) Save(ctx context.Context, value V, step Step) error {
	return s.SaveKeep(ctx, value, step, s.keep)
}

// SaveKeep is Save with an explicit retention window for this call.
func (s *Store[V]) SaveKeep(ctx context.Context, value V, step Step, keep int) (err error) {
	stepText := step.String()
	if keep < 1 {
		return s.wrap("save", stepText, fmt.Errorf("%w: %d", ErrInvalidKeep, keep))
	}
	if err := step.Validate(); err != nil {
		return s.wrap("save", stepText, err)
	}

	ctx, span := s.spans.StartSaveSpan(ctx, s.backend.Location(), s.prefix, stepText)
	start := time.Now()
	var size int
	defer func() {
		s.spans.EndSpanWithError(span, err)
		s.metrics.RecordSave(ctx, s.prefix, int64(size), time.Since(start), err)
		if err != nil {
			observability.LogCheckpointError(s.logger, "save", stepText, err)
		}
	}()

	data, err := s.codec.Marshal(value)
	if err != nil {
		return s.wrap("save", stepText, fmt.Errorf("serialize with %s: %w", s.codec.Name(), err))
	}

	name := Name(s.prefix, step)
	if err := s.retry.run(ctx, func() error { return s.backend.WriteAtomic(name, data) }); err != nil {
		return s.wrap("save", stepText, err)
	}
	size = len(data)
	observability.LogSave(s.logger, stepText, size, float64(time.Since(start).Microseconds())/1000)

	return s.evict(ctx, keep)
}

// evict removes the smallest steps until keep entries remain.
func (s *Store[V]) evict(ctx context.Context, keep int) error {
	entries, err := listSeries(s.backend, s.prefix)
	if err != nil {
		return s.wrap("evict", "", err)
	}
	if len(entries) <= keep {
		return nil
	}

	removed := 0
	defer func() {
		s.metrics.RecordEvictions(ctx, s.prefix, removed)
	}()

	for _, e := range entries[:len(entries)-keep] {
		stepText := e.Step.String()
		if err := s.retry.run(ctx, func() error { return s.backend.Remove(e.Name) }); err != nil {
			return s.wrap("evict", stepText, err)
		}
		removed++
		observability.LogEvict(s.logger, stepText, keep)
		s.spans.AddSpanEvent(ctx, "checkpoint.evicted", attribute.String("checkpoint.step", stepText))
	}
	return nil
}

// Restore decodes the checkpoint with the largest step using template as
// the structural guide. If the series is empty, template is returned
// unchanged with a nil error. Corrupt data is an error; older checkpoints
// are not tried.
func (s *Store[V]) Restore(ctx context.Context, template V) (V, error) {
	return s.restore(ctx, template, nil)
}

// RestoreStep decodes the checkpoint whose step equals step numerically.
// Returns ErrNotFound if the series has no such step.
func (s *Store[V]) RestoreStep(ctx context.Context, template V, step Step) (V, error) {
	return s.restore(ctx, template, &step)
}

func (s *Store[V]) restore(ctx context.Context, template V, want *Step) (out V, err error) {
	ctx, span := s.spans.StartRestoreSpan(ctx, s.backend.Location(), s.prefix)
	start := time.Now()
	found := false
	stepText := ""
	defer func() {
		s.spans.EndSpanWithError(span, err)
		s.metrics.RecordRestore(ctx, s.prefix, found, time.Since(start), err)
		if err != nil {
			observability.LogCheckpointError(s.logger, "restore", stepText, err)
		}
	}()

	entries, err := listSeries(s.backend, s.prefix)
	if err != nil {
		return template, s.wrap("restore", "", err)
	}

	var entry Entry
	if want == nil {
		if len(entries) == 0 {
			observability.LogRestoreMiss(s.logger)
			return template, nil
		}
		entry = entries[len(entries)-1]
	} else {
		stepText = want.String()
		idx := -1
		for i, e := range entries {
			if e.Step.Float64() == want.Float64() {
				idx = i
			}
		}
		if idx < 0 {
			return template, s.wrap("restore", stepText, ErrNotFound)
		}
		entry = entries[idx]
	}

	found = true
	stepText = entry.Step.String()
	var data []byte
	err = s.retry.run(ctx, func() error {
		var readErr error
		data, readErr = s.backend.Read(entry.Name)
		return readErr
	})
	if err != nil {
		return template, s.wrap("restore", stepText, err)
	}

	out, err = s.codec.Unmarshal(data, template)
	if err != nil {
		return template, s.wrap("restore", stepText, fmt.Errorf("%w: %w", ErrCorrupt, err))
	}
	observability.LogRestore(s.logger, stepText, len(data))
	return out, nil
}

// Close closes the backend.
func (s *Store[V]) Close() error {
	return s.backend.Close()
}

func (s *Store[V]) wrap(op, step string, err error) error {
	return &Error{
		Op:       op,
		Location: s.backend.Location(),
		Prefix:   s.prefix,
		Step:     step,
		Err:      err,
	}
}
