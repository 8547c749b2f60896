// Package observability provides logging, metrics, and tracing for
// checkpoint operations.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry or Prometheus
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// EnrichLogger adds series context to a logger.
// Returns a new logger with location and prefix fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "/ckpt", "model")
//	enriched.Info("saving") // includes location, prefix
func EnrichLogger(logger *slog.Logger, location, prefix string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("location", location),
		slog.String("prefix", prefix),
	)
}

// LogSave logs a completed checkpoint write.
func LogSave(logger *slog.Logger, step string, sizeBytes int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.String("step", step),
		slog.Int("size_bytes", sizeBytes),
		slog.String("size", humanize.IBytes(uint64(sizeBytes))),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogEvict logs removal of a checkpoint that fell outside the retention window.
func LogEvict(logger *slog.Logger, step string, keep int) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint evicted",
		slog.String("step", step),
		slog.Int("keep", keep),
	)
}

// LogRestore logs a successful restore.
func LogRestore(logger *slog.Logger, step string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Info("checkpoint restored",
		slog.String("step", step),
		slog.Int("size_bytes", sizeBytes),
		slog.String("size", humanize.IBytes(uint64(sizeBytes))),
	)
}

// LogRestoreMiss logs a restore that found no checkpoint and fell back
// to the template.
func LogRestoreMiss(logger *slog.Logger) {
	if logger == nil {
		return
	}
	logger.Info("no checkpoint found, using template")
}

// LogCheckpointError logs a failed checkpoint operation.
func LogCheckpointError(logger *slog.Logger, op string, step string, err error) {
	if logger == nil {
		return
	}
	logger.Error("checkpoint operation failed",
		slog.String("operation", op),
		slog.String("step", step),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
