/*
Package stepstore keeps step-keyed checkpoints of training state.

# Overview

A checkpoint series is a set of entries named "{prefix}_{step}" in one
location. Saving writes the new entry atomically and then evicts all but the
entries with the largest steps. Restoring reads the entry with the largest
step, or returns the caller's template when the series is empty.

Steps are ordered numerically, not lexically, so "model_9" sorts before
"model_10" and "model_1e1" ties with "model_10".

The library is split into:
  - natsort: the natural-order comparator used to order entry names
  - checkpoint: Step, Store[V], and the dir, memory and SQLite backends
  - codec: value serialization (JSON, YAML, protobuf-encoded trees)
  - observability: slog helpers, OpenTelemetry metrics and spans
  - config: YAML, JSON and TOML settings that open a Store

# Basic Usage

The package-level functions work on a directory with the JSON codec:

	type Params map[string][]float32

	err := checkpoint.SaveCheckpoint(dir, params, checkpoint.IntStep(100), "model", 3)
	if err != nil {
	    log.Fatal(err)
	}

	params, err = checkpoint.RestoreCheckpoint(dir, Params{}, "model")

# Stores

A Store binds a backend, prefix and codec once:

	backend, err := checkpoint.NewSQLiteBackend("./runs.db", "experiment-7")
	if err != nil {
	    log.Fatal(err)
	}
	store, err := checkpoint.NewStore[codec.Tree](backend, "params", codec.TreeProto{},
	    checkpoint.WithKeep(3),
	    checkpoint.WithLogger(logger),
	    checkpoint.WithMetrics(observability.NewMetricsRecorder()),
	    checkpoint.WithSpanManager(observability.NewSpanManager()),
	)
	defer store.Close()

	if err := store.Save(ctx, tree, checkpoint.FloatStep(0.5)); err != nil {
	    log.Fatal(err)
	}
	latest, err := store.Restore(ctx, template)

# Durability

The dir backend writes to "{name}.tmp", syncs, and renames over the final
name. A crash leaves either the previous entry or the new one, plus at most a
stray temp file that listing ignores. Store assumes a single writer per series.
*/
package stepstore
