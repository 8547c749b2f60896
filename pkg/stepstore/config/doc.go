/*
Package config provides type-safe configuration extraction from map[string]any
and turns it into checkpoint store settings.

# Basic Usage

Create a Config from any map and extract values with defaults:

	cfg := config.New(map[string]any{
	    "prefix": "model",
	    "keep":   3,
	})

	prefix := cfg.String("prefix", "checkpoint") // "model"
	keep := cfg.Int("keep", 1)                   // 3
	tracing := cfg.Bool("tracing", false)        // false

All accessors return the default when the key is missing or the value has the
wrong type. Int accepts int (YAML), int64 (TOML) and whole float64 (JSON).

# File Loading

FromFile picks the parser by extension (.yaml, .yml, .json, .toml):

	cfg, err := config.FromFile("stepstore.toml")

# Store Settings

Store settings live under a "checkpoint" section, or at the top level:

	[checkpoint]
	backend  = "sqlite"
	location = "runs.db#experiment-7"
	prefix   = "model"
	keep     = 3
	retries  = 5
	codec    = "json"
	metrics  = "prometheus" # or "otel"; true means "otel"
	tracing  = true

Open a store directly from them:

	sc, err := config.LoadStore("stepstore.toml")
	if err != nil {
	    log.Fatal(err)
	}
	store, err := config.OpenStore[map[string][]float32](sc, logger)

# Thread Safety

Config is safe for concurrent read access. The underlying map is not modified
after creation.
*/
package config
