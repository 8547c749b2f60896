package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/stepstore/pkg/stepstore/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{"nil map", nil},
		{"empty map", map[string]any{}},
		{"with values", map[string]any{"key": "value"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(tt.data)
			assert.NotNil(t, cfg.Raw())
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]any
		key        string
		defaultVal string
		want       string
	}{
		{"key exists", map[string]any{"prefix": "model"}, "prefix", "default", "model"},
		{"key missing", map[string]any{"other": "value"}, "prefix", "default", "default"},
		{"empty string", map[string]any{"prefix": ""}, "prefix", "default", ""},
		{"wrong type int", map[string]any{"prefix": 123}, "prefix", "default", "default"},
		{"wrong type bool", map[string]any{"prefix": true}, "prefix", "default", "default"},
		{"nil map", nil, "prefix", "default", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(tt.data)
			assert.Equal(t, tt.want, cfg.String(tt.key, tt.defaultVal))
		})
	}
}

func TestBool(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]any
		defaultVal bool
		want       bool
	}{
		{"true", map[string]any{"metrics": true}, false, true},
		{"false", map[string]any{"metrics": false}, true, false},
		{"missing", map[string]any{}, true, true},
		{"string is not bool", map[string]any{"metrics": "true"}, false, false},
		{"int is not bool", map[string]any{"metrics": 1}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(tt.data)
			assert.Equal(t, tt.want, cfg.Bool("metrics", tt.defaultVal))
		})
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]any
		defaultVal int
		want       int
	}{
		{"int", map[string]any{"keep": 3}, 1, 3},
		{"int64", map[string]any{"keep": int64(4)}, 1, 4},
		{"whole float64", map[string]any{"keep": float64(5)}, 1, 5},
		{"fractional float64", map[string]any{"keep": 2.5}, 1, 1},
		{"negative", map[string]any{"keep": -2}, 1, -2},
		{"string", map[string]any{"keep": "3"}, 1, 1},
		{"missing", map[string]any{}, 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(tt.data)
			assert.Equal(t, tt.want, cfg.Int("keep", tt.defaultVal))
		})
	}
}

func TestSub(t *testing.T) {
	cfg := config.New(map[string]any{
		"checkpoint": map[string]any{"prefix": "model"},
		"flat":       "value",
	})

	sub, ok := cfg.Sub("checkpoint")
	require.True(t, ok)
	assert.Equal(t, "model", sub.String("prefix", ""))

	sub, ok = cfg.Sub("flat")
	assert.False(t, ok)
	assert.False(t, sub.Has("prefix"))

	_, ok = cfg.Sub("missing")
	assert.False(t, ok)
}

func TestHas(t *testing.T) {
	cfg := config.New(map[string]any{
		"exists": "value",
		"nil":    nil,
	})

	assert.True(t, cfg.Has("exists"))
	assert.True(t, cfg.Has("nil"))
	assert.False(t, cfg.Has("missing"))
}

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
checkpoint:
  backend: sqlite
  keep: 3
  tracing: true
`))
	require.NoError(t, err)

	sub, ok := cfg.Sub("checkpoint")
	require.True(t, ok)
	assert.Equal(t, "sqlite", sub.String("backend", ""))
	assert.Equal(t, 3, sub.Int("keep", 0))
	assert.True(t, sub.Bool("tracing", false))

	_, err = config.FromYAML([]byte("keep: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse yaml")

	cfg, err = config.FromYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Raw())
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{"checkpoint": {"keep": 2, "codec": "yaml"}}`))
	require.NoError(t, err)

	sub, ok := cfg.Sub("checkpoint")
	require.True(t, ok)
	assert.Equal(t, 2, sub.Int("keep", 0))
	assert.Equal(t, "yaml", sub.String("codec", ""))

	_, err = config.FromJSON([]byte(`{"keep":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse json")
}

func TestFromTOML(t *testing.T) {
	cfg, err := config.FromTOML([]byte(`
[checkpoint]
backend = "dir"
keep = 4
metrics = true
`))
	require.NoError(t, err)

	sub, ok := cfg.Sub("checkpoint")
	require.True(t, ok)
	assert.Equal(t, "dir", sub.String("backend", ""))
	assert.Equal(t, 4, sub.Int("keep", 0))
	assert.True(t, sub.Bool("metrics", false))

	_, err = config.FromTOML([]byte(`keep = `))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse toml")
}

func TestFromFile(t *testing.T) {
	tmpDir := t.TempDir()

	yamlPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("prefix: fromyaml\nkeep: 123"), 0o644))

	ymlPath := filepath.Join(tmpDir, "config.YML")
	require.NoError(t, os.WriteFile(ymlPath, []byte("prefix: fromyml\nkeep: 456"), 0o644))

	jsonPath := filepath.Join(tmpDir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"prefix": "fromjson", "keep": 789}`), 0o644))

	tomlPath := filepath.Join(tmpDir, "config.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("prefix = \"fromtoml\"\nkeep = 10"), 0o644))

	txtPath := filepath.Join(tmpDir, "config.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("content"), 0o644))

	tests := []struct {
		name       string
		path       string
		wantErr    string
		wantPrefix string
		wantKeep   int
	}{
		{name: "yaml file", path: yamlPath, wantPrefix: "fromyaml", wantKeep: 123},
		{name: "uppercase yml file", path: ymlPath, wantPrefix: "fromyml", wantKeep: 456},
		{name: "json file", path: jsonPath, wantPrefix: "fromjson", wantKeep: 789},
		{name: "toml file", path: tomlPath, wantPrefix: "fromtoml", wantKeep: 10},
		{name: "unsupported extension", path: txtPath, wantErr: "unsupported config file extension"},
		{name: "file not found", path: filepath.Join(tmpDir, "nonexistent.yaml"), wantErr: "read config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.FromFile(tt.path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrefix, cfg.String("prefix", ""))
			assert.Equal(t, tt.wantKeep, cfg.Int("keep", 0))
		})
	}
}
