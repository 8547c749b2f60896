package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandler captures log records for testing.
type testHandler struct {
	buf    *bytes.Buffer
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func newTestHandler() *testHandler {
	return &testHandler{
		buf:   &bytes.Buffer{},
		level: slog.LevelDebug,
	}
}

func (h *testHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	// Build a map from the record
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}

	// Add pre-configured attrs
	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Any()
	}

	// Add record attrs
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})

	// Encode as JSON
	enc := json.NewEncoder(h.buf)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return nil
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := &testHandler{
		buf:    h.buf,
		level:  h.level,
		attrs:  make([]slog.Attr, len(h.attrs)+len(attrs)),
		groups: h.groups,
	}
	copy(newH.attrs, h.attrs)
	copy(newH.attrs[len(h.attrs):], attrs)
	return newH
}

func (h *testHandler) WithGroup(name string) slog.Handler {
	newH := &testHandler{
		buf:    h.buf,
		level:  h.level,
		attrs:  h.attrs,
		groups: append(h.groups, name),
	}
	return newH
}

func (h *testHandler) getLastRecord() map[string]any {
	lines := bytes.Split(h.buf.Bytes(), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if len(lines[i]) > 0 {
			var m map[string]any
			if err := json.Unmarshal(lines[i], &m); err == nil {
				return m
			}
		}
	}
	return nil
}

func (h *testHandler) getAllRecords() []map[string]any {
	var records []map[string]any
	lines := bytes.Split(h.buf.Bytes(), []byte("\n"))
	for _, line := range lines {
		if len(line) > 0 {
			var m map[string]any
			if err := json.Unmarshal(line, &m); err == nil {
				records = append(records, m)
			}
		}
	}
	return records
}

func TestEnrichLogger(t *testing.T) {
	t.Run("adds location and prefix", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		enriched := EnrichLogger(logger, "/tmp/ckpt", "model")
		enriched.Info("test message")

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "/tmp/ckpt", record["location"])
		assert.Equal(t, "model", record["prefix"])
	})

	t.Run("nil logger returns nil", func(t *testing.T) {
		assert.Nil(t, EnrichLogger(nil, "/tmp", "model"))
	})
}

func TestLogSave(t *testing.T) {
	h := newTestHandler()
	LogSave(slog.New(h), "3.0", 2048, 1.5)

	record := h.getLastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, "checkpoint saved", record["msg"])
	assert.Equal(t, "3.0", record["step"])
	assert.EqualValues(t, 2048, record["size_bytes"])
	assert.Equal(t, "2.0 KiB", record["size"])
	assert.EqualValues(t, 1.5, record["duration_ms"])
}

func TestLogEvict(t *testing.T) {
	h := newTestHandler()
	LogEvict(slog.New(h), "1", 2)

	record := h.getLastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "checkpoint evicted", record["msg"])
	assert.Equal(t, "1", record["step"])
	assert.EqualValues(t, 2, record["keep"])
}

func TestLogRestore(t *testing.T) {
	h := newTestHandler()
	logger := slog.New(h)

	LogRestore(logger, "4", 64)
	LogRestoreMiss(logger)

	records := h.getAllRecords()
	require.Len(t, records, 2)
	assert.Equal(t, "checkpoint restored", records[0]["msg"])
	assert.Equal(t, "4", records[0]["step"])
	assert.Equal(t, "64 B", records[0]["size"])
	assert.Equal(t, "INFO", records[1]["level"])
	assert.Equal(t, "no checkpoint found, using template", records[1]["msg"])
}

func TestLogCheckpointError(t *testing.T) {
	h := newTestHandler()
	LogCheckpointError(slog.New(h), "save", "7", errors.New("disk full"))

	record := h.getLastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "save", record["operation"])
	assert.Equal(t, "7", record["step"])
	assert.Equal(t, "disk full", record["error"])
}

func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogSave(nil, "1", 1, 1)
		LogEvict(nil, "1", 1)
		LogRestore(nil, "1", 1)
		LogRestoreMiss(nil)
		LogCheckpointError(nil, "save", "1", errors.New("x"))
	})
}

func TestLogHelpers_LevelFiltering(t *testing.T) {
	h := newTestHandler()
	h.level = slog.LevelInfo
	logger := slog.New(h)

	LogSave(logger, "1", 1, 1)
	LogEvict(logger, "0", 1)
	assert.Empty(t, h.getAllRecords(), "debug records should be filtered")

	LogRestore(logger, "1", 1)
	assert.Len(t, h.getAllRecords(), 1)
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, done(), 5.0)
}
