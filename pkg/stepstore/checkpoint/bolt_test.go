package checkpoint_test

import (
	"path/filepath"
	"testing"

	"github.com/randalmurphal/stepstore/pkg/stepstore/checkpoint"
	"github.com/randalmurphal/stepstore/pkg/stepstore/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltBackend_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.bolt")

	b1, err := checkpoint.NewBoltBackend(path, "")
	require.NoError(t, err)
	require.NoError(t, checkpoint.SaveCheckpointTo(b1, object1, checkpoint.FloatStep(0.5), "test", 1))
	require.NoError(t, b1.Close())

	b2, err := checkpoint.NewBoltBackend(path, "")
	require.NoError(t, err)
	defer b2.Close()

	restored, err := checkpoint.RestoreCheckpointFrom(b2, object0, "test")
	require.NoError(t, err)
	assert.Equal(t, object1, restored)
	assert.Equal(t, path+"#"+checkpoint.DefaultBucket, b2.Location())
}

func TestBoltBackend_NamesInByteOrder(t *testing.T) {
	b, err := checkpoint.NewBoltBackend(filepath.Join(t.TempDir(), "test.bolt"), "test")
	require.NoError(t, err)
	defer b.Close()

	for _, name := range []string{"test_10", "test_9", "test_1.0"} {
		require.NoError(t, b.WriteAtomic(name, []byte("{}")))
	}

	names, err := b.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"test_1.0", "test_10", "test_9"}, names)

	// The store still orders by step.
	s, err := checkpoint.NewStore[params](b, "test", codec.JSON[params]{})
	require.NoError(t, err)
	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "test_1.0", entries[0].Name)
	assert.Equal(t, "test_9", entries[1].Name)
	assert.Equal(t, "test_10", entries[2].Name)
}

func TestBoltBackend_BucketsAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.bolt")

	a, err := checkpoint.NewBoltBackend(path, "a")
	require.NoError(t, err)
	require.NoError(t, a.WriteAtomic("test_1", []byte("a")))
	require.NoError(t, a.Close())

	b, err := checkpoint.NewBoltBackend(path, "b")
	require.NoError(t, err)
	defer b.Close()

	names, err := b.Names()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestBoltBackend_Closed(t *testing.T) {
	b, err := checkpoint.NewBoltBackend(filepath.Join(t.TempDir(), "test.bolt"), "test")
	require.NoError(t, err)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err = b.Names()
	assert.ErrorIs(t, err, checkpoint.ErrBackendClosed)
	assert.ErrorIs(t, b.WriteAtomic("test_1", []byte("x")), checkpoint.ErrBackendClosed)
	_, err = b.Read("test_1")
	assert.ErrorIs(t, err, checkpoint.ErrBackendClosed)
}

func TestBoltBackend_InvalidPath(t *testing.T) {
	_, err := checkpoint.NewBoltBackend(filepath.Join(t.TempDir(), "missing", "dir", "test.bolt"), "")
	assert.Error(t, err)
}
