package checkpoint

import (
	"context"

	"github.com/randalmurphal/stepstore/pkg/stepstore/codec"
)

// ListCheckpoints returns the checkpoints of series prefix in dir ordered by
// ascending step. A missing directory is an empty series.
func ListCheckpoints(dir, prefix string) ([]Entry, error) {
	s, err := NewStore[[]byte](NewDirBackend(dir), prefix, codec.JSON[[]byte]{})
	if err != nil {
		return nil, err
	}
	return s.List()
}

// LatestCheckpoint returns the checkpoint with the largest step in dir.
// ok is false if the series is empty.
func LatestCheckpoint(dir, prefix string) (entry Entry, ok bool, err error) {
	entries, err := ListCheckpoints(dir, prefix)
	if err != nil || len(entries) == 0 {
		return Entry{}, false, err
	}
	return entries[len(entries)-1], true, nil
}

// SaveCheckpoint writes value as dir/{prefix}_{step} using the JSON codec and
// keeps only the keep checkpoints with the largest steps.
//
// Example:
//
//	err := checkpoint.SaveCheckpoint(dir, params, checkpoint.IntStep(100), "model", 3)
func SaveCheckpoint[V any](dir string, value V, step Step, prefix string, keep int) error {
	return SaveCheckpointWith[V](dir, codec.JSON[V]{}, value, step, prefix, keep)
}

// SaveCheckpointWith is SaveCheckpoint with an explicit codec.
func SaveCheckpointWith[V any](dir string, c codec.Codec[V], value V, step Step, prefix string, keep int) error {
	return saveTo[V](NewDirBackend(dir), c, value, step, prefix, keep)
}

// SaveCheckpointTo is SaveCheckpoint against any backend.
func SaveCheckpointTo[V any](b Backend, value V, step Step, prefix string, keep int) error {
	return saveTo[V](b, codec.JSON[V]{}, value, step, prefix, keep)
}

func saveTo[V any](b Backend, c codec.Codec[V], value V, step Step, prefix string, keep int) error {
	s, err := NewStore[V](b, prefix, c)
	if err != nil {
		return err
	}
	return s.SaveKeep(context.Background(), value, step, keep)
}

// RestoreCheckpoint decodes the latest checkpoint of series prefix in dir
// with the JSON codec. If there is none, template is returned unchanged.
func RestoreCheckpoint[V any](dir string, template V, prefix string) (V, error) {
	return RestoreCheckpointWith[V](dir, codec.JSON[V]{}, template, prefix)
}

// RestoreCheckpointWith is RestoreCheckpoint with an explicit codec.
func RestoreCheckpointWith[V any](dir string, c codec.Codec[V], template V, prefix string) (V, error) {
	return restoreFrom[V](NewDirBackend(dir), c, template, prefix)
}

// RestoreCheckpointFrom is RestoreCheckpoint against any backend.
func RestoreCheckpointFrom[V any](b Backend, template V, prefix string) (V, error) {
	return restoreFrom[V](b, codec.JSON[V]{}, template, prefix)
}

func restoreFrom[V any](b Backend, c codec.Codec[V], template V, prefix string) (V, error) {
	s, err := NewStore[V](b, prefix, c)
	if err != nil {
		return template, err
	}
	return s.Restore(context.Background(), template)
}
