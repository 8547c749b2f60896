// Package checkpoint manages step-keyed checkpoint series.
//
// A series is every entry named prefix_<step> in one location. Saving writes
// a new entry atomically and evicts the oldest steps beyond a retention
// window; restoring decodes the entry with the largest step.
package checkpoint

import (
	"fmt"
	"strings"
)

// Backend stores named blobs in one flat location (a directory, a table, a
// map). Implementations must be safe for concurrent use.
type Backend interface {
	// Names returns the names of all entries, in the backend's enumeration
	// order. A location that doesn't exist yet has no names.
	Names() ([]string, error)

	// WriteAtomic stores data under name, replacing any existing entry.
	// Readers observe either the previous entry or the complete new one.
	WriteAtomic(name string, data []byte) error

	// Read returns the entry's bytes.
	// Returns ErrNotFound if the entry doesn't exist.
	Read(name string) ([]byte, error)

	// Remove deletes an entry.
	// Returns nil if the entry doesn't exist.
	Remove(name string) error

	// Location describes where the backend keeps its entries.
	Location() string

	// Path returns the location of a single entry.
	Path(name string) string

	// Close releases any resources (connections, files).
	Close() error
}

// Backend kinds accepted by OpenBackend.
const (
	BackendDir    = "dir"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// OpenBackend opens a backend by kind. For "dir" location is the directory;
// for "sqlite" it is "<database path>#<namespace>" (namespace defaults to
// "default"); for "bolt" it is "<database path>#<bucket>" (bucket defaults to
// "checkpoints"); "memory" ignores it.
func OpenBackend(kind, location string) (Backend, error) {
	switch kind {
	case BackendDir, "":
		return NewDirBackend(location), nil
	case BackendMemory:
		return NewMemoryBackend(), nil
	case BackendSQLite:
		path, namespace := splitLocation(location)
		return NewSQLiteBackend(path, namespace)
	case BackendBolt:
		path, bucket := splitLocation(location)
		return NewBoltBackend(path, bucket)
	}
	return nil, fmt.Errorf("unknown checkpoint backend %q", kind)
}

// splitLocation splits "<path>#<name>". name is empty if there is no '#'.
func splitLocation(location string) (path, name string) {
	if i := strings.LastIndexByte(location, '#'); i >= 0 {
		return location[:i], location[i+1:]
	}
	return location, ""
}
