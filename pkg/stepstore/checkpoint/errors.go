package checkpoint

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for checkpoint operations.
var (
	// ErrNotFound indicates a checkpoint doesn't exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrBackendClosed indicates the backend has been closed.
	ErrBackendClosed = errors.New("checkpoint backend closed")

	// ErrInvalidStep indicates a step that is not a finite number.
	ErrInvalidStep = errors.New("invalid step")

	// ErrInvalidKeep indicates a retention window below one.
	ErrInvalidKeep = errors.New("keep must be at least 1")

	// ErrInvalidPrefix indicates an empty prefix or one containing a path separator.
	ErrInvalidPrefix = errors.New("invalid prefix")

	// ErrCorrupt indicates checkpoint bytes that the codec could not decode.
	ErrCorrupt = errors.New("corrupt checkpoint")
)

// Error describes a failed checkpoint operation with enough context to
// locate the series involved.
type Error struct {
	// Op is the operation that failed: "save", "restore", "list" or "evict".
	Op string

	// Location is the backend location (directory path for DirBackend).
	Location string

	// Prefix names the series.
	Prefix string

	// Step is the step involved, empty when not applicable.
	Step string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "checkpoint %s %s", e.Op, e.Location)
	if e.Prefix != "" {
		fmt.Fprintf(&b, " prefix=%s", e.Prefix)
	}
	if e.Step != "" {
		fmt.Fprintf(&b, " step=%s", e.Step)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
