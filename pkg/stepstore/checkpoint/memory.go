package checkpoint

import (
	"sort"
	"sync"
)

// MemoryBackend is an in-memory backend for testing.
// Data is lost when the process exits.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]storedEntry
	nextSeq int
	closed  bool
}

// storedEntry holds entry data with its write sequence for Names().
type storedEntry struct {
	data     []byte
	sequence int
}

// Compile-time interface check.
var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates a new in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]storedEntry),
	}
}

// Names implements Backend. Names are returned in first-write order.
func (m *MemoryBackend) Names() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrBackendClosed
	}

	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return m.entries[names[i]].sequence < m.entries[names[j]].sequence
	})
	return names, nil
}

// WriteAtomic implements Backend.
func (m *MemoryBackend) WriteAtomic(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrBackendClosed
	}

	// Copy data to avoid retaining caller's slice
	stored := make([]byte, len(data))
	copy(stored, data)

	seq := m.nextSeq
	if existing, ok := m.entries[name]; ok {
		seq = existing.sequence
	} else {
		m.nextSeq++
	}
	m.entries[name] = storedEntry{data: stored, sequence: seq}
	return nil
}

// Read implements Backend.
func (m *MemoryBackend) Read(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrBackendClosed
	}

	entry, ok := m.entries[name]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy to prevent modification
	result := make([]byte, len(entry.data))
	copy(result, entry.data)
	return result, nil
}

// Remove implements Backend.
func (m *MemoryBackend) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrBackendClosed
	}

	delete(m.entries, name)
	return nil
}

// Location implements Backend.
func (m *MemoryBackend) Location() string {
	return "memory"
}

// Path implements Backend.
func (m *MemoryBackend) Path(name string) string {
	return "memory:" + name
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.entries = nil
	return nil
}

// Len returns the number of stored entries.
// Useful for testing.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}
