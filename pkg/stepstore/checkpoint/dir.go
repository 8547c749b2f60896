package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// TempSuffix marks an entry that is still being written.
const TempSuffix = ".tmp"

// DirBackend keeps entries as files directly inside one directory.
// The directory is created on first write.
type DirBackend struct {
	dir string
}

// Compile-time interface check.
var _ Backend = (*DirBackend)(nil)

// NewDirBackend creates a backend rooted at dir.
func NewDirBackend(dir string) *DirBackend {
	return &DirBackend{dir: dir}
}

// Names implements Backend. Subdirectories are skipped.
func (d *DirBackend) Names() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// WriteAtomic implements Backend.
// Data goes to name+TempSuffix first, is synced, then renamed over name.
func (d *DirBackend) WriteAtomic(name string, data []byte) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	finalPath := d.Path(name)
	tempPath := finalPath + TempSuffix
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replace checkpoint file: %w", err)
	}
	return nil
}

// Read implements Backend.
func (d *DirBackend) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(d.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint file: %w", err)
	}
	return data, nil
}

// Remove implements Backend.
func (d *DirBackend) Remove(name string) error {
	err := os.Remove(d.Path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove checkpoint file: %w", err)
	}
	return nil
}

// Location implements Backend.
func (d *DirBackend) Location() string {
	return d.dir
}

// Path implements Backend.
func (d *DirBackend) Path(name string) string {
	return filepath.Join(d.dir, name)
}

// Close implements Backend. It is a no-op.
func (d *DirBackend) Close() error {
	return nil
}
