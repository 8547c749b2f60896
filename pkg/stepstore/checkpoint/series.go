package checkpoint

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/randalmurphal/stepstore/pkg/stepstore/natsort"
)

// Entry is one checkpoint in a series.
type Entry struct {
	Step Step
	Name string
	Path string
}

// Name returns the checkpoint name for step in the series prefix.
func Name(prefix string, step Step) string {
	return prefix + "_" + step.String()
}

// ValidatePrefix rejects prefixes that cannot name a series.
func ValidatePrefix(prefix string) error {
	if prefix == "" || strings.ContainsRune(prefix, '/') || strings.ContainsRune(prefix, os.PathSeparator) {
		return fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	return nil
}

// listSeries returns the series entries in b ordered by ascending step.
// Entries with equal steps keep the backend's enumeration order.
func listSeries(b Backend, prefix string) ([]Entry, error) {
	names, err := b.Names()
	if err != nil {
		return nil, err
	}

	type candidate struct {
		entry Entry
		key   natsort.Key
	}

	lead := prefix + "_"
	var found []candidate
	for _, name := range names {
		rest, ok := strings.CutPrefix(name, lead)
		if !ok || !natsort.IsNumber(rest) {
			continue
		}
		step, err := ParseStep(rest)
		if err != nil {
			continue
		}
		found = append(found, candidate{
			entry: Entry{Step: step, Name: name, Path: b.Path(name)},
			key:   natsort.KeyOf(rest),
		})
	}

	slices.SortStableFunc(found, func(a, b candidate) int {
		return natsort.Compare(a.key, b.key)
	})

	entries := make([]Entry, len(found))
	for i, c := range found {
		entries[i] = c.entry
	}
	return entries, nil
}
