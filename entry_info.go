package vesper

import (
	"slices"

	"github.com/patrickward/vesper/internal/search"
)

// EntryInfo describes one child of a listed directory
type EntryInfo struct {
	Name     string           `json:"name"`     // Base name of the entry
	Kind     search.EntryKind `json:"kind"`     // "file" or "directory"
	Path     string           `json:"path"`     // Slash separated path relative to the workspace root
	Language string           `json:"language"` // Detected language for files, empty when unknown
}

// IsDirectory returns true if the entry is a directory
func (e EntryInfo) IsDirectory() bool {
	return e.Kind == search.KindDirectory
}

// sortEntries orders directories before files and each group by name
func sortEntries(entries []EntryInfo) {
	collator := newNameCollator()
	slices.SortStableFunc(entries, func(a, b EntryInfo) int {
		if a.IsDirectory() != b.IsDirectory() {
			if a.IsDirectory() {
				return -1
			}
			return 1
		}
		return collator.CompareString(a.Name, b.Name)
	})
}
