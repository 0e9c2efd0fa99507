package search

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
)

// EntryKind discriminates the filesystem nodes yielded by Walk.
type EntryKind int

const (
	// KindFile is a regular file, or a symbolic link to one.
	KindFile EntryKind = iota
	// KindDirectory is a directory.
	KindDirectory
	// KindOther covers sockets, devices, pipes and links that do not resolve to a file.
	KindOther
)

// String returns the string representation of the entry kind.
func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "other"
	}
}

// MarshalText encodes the kind as its string form, so it reads as "file" or "directory" in JSON.
func (k EntryKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Entry is one filesystem node discovered under a search root.
type Entry struct {
	Path string
	Kind EntryKind
}

// Walk returns a lazy sequence of every entry reachable from root, root included, in
// lexical depth-first order. Directories that cannot be read are skipped without
// aborting the walk. Symbolic links are never followed into directories, and links to
// files outside root are reported as KindOther so they are never scanned. The sequence
// is single use and has no notion of cancellation; stop ranging over it to end the walk.
//
// When ignore is non-nil, entries it matches are not yielded and matching directories
// are not descended into.
func Walk(root string, ignore *IgnoreFilter) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		realRoot, err := filepath.EvalSymlinks(root)
		if err != nil {
			realRoot = root
		}

		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable directory, vanished entry or missing root: skip it silently.
				return nil
			}

			if ignore != nil && path != root && ignore.ShouldIgnore(path, d.IsDir()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !yield(Entry{Path: path, Kind: entryKind(path, d, realRoot)}) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// entryKind classifies a walked entry. Links are resolved so that a link to a regular
// file inside realRoot is scanned like the file itself.
func entryKind(path string, d fs.DirEntry, realRoot string) EntryKind {
	mode := d.Type()
	switch {
	case mode.IsDir():
		return KindDirectory
	case mode.IsRegular():
		return KindFile
	case mode&fs.ModeSymlink != 0:
		target, err := filepath.EvalSymlinks(path)
		if err != nil || !within(realRoot, target) {
			return KindOther
		}
		info, err := os.Stat(target)
		if err == nil && info.Mode().IsRegular() {
			return KindFile
		}
	}
	return KindOther
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && filepath.IsLocal(rel)
}
