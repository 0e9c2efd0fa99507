// Package search scans a directory tree for lines containing a keyword. Files are
// enumerated lazily, scanned in parallel by a bounded pool of workers and can be
// cancelled cooperatively through a shared Flag.
package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrSearchFailed is returned when a scan could not be carried out at all. Problems with
// individual files or lines never produce an error.
var ErrSearchFailed = errors.New("search failed")

// Options configures a scan.
type Options struct {
	// Workers bounds the number of files scanned concurrently (0 = GOMAXPROCS)
	Workers int

	// RespectIgnore skips entries matched by the root's .gitignore and VCS directories
	RespectIgnore bool
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Search scans every text file under root and returns the lines containing keyword,
// ignoring case, sorted by file path and line number.
//
// Setting flag, or cancelling ctx, stops the scan early; the matches gathered up to
// that point are returned without error. An empty keyword matches nothing.
func Search(ctx context.Context, root, keyword string, flag *Flag, opts Options) ([]SearchMatch, error) {
	var (
		mu      sync.Mutex
		results []SearchMatch
	)

	err := Stream(ctx, root, keyword, flag, opts, func(matches []SearchMatch) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, matches...)
	})
	if err != nil {
		return nil, err
	}

	SortMatches(results)
	return results, nil
}

// Stream is like Search but hands each file's matches to onFile as soon as that file
// has been scanned. Files arrive in completion order; calls to onFile never overlap and
// each batch is in line order. Stream returns after the last call to onFile.
func Stream(ctx context.Context, root, keyword string, flag *Flag, opts Options, onFile func([]SearchMatch)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSearchFailed, r)
		}
	}()

	matcher := NewMatcher(keyword)
	if matcher.Empty() {
		return nil
	}

	var ignore *IgnoreFilter
	if opts.RespectIgnore {
		ignore = NewIgnoreFilter(root)
	}

	cancelled := func() bool {
		return flag.IsSet() || ctx.Err() != nil
	}

	var deliver sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(opts.workers())

	for entry := range Walk(root, ignore) {
		if cancelled() {
			break
		}
		if entry.Kind != KindFile || IsBinaryPath(entry.Path) {
			continue
		}

		path := entry.Path
		// Go blocks while every worker is busy, which keeps the walk from running ahead.
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: scanning %s: %v", ErrSearchFailed, path, r)
				}
			}()

			if cancelled() {
				return nil
			}

			matches := scanFile(path, matcher, cancelled)
			if len(matches) == 0 {
				return nil
			}

			deliver.Lock()
			defer deliver.Unlock()
			onFile(matches)
			return nil
		})
	}

	return g.Wait()
}

// SortMatches orders matches by file path, then by line number.
func SortMatches(matches []SearchMatch) {
	slices.SortStableFunc(matches, func(a, b SearchMatch) int {
		if c := cmp.Compare(a.File, b.File); c != 0 {
			return c
		}
		return cmp.Compare(a.LineNumber, b.LineNumber)
	})
}
