package search

import "sync/atomic"

// Flag is a cancellation cell shared by the workers of a scan. Once set, workers stop
// picking up new files and new lines the next time they check it. A scan never resets
// the flag; only its owner does.
type Flag struct {
	set atomic.Bool
}

// NewFlag returns a cleared flag.
func NewFlag() *Flag {
	return &Flag{}
}

// Set requests cancellation.
func (f *Flag) Set() {
	f.set.Store(true)
}

// Reset clears a previous cancellation request so the flag can be reused.
func (f *Flag) Reset() {
	f.set.Store(false)
}

// IsSet reports whether cancellation was requested. A nil flag is never set.
func (f *Flag) IsSet() bool {
	return f != nil && f.set.Load()
}
