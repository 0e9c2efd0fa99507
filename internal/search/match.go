package search

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SearchMatch represents a single matching line in a file
type SearchMatch struct {
	File         string       `json:"file"`          // Path of the file, as discovered under the search root
	LineNumber   int          `json:"line_number"`   // The line number in the file (1-based)
	Line         string       `json:"line"`          // The line text, BOM stripped on line 1
	MatchIndices []MatchRange `json:"match_indices"` // Byte offsets of each occurrence in Line, left to right
}

// MatchRange is a half-open byte range [Start, End) into SearchMatch.Line.
type MatchRange struct {
	Start int
	End   int
}

// Len returns the byte length of the range.
func (r MatchRange) Len() int {
	return r.End - r.Start
}

// MarshalJSON encodes the range as a two element array, [start, end].
func (r MatchRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Start, r.End})
}

// UnmarshalJSON decodes a two element array into the range.
func (r *MatchRange) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("invalid match range: %w", err)
	}
	r.Start, r.End = pair[0], pair[1]
	return nil
}

// Matcher finds case-insensitive occurrences of a single keyword.
type Matcher struct {
	keyword string
	needle  string // keyword folded to lower case
}

// NewMatcher creates a Matcher for keyword. An empty keyword never matches.
func NewMatcher(keyword string) *Matcher {
	needle, _ := foldLower(keyword)
	return &Matcher{keyword: keyword, needle: needle}
}

// Empty reports whether the matcher can never produce a match.
func (m *Matcher) Empty() bool {
	return m.needle == ""
}

// FindAll returns the non-overlapping occurrences of the keyword in line, scanning left
// to right and resuming each search at the end of the previous occurrence. Offsets index
// the original line, not its lower-cased form.
func (m *Matcher) FindAll(line string) []MatchRange {
	if m.Empty() || len(line) == 0 {
		return nil
	}

	folded, offsets := foldLower(line)

	var ranges []MatchRange
	for from := 0; from <= len(folded)-len(m.needle); {
		i := strings.Index(folded[from:], m.needle)
		if i < 0 {
			break
		}

		start := from + i
		end := start + len(m.needle)
		ranges = append(ranges, MatchRange{
			Start: originalOffset(offsets, start),
			End:   originalOffset(offsets, end),
		})
		from = end
	}

	return ranges
}

// foldLower lower-cases s rune by rune. When folding changes the byte length of any rune
// it also returns a table mapping each byte of the folded string (plus its end) back to
// the byte offset in s where the producing rune starts. A nil table means offsets are
// identical in both strings.
func foldLower(s string) (string, []int) {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return strings.ToLower(s), nil
	}

	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, 0, len(s)+1)
	sameLength := true

	for i, r := range s {
		size := utf8.RuneLen(r)
		if r == utf8.RuneError {
			// Invalid bytes decode to RuneError with a width of one.
			_, size = utf8.DecodeRuneInString(s[i:])
		}

		lower := unicode.ToLower(r)
		n, _ := b.WriteRune(lower)
		if n != size {
			sameLength = false
		}
		for j := 0; j < n; j++ {
			offsets = append(offsets, i)
		}
	}
	offsets = append(offsets, len(s))

	if sameLength {
		return b.String(), nil
	}
	return b.String(), offsets
}

func originalOffset(offsets []int, folded int) int {
	if offsets == nil {
		return folded
	}
	return offsets[folded]
}
