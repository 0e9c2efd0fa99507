package search

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

const (
	byteOrderMark  = "\uFEFF"
	readBufferSize = 64 * 1024
)

// lineReader yields the lines of a file one at a time. Line terminators ("\n" or
// "\r\n") are removed. A line that is not valid UTF-8 is reported with ok set to false
// so the caller can skip it and carry on.
type lineReader struct {
	r      *bufio.Reader
	number int
	done   bool
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, readBufferSize)}
}

// Next returns the next line and its 1-based number. more is false once the input is
// exhausted or unreadable.
func (lr *lineReader) Next() (line string, number int, ok bool, more bool) {
	if lr.done {
		return "", lr.number, false, false
	}

	raw, err := lr.r.ReadBytes('\n')
	if err != nil {
		lr.done = true
		if !errors.Is(err, io.EOF) || len(raw) == 0 {
			// Read failure, or a final newline followed by nothing.
			return "", lr.number, false, false
		}
	}

	lr.number++
	raw = bytes.TrimSuffix(raw, []byte("\n"))
	raw = bytes.TrimSuffix(raw, []byte("\r"))

	if !utf8.Valid(raw) {
		return "", lr.number, false, true
	}

	line = string(raw)
	if lr.number == 1 {
		line = strings.TrimLeft(line, byteOrderMark)
	}

	return line, lr.number, true, true
}

// scanFile opens path and returns one SearchMatch per line containing the keyword. Any
// failure to open or read the file yields no matches. cancelled is checked before each
// line; when it reports true the matches found so far are returned.
func scanFile(path string, matcher *Matcher, cancelled func() bool) []SearchMatch {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	var matches []SearchMatch
	lines := newLineReader(file)

	for {
		if cancelled() {
			return matches
		}

		line, number, ok, more := lines.Next()
		if !more {
			break
		}
		if !ok {
			continue // Not valid text, skip just this line
		}

		indices := matcher.FindAll(line)
		if len(indices) == 0 {
			continue
		}

		matches = append(matches, SearchMatch{
			File:         path,
			LineNumber:   number,
			Line:         line,
			MatchIndices: indices,
		})
	}

	return matches
}
