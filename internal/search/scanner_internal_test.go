package search

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func never() bool { return false }

func writeTestFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestScanFile_StripsByteOrderMark(t *testing.T) {
	t.Parallel()
	path := writeTestFile(t, "\uFEFFhello there\nhello again")

	matches := scanFile(path, NewMatcher("hello"), never)

	require.Len(t, matches, 2)
	assert.Equal(t, "hello there", matches[0].Line)
	assert.Equal(t, []MatchRange{{Start: 0, End: 5}}, matches[0].MatchIndices)
	assert.Equal(t, 1, matches[0].LineNumber)
	assert.Equal(t, 2, matches[1].LineNumber)
}

func TestScanFile_ByteOrderMarkOnlyStrippedFromFirstLine(t *testing.T) {
	t.Parallel()
	path := writeTestFile(t, "first\n\uFEFFkey")

	matches := scanFile(path, NewMatcher("key"), never)

	require.Len(t, matches, 1)
	assert.Equal(t, "\uFEFFkey", matches[0].Line)
	assert.Equal(t, []MatchRange{{Start: 3, End: 6}}, matches[0].MatchIndices)
}

func TestScanFile_LineEndings(t *testing.T) {
	t.Parallel()
	path := writeTestFile(t, "one key\r\ntwo\r\nthree key")

	matches := scanFile(path, NewMatcher("KEY"), never)

	require.Len(t, matches, 2)
	assert.Equal(t, "one key", matches[0].Line)
	assert.Equal(t, 1, matches[0].LineNumber)
	assert.Equal(t, "three key", matches[1].Line)
	assert.Equal(t, 3, matches[1].LineNumber)
}

func TestScanFile_SkipsInvalidLinesOnly(t *testing.T) {
	t.Parallel()
	path := writeTestFile(t, "key one\n\xff\xfe key broken\nkey three\n")

	matches := scanFile(path, NewMatcher("key"), never)

	require.Len(t, matches, 2)
	assert.Equal(t, 1, matches[0].LineNumber)
	assert.Equal(t, 3, matches[1].LineNumber)
}

func TestScanFile_LongLines(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", 3*readBufferSize) + "needle"
	path := writeTestFile(t, long+"\n")

	matches := scanFile(path, NewMatcher("needle"), never)

	require.Len(t, matches, 1)
	assert.Equal(t, []MatchRange{{Start: 3 * readBufferSize, End: 3*readBufferSize + 6}}, matches[0].MatchIndices)
}

func TestScanFile_MissingFile(t *testing.T) {
	t.Parallel()

	matches := scanFile(filepath.Join(t.TempDir(), "nope.txt"), NewMatcher("x"), never)
	assert.Empty(t, matches)
}

func TestScanFile_StopsWhenCancelled(t *testing.T) {
	t.Parallel()
	path := writeTestFile(t, "key\nkey\nkey\nkey\n")

	checks := 0
	cancelled := func() bool {
		checks++
		return checks > 2
	}

	matches := scanFile(path, NewMatcher("key"), cancelled)
	assert.Len(t, matches, 2)
}
