package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickward/vesper/internal/search"
)

func setupSearchDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "guide.md"), []byte("Setup\nRun the Server\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("// server entry\nfunc main() {}\n"), 0644))
	return dir
}

func TestRunSearch_PlainOutput(t *testing.T) {
	t.Parallel()
	dir := setupSearchDir(t)

	var out bytes.Buffer
	err := runSearch(context.Background(), &out, dir, "server", &searchOptions{color: "never"})
	require.NoError(t, err)

	assert.Equal(t,
		"docs/guide.md:2: Run the Server\n"+
			"main.go:1: // server entry\n"+
			"2 matches in 2 files\n",
		out.String())
}

func TestRunSearch_ColorAlways(t *testing.T) {
	t.Parallel()
	dir := setupSearchDir(t)

	var out bytes.Buffer
	err := runSearch(context.Background(), &out, dir, "server", &searchOptions{color: "always"})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "\x1b[")
	assert.Contains(t, out.String(), "Server")
}

func TestRunSearch_JSON(t *testing.T) {
	t.Parallel()
	dir := setupSearchDir(t)

	var out bytes.Buffer
	err := runSearch(context.Background(), &out, dir, "SERVER", &searchOptions{json: true, color: "never"})
	require.NoError(t, err)

	var matches []search.SearchMatch
	require.NoError(t, json.Unmarshal(out.Bytes(), &matches))
	require.Len(t, matches, 2)
	assert.Equal(t, filepath.Join(dir, "docs", "guide.md"), matches[0].File)
	assert.Equal(t, []search.MatchRange{{Start: 8, End: 14}}, matches[0].MatchIndices)
}

func TestRunSearch_CancelledContext(t *testing.T) {
	t.Parallel()
	dir := setupSearchDir(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := runSearch(ctx, &out, dir, "server", &searchOptions{color: "never"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "(search cancelled)")
}

func TestRunSearch_InvalidColor(t *testing.T) {
	t.Parallel()

	err := runSearch(context.Background(), &bytes.Buffer{}, t.TempDir(), "x", &searchOptions{color: "rainbow"})
	assert.ErrorContains(t, err, "invalid --color")
}

func TestUseColor_AutoWithBuffer(t *testing.T) {
	t.Parallel()

	colored, err := useColor("auto", &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, colored)
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "vesper version 0.1.0\n", out.String())
}

func TestKeygenCommand(t *testing.T) {
	t.Parallel()
	keysDir := t.TempDir()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"keygen", "--keys-dir", keysDir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Public key: age1")

	pubs, err := filepath.Glob(filepath.Join(keysDir, "vesper-key-*.pub"))
	require.NoError(t, err)
	assert.Len(t, pubs, 1)
}
