package vesper_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickward/vesper"
	"github.com/patrickward/vesper/internal/search"
)

func setupWorkspace(t *testing.T, files map[string]string) *vesper.Workspace {
	t.Helper()

	rm := setupRootManager(t, t.TempDir())
	for name, content := range files {
		require.NoError(t, rm.MkdirAll(filepath.Dir(name), 0755))
		require.NoError(t, rm.WriteFile(name, []byte(content), 0644))
	}
	return vesper.NewWorkspace(rm, nil)
}

func TestWorkspace_ReadFile(t *testing.T) {
	t.Parallel()
	ws := setupWorkspace(t, map[string]string{
		"plain.txt":  "hello\nworld",
		"bom.txt":    "\uFEFFwith bom",
		"binary.txt": "\xff\xfe\x00garbage",
	})

	text, err := ws.ReadFile("plain.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", text)

	text, err = ws.ReadFile("bom.txt")
	require.NoError(t, err)
	assert.Equal(t, "with bom", text)

	_, err = ws.ReadFile("binary.txt")
	assert.ErrorIs(t, err, vesper.ErrNotText)

	_, err = ws.ReadFile("missing.txt")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = ws.ReadFile("../escape.txt")
	assert.ErrorIs(t, err, vesper.ErrOutsideRoot)
}

func TestWorkspace_WriteFile(t *testing.T) {
	t.Parallel()
	ws := setupWorkspace(t, map[string]string{"notes/a.md": "old"})

	require.NoError(t, ws.WriteFile("notes/a.md", "new content"))
	require.NoError(t, ws.WriteFile("notes/b.md", "created"))

	text, err := ws.ReadFile("notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, "new content", text)

	text, err = ws.ReadFile("notes/b.md")
	require.NoError(t, err)
	assert.Equal(t, "created", text)

	assert.Error(t, ws.WriteFile("notes", "not a file"))
	assert.ErrorIs(t, ws.WriteFile("../x.md", "x"), vesper.ErrOutsideRoot)
}

func TestWorkspace_EncryptedFilesRoundTrip(t *testing.T) {
	t.Parallel()
	rm := setupRootManager(t, t.TempDir())
	em := setupEncryptionManager(t)

	sealed, err := em.Encrypt([]byte("top secret"))
	require.NoError(t, err)
	require.NoError(t, rm.WriteFile("secret.md", sealed, 0600))

	ws := vesper.NewWorkspace(rm, em)

	text, err := ws.ReadFile("secret.md")
	require.NoError(t, err)
	assert.Equal(t, "top secret", text)

	require.NoError(t, ws.WriteFile("secret.md", "still secret"))

	raw, err := rm.ReadFile("secret.md")
	require.NoError(t, err)
	assert.True(t, vesper.IsAgeEncrypted(raw))

	text, err = ws.ReadFile("secret.md")
	require.NoError(t, err)
	assert.Equal(t, "still secret", text)

	_, err = vesper.NewWorkspace(rm, nil).ReadFile("secret.md")
	assert.ErrorIs(t, err, vesper.ErrNoIdentities)
}

func TestWorkspace_WriteEncryptedFileWithoutRecipients(t *testing.T) {
	t.Parallel()
	rm := setupRootManager(t, t.TempDir())
	em := setupEncryptionManager(t)

	sealed, err := em.Encrypt([]byte("top secret"))
	require.NoError(t, err)
	require.NoError(t, rm.WriteFile("secret.md", sealed, 0600))

	err = vesper.NewWorkspace(rm, nil).WriteFile("secret.md", "leaked")
	assert.ErrorIs(t, err, vesper.ErrNoRecipients)

	err = vesper.NewWorkspace(rm, vesper.NewEncryptionManager()).WriteFile("secret.md", "leaked")
	assert.ErrorIs(t, err, vesper.ErrNoRecipients)

	raw, err := rm.ReadFile("secret.md")
	require.NoError(t, err)
	assert.Equal(t, sealed, raw)
}

func TestWorkspace_ListEntries(t *testing.T) {
	t.Parallel()
	ws := setupWorkspace(t, map[string]string{
		"file10.txt":       "",
		"file2.txt":        "",
		"Apple.go":         "",
		"banana.md":        "",
		"logo.png":         "",
		"zeta/inner.txt":   "",
		"Alpha/inner.txt":  "",
		"beta/nested/x.md": "",
	})

	entries, err := ws.ListEntries("")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Alpha", "beta", "zeta", "Apple.go", "banana.md", "file2.txt", "file10.txt"}, names)

	assert.Equal(t, search.KindDirectory, entries[0].Kind)
	assert.Equal(t, "Alpha", entries[0].Path)
	assert.Equal(t, search.KindFile, entries[3].Kind)
	assert.Equal(t, "Go", entries[3].Language)

	nested, err := ws.ListEntries("beta")
	require.NoError(t, err)
	require.Len(t, nested, 1)
	assert.Equal(t, "beta/nested", nested[0].Path)
	assert.True(t, nested[0].IsDirectory())

	_, err = ws.ListEntries("missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWorkspace_ListEntriesFollowsDirectoryLinks(t *testing.T) {
	t.Parallel()
	ws := setupWorkspace(t, map[string]string{"real/a.txt": "a"})
	root := ws.Root().Path()
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "linked")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	entries, err := ws.ListEntries("")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "linked", entries[0].Name)
	assert.True(t, entries[0].IsDirectory())
}

func TestWorkspace_CreateAndRemove(t *testing.T) {
	t.Parallel()
	ws := setupWorkspace(t, map[string]string{"keep.txt": "keep"})

	require.NoError(t, ws.CreateDirectory("new/deep"))
	require.NoError(t, ws.WriteFile("new/deep/file.txt", "x"))
	assert.True(t, ws.Root().FileExists("new/deep/file.txt"))

	assert.Error(t, ws.RemoveFile("new"))
	require.NoError(t, ws.RemoveFile("new/deep/file.txt"))
	assert.False(t, ws.Root().FileExists("new/deep/file.txt"))

	assert.Error(t, ws.RemoveDirectory("keep.txt"))
	require.NoError(t, ws.RemoveDirectory("new"))
	assert.False(t, ws.Root().FileExists("new"))
	assert.True(t, ws.Root().FileExists("keep.txt"))
}
