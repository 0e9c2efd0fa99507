package vesper

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/go-enry/go-enry/v2"

	"github.com/patrickward/vesper/internal/search"
)

// Workspace serves single file reads and writes and single level directory listings,
// all confined to one root directory.
type Workspace struct {
	root       *RootManager
	encryption *EncryptionManager
}

// NewWorkspace creates a new Workspace. encryption may be nil, in which case encrypted
// files cannot be read.
func NewWorkspace(root *RootManager, encryption *EncryptionManager) *Workspace {
	return &Workspace{
		root:       root,
		encryption: encryption,
	}
}

// Root returns the root manager of the workspace
func (w *Workspace) Root() *RootManager {
	return w.root
}

// ReadFile returns the text of a workspace file without its byte order mark. Files
// that are not valid UTF-8 return ErrNotText. Age encrypted files are decrypted first.
func (w *Workspace) ReadFile(name string) (string, error) {
	raw, err := w.root.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}

	if IsAgeEncrypted(raw) {
		if !w.encryption.CanDecrypt() {
			return "", fmt.Errorf("failed to read %s: %w", name, ErrNoIdentities)
		}
		if raw, err = w.encryption.Decrypt(raw); err != nil {
			return "", fmt.Errorf("failed to read %s: %w", name, err)
		}
	}

	text, err := decodeText(raw)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return text, nil
}

// WriteFile replaces the content of a workspace file, creating it when missing. A file
// that is currently age encrypted is written back encrypted.
func (w *Workspace) WriteFile(name string, content string) error {
	data := []byte(content)
	perm := os.FileMode(0644)

	if info, err := w.root.Stat(name); err == nil {
		if info.IsDir() {
			return fmt.Errorf("failed to write %s: is a directory", name)
		}
		perm = info.Mode().Perm()

		existing, err := w.root.ReadFile(name)
		if err == nil && IsAgeEncrypted(existing) {
			if !w.encryption.CanEncrypt() {
				return fmt.Errorf("failed to write %s: %w", name, ErrNoRecipients)
			}
			if data, err = w.encryption.Encrypt(data); err != nil {
				return fmt.Errorf("failed to write %s: %w", name, err)
			}
		}
	}

	if err := w.root.WriteFile(name, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// CreateDirectory creates a directory and any missing parents
func (w *Workspace) CreateDirectory(name string) error {
	if err := w.root.MkdirAll(name, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", name, err)
	}
	return nil
}

// RemoveFile removes a single file
func (w *Workspace) RemoveFile(name string) error {
	info, err := w.root.Stat(name)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	if info.IsDir() {
		return fmt.Errorf("failed to remove %s: is a directory", name)
	}

	if err := w.root.Remove(name); err != nil {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// RemoveDirectory removes a directory and everything below it
func (w *Workspace) RemoveDirectory(name string) error {
	info, err := w.root.Stat(name)
	if err != nil {
		return fmt.Errorf("failed to remove directory %s: %w", name, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to remove directory %s: not a directory", name)
	}

	if err := w.root.RemoveAll(name); err != nil {
		return fmt.Errorf("failed to remove directory %s: %w", name, err)
	}
	return nil
}

// ListEntries lists the direct children of dir. Files with a binary extension are left
// out. Directories come first, then files, each ordered by name.
func (w *Workspace) ListEntries(dir string) ([]EntryInfo, error) {
	local, err := localName(dir)
	if err != nil {
		return nil, err
	}
	base := ""
	if local != "." {
		base = filepath.ToSlash(local)
	}

	dirEntries, err := w.root.ReadDir(local)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	entries := make([]EntryInfo, 0, len(dirEntries))
	for _, d := range dirEntries {
		entryPath := path.Join(base, d.Name())

		kind := search.KindFile
		if w.isDirectory(entryPath, d) {
			kind = search.KindDirectory
		}

		if kind == search.KindFile && search.IsBinaryPath(d.Name()) {
			continue
		}

		info := EntryInfo{
			Name: d.Name(),
			Kind: kind,
			Path: entryPath,
		}
		if kind == search.KindFile {
			info.Language = enry.GetLanguage(d.Name(), nil)
		}
		entries = append(entries, info)
	}

	sortEntries(entries)
	return entries, nil
}

// isDirectory reports whether d is a directory, following symbolic links that stay
// inside the workspace.
func (w *Workspace) isDirectory(entryPath string, d fs.DirEntry) bool {
	if d.IsDir() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}

	info, err := w.root.Stat(entryPath)
	return err == nil && info.IsDir()
}
