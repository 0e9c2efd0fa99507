package vesper

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// RootManager provides safe filesystem operations within a specific directory using os.Root
type RootManager struct {
	path string
}

// NewRootManager creates a new RootManager for the given directory path
func NewRootManager(path string) (*RootManager, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory %s: %w", path, err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", abs, err)
	}

	// Test that we can open the directory as a root
	testRoot, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory as root %s: %w", abs, err)
	}
	_ = testRoot.Close()

	return &RootManager{path: abs}, nil
}

// Path returns the absolute path of the root directory
func (rm *RootManager) Path() string {
	return rm.path
}

// withRoot executes a function with a safely opened os.Root
func (rm *RootManager) withRoot(fn func(*os.Root) error) error {
	root, err := os.OpenRoot(rm.path)
	if err != nil {
		return fmt.Errorf("failed to open root: %w", err)
	}
	defer func(root *os.Root) {
		_ = root.Close()
	}(root)

	return fn(root)
}

// localName converts a slash separated workspace path into a local name for os.Root.
// An empty name or "/" refers to the root itself.
func localName(name string) (string, error) {
	trimmed := strings.TrimLeft(filepath.ToSlash(name), "/")
	if trimmed == "" {
		return ".", nil
	}

	local := filepath.Clean(filepath.FromSlash(trimmed))
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%s: %w", name, ErrOutsideRoot)
	}
	return local, nil
}

// Resolve returns the absolute path of a workspace path
func (rm *RootManager) Resolve(name string) (string, error) {
	local, err := localName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(rm.path, local), nil
}

// Rel returns the slash separated workspace path of an absolute path inside the root
func (rm *RootManager) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(rm.path, abs)
	if err != nil || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%s: %w", abs, ErrOutsideRoot)
	}
	return filepath.ToSlash(rel), nil
}

// ReadFile reads the contents of a file using Root.ReadFile
func (rm *RootManager) ReadFile(filename string) ([]byte, error) {
	local, err := localName(filename)
	if err != nil {
		return nil, err
	}

	var content []byte
	err = rm.withRoot(func(root *os.Root) error {
		var err error
		content, err = root.ReadFile(local)
		return err
	})
	return content, err
}

// WriteFile writes content to a file using Root.WriteFile
func (rm *RootManager) WriteFile(filename string, content []byte, perm os.FileMode) error {
	local, err := localName(filename)
	if err != nil {
		return err
	}

	return rm.withRoot(func(root *os.Root) error {
		return root.WriteFile(local, content, perm)
	})
}

// FileExists checks if a file exists using Root.Stat
func (rm *RootManager) FileExists(filename string) bool {
	_, err := rm.Stat(filename)
	return err == nil
}

// Stat returns file info using Root.Stat
func (rm *RootManager) Stat(filename string) (os.FileInfo, error) {
	local, err := localName(filename)
	if err != nil {
		return nil, err
	}

	var info os.FileInfo
	err = rm.withRoot(func(root *os.Root) error {
		var err error
		info, err = root.Stat(local)
		return err
	})
	return info, err
}

// MkdirAll creates a directory and any necessary parent directories using Root.MkdirAll
func (rm *RootManager) MkdirAll(dir string, perm os.FileMode) error {
	local, err := localName(dir)
	if err != nil {
		return err
	}

	return rm.withRoot(func(root *os.Root) error {
		return root.MkdirAll(local, perm)
	})
}

// Remove removes a file or an empty directory using Root.Remove
func (rm *RootManager) Remove(filename string) error {
	local, err := localName(filename)
	if err != nil {
		return err
	}
	if local == "." {
		return fmt.Errorf("refusing to remove the workspace root: %w", ErrOutsideRoot)
	}

	return rm.withRoot(func(root *os.Root) error {
		return root.Remove(local)
	})
}

// RemoveAll removes a directory and all its contents using Root.RemoveAll
func (rm *RootManager) RemoveAll(path string) error {
	local, err := localName(path)
	if err != nil {
		return err
	}
	if local == "." {
		return fmt.Errorf("refusing to remove the workspace root: %w", ErrOutsideRoot)
	}

	return rm.withRoot(func(root *os.Root) error {
		return root.RemoveAll(local)
	})
}

// CreateDirectoryIfNotExists creates a directory if it doesn't exist
func (rm *RootManager) CreateDirectoryIfNotExists(dir string) error {
	info, err := rm.Stat(dir)
	if os.IsNotExist(err) {
		return rm.MkdirAll(dir, 0755)
	}
	if err != nil {
		return fmt.Errorf("failed to check directory %s: %w", dir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", dir)
	}

	return nil
}

// ReadDir reads the contents of a directory and returns DirEntry slices sorted by name
func (rm *RootManager) ReadDir(dir string) ([]fs.DirEntry, error) {
	local, err := localName(dir)
	if err != nil {
		return nil, err
	}

	var entries []fs.DirEntry
	err = rm.withRoot(func(root *os.Root) error {
		var err error
		entries, err = fs.ReadDir(root.FS(), filepath.ToSlash(local))
		return err
	})

	return entries, err
}
