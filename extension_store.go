package vesper

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/gofrs/flock"
)

const (
	// ExtensionsDirectory is the directory below the data root that holds extension scripts.
	ExtensionsDirectory = "VesperExtensions"

	extensionSuffix = ".js"
	extensionsLock  = ".extensions.lock"
)

// ExtensionStore saves and lists user extension scripts. Writes are serialized across
// processes with a lock file inside the extensions directory.
type ExtensionStore struct {
	root *RootManager
}

// NewExtensionStore creates an ExtensionStore below the given data root
func NewExtensionStore(root *RootManager) *ExtensionStore {
	return &ExtensionStore{root: root}
}

// Dir returns the absolute path of the extensions directory
func (es *ExtensionStore) Dir() string {
	dir, _ := es.root.Resolve(ExtensionsDirectory)
	return dir
}

// validateName rejects names that are empty or would address anything but a direct
// child of the extensions directory.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." || name == extensionsLock ||
		strings.ContainsAny(name, `/\`+"\x00") {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}

// Save writes content to the named extension file, replacing any previous version and
// creating the extensions directory when needed.
func (es *ExtensionStore) Save(name string, content string) error {
	if err := validateName(name); err != nil {
		return err
	}

	if err := es.root.CreateDirectoryIfNotExists(ExtensionsDirectory); err != nil {
		return fmt.Errorf("failed to create extensions directory: %w", err)
	}

	lockPath, err := es.root.Resolve(path.Join(ExtensionsDirectory, extensionsLock))
	if err != nil {
		return err
	}
	lock := flock.New(lockPath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", lockPath, err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	if err := es.root.WriteFile(path.Join(ExtensionsDirectory, name), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write extension %s: %w", name, err)
	}
	return nil
}

// Load returns the content of the named extension file
func (es *ExtensionStore) Load(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	content, err := es.root.ReadFile(path.Join(ExtensionsDirectory, name))
	if err != nil {
		return "", fmt.Errorf("failed to read extension %s: %w", name, err)
	}
	return decodeText(content)
}

// List returns the names of the .js files in the extensions directory, sorted. A missing
// directory yields an empty list.
func (es *ExtensionStore) List() ([]string, error) {
	entries, err := es.root.ReadDir(ExtensionsDirectory)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list extensions: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || path.Ext(entry.Name()) != extensionSuffix {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
