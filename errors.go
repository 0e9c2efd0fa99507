package vesper

import (
	"errors"

	"github.com/patrickward/vesper/internal/search"
)

var (
	// ErrNotText is returned when a file's bytes are not valid UTF-8.
	ErrNotText = errors.New("file is not valid UTF-8 text")

	// ErrOutsideRoot is returned for paths that would leave the workspace root.
	ErrOutsideRoot = errors.New("path escapes the workspace root")

	// ErrInvalidName is returned for extension names that are empty or contain path separators.
	ErrInvalidName = errors.New("invalid extension name")

	// ErrJobNotFound is returned when no search job has the requested id.
	ErrJobNotFound = errors.New("search job not found")

	// ErrNoIdentities is returned when an encrypted file is read without any configured identity.
	ErrNoIdentities = errors.New("no identities configured for decryption")

	// ErrNoRecipients is returned when an encrypted file is written back without any configured recipient.
	ErrNoRecipients = errors.New("no recipients configured for encryption")

	// ErrSearchFailed is returned when a search could not be carried out at all.
	ErrSearchFailed = search.ErrSearchFailed
)
