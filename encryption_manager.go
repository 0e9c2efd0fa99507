package vesper

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"filippo.io/age"
)

// ageHeader opens every file in the age v1 format
const ageHeader = "age-encryption.org/v1"

// EncryptionManager holds the age keys used to open and re-seal encrypted workspace files
type EncryptionManager struct {
	recipients []age.Recipient
	identities []age.Identity
	mu         sync.RWMutex
}

// NewEncryptionManager creates a new encryption manager
func NewEncryptionManager() *EncryptionManager {
	return &EncryptionManager{
		recipients: make([]age.Recipient, 0),
		identities: make([]age.Identity, 0),
	}
}

// AddRecipient adds a recipient for encryption (public key)
func (em *EncryptionManager) AddRecipient(publicKey string) error {
	recipient, err := age.ParseX25519Recipient(publicKey)
	if err != nil {
		return fmt.Errorf("failed to parse recipient: %w", err)
	}

	em.mu.Lock()
	defer em.mu.Unlock()
	em.recipients = append(em.recipients, recipient)
	return nil
}

// AddIdentity adds an identity for decryption (private key). Its public key is added
// as a recipient, so files opened with it can be written back encrypted.
func (em *EncryptionManager) AddIdentity(identityStr string) error {
	identity, err := age.ParseX25519Identity(identityStr)
	if err != nil {
		return fmt.Errorf("failed to parse identity: %w", err)
	}

	em.mu.Lock()
	defer em.mu.Unlock()
	em.identities = append(em.identities, identity)
	em.recipients = append(em.recipients, identity.Recipient())
	return nil
}

// LoadIdentitiesFile loads every identity in an age identity file
func (em *EncryptionManager) LoadIdentitiesFile(path string) error {
	keyFile, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	defer func(keyFile *os.File) {
		_ = keyFile.Close()
	}(keyFile)

	identities, err := age.ParseIdentities(keyFile)
	if err != nil {
		return fmt.Errorf("failed to parse identities in %s: %w", path, err)
	}

	em.mu.Lock()
	defer em.mu.Unlock()

	for _, identity := range identities {
		em.identities = append(em.identities, identity)
		if x, ok := identity.(*age.X25519Identity); ok {
			em.recipients = append(em.recipients, x.Recipient())
		}
	}

	return nil
}

// LoadRecipientsFile loads the public keys of a recipients file, one per line; blank
// lines and lines starting with # are ignored.
func (em *EncryptionManager) LoadRecipientsFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open recipients file: %w", err)
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	recipients, err := age.ParseRecipients(file)
	if err != nil {
		return fmt.Errorf("failed to parse recipients in %s: %w", path, err)
	}

	em.mu.Lock()
	defer em.mu.Unlock()
	em.recipients = append(em.recipients, recipients...)
	return nil
}

// CanDecrypt reports whether any identity is configured
func (em *EncryptionManager) CanDecrypt() bool {
	if em == nil {
		return false
	}
	em.mu.RLock()
	defer em.mu.RUnlock()
	return len(em.identities) > 0
}

// CanEncrypt reports whether any recipient is configured
func (em *EncryptionManager) CanEncrypt() bool {
	if em == nil {
		return false
	}
	em.mu.RLock()
	defer em.mu.RUnlock()
	return len(em.recipients) > 0
}

// Encrypt encrypts plaintext to every configured recipient
func (em *EncryptionManager) Encrypt(plaintext []byte) ([]byte, error) {
	em.mu.RLock()
	defer em.mu.RUnlock()

	if len(em.recipients) == 0 {
		return nil, ErrNoRecipients
	}

	var buf bytes.Buffer

	encryptWriter, err := age.Encrypt(&buf, em.recipients...)
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypt writer: %w", err)
	}

	if _, err := encryptWriter.Write(plaintext); err != nil {
		_ = encryptWriter.Close()
		return nil, fmt.Errorf("failed to write content: %w", err)
	}

	if err := encryptWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close encrypt writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Decrypt decrypts age content using the configured identities
func (em *EncryptionManager) Decrypt(ciphertext []byte) ([]byte, error) {
	em.mu.RLock()
	defer em.mu.RUnlock()

	if len(em.identities) == 0 {
		return nil, ErrNoIdentities
	}

	decryptReader, err := age.Decrypt(bytes.NewReader(ciphertext), em.identities...)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	plaintext, err := io.ReadAll(decryptReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read decrypted content: %w", err)
	}

	return plaintext, nil
}

// IsAgeEncrypted checks if content is age encrypted by looking for the format header
func IsAgeEncrypted(content []byte) bool {
	return bytes.HasPrefix(content, []byte(ageHeader))
}

// KeyPair describes a generated age key pair and where it was saved
type KeyPair struct {
	PublicKey   string
	PublicPath  string
	PrivatePath string
}

// GenerateKeyPair creates a new X25519 identity and saves it to keysDir as
// vesper-key-<timestamp>.pub and vesper-key-<timestamp>.txt
func GenerateKeyPair(keysDir string, now time.Time) (KeyPair, error) {
	if keysDir == "" {
		return KeyPair{}, fmt.Errorf("keys directory must be specified")
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return KeyPair{}, fmt.Errorf("failed to generate identity: %w", err)
	}

	if err := os.MkdirAll(keysDir, 0700); err != nil {
		return KeyPair{}, fmt.Errorf("failed to create key directory: %w", err)
	}

	baseName := "vesper-key-" + now.Format("2006-01-02-15-04-05")
	pair := KeyPair{
		PublicKey:   identity.Recipient().String(),
		PublicPath:  filepath.Join(keysDir, baseName+".pub"),
		PrivatePath: filepath.Join(keysDir, baseName+".txt"),
	}

	if err := os.WriteFile(pair.PublicPath, []byte(pair.PublicKey+"\n"), 0644); err != nil {
		return KeyPair{}, fmt.Errorf("failed to save public key: %w", err)
	}

	// The private key is only readable by its owner
	privateContent := fmt.Sprintf("# age identity file\n# generated: %s\n# public key: %s\n%s\n",
		now.Format("2006-01-02 15:04:05"), pair.PublicKey, identity.String())
	if err := os.WriteFile(pair.PrivatePath, []byte(privateContent), 0600); err != nil {
		return KeyPair{}, fmt.Errorf("failed to save private key: %w", err)
	}

	return pair, nil
}
