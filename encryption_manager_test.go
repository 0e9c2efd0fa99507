package vesper_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickward/vesper"
)

func setupEncryptionManager(t *testing.T) *vesper.EncryptionManager {
	t.Helper()

	pair, err := vesper.GenerateKeyPair(t.TempDir(), time.Now())
	require.NoError(t, err)

	em := vesper.NewEncryptionManager()
	require.NoError(t, em.LoadIdentitiesFile(pair.PrivatePath))
	return em
}

func TestGenerateKeyPair(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	pair, err := vesper.GenerateKeyPair(dir, time.Date(2025, time.March, 4, 5, 6, 7, 0, time.UTC))
	require.NoError(t, err)

	assert.Contains(t, pair.PublicKey, "age1")
	assert.Equal(t, "vesper-key-2025-03-04-05-06-07.pub", pair.PublicPath[len(dir)+1:])

	info, err := os.Stat(pair.PrivatePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = vesper.GenerateKeyPair("", time.Now())
	assert.Error(t, err)
}

func TestEncryptionManager_RecipientsFileAndIdentity(t *testing.T) {
	t.Parallel()
	pair, err := vesper.GenerateKeyPair(t.TempDir(), time.Now())
	require.NoError(t, err)

	sender := vesper.NewEncryptionManager()
	assert.False(t, sender.CanEncrypt())
	require.NoError(t, sender.LoadRecipientsFile(pair.PublicPath))
	assert.True(t, sender.CanEncrypt())
	assert.False(t, sender.CanDecrypt())

	sealed, err := sender.Encrypt([]byte("hello"))
	require.NoError(t, err)
	assert.True(t, vesper.IsAgeEncrypted(sealed))

	_, err = sender.Decrypt(sealed)
	assert.ErrorIs(t, err, vesper.ErrNoIdentities)

	receiver := vesper.NewEncryptionManager()
	require.NoError(t, receiver.LoadIdentitiesFile(pair.PrivatePath))
	plain, err := receiver.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(plain))
}

func TestEncryptionManager_InvalidKeys(t *testing.T) {
	t.Parallel()
	em := vesper.NewEncryptionManager()

	assert.Error(t, em.AddRecipient("not-a-key"))
	assert.Error(t, em.AddIdentity("not-a-key"))
	assert.False(t, vesper.IsAgeEncrypted([]byte("plain text")))

	var nilManager *vesper.EncryptionManager
	assert.False(t, nilManager.CanDecrypt())
}
