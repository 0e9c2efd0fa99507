package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickward/vesper/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_DefaultsWhenFilesMissing(t *testing.T) {
	dir := t.TempDir()

	cfg, err := config.Load(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vesper.yaml", `
data_dir: /srv/vesper
addr: 0.0.0.0
port: 9000
search:
  workers: 3
  respect_ignore: true
  job_retention: 30s
`)

	cfg, err := config.Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "/srv/vesper", cfg.DataDir)
	assert.Equal(t, "0.0.0.0", cfg.Addr)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 3, cfg.Search.Workers)
	assert.True(t, cfg.Search.RespectIgnore)
	assert.Equal(t, 30*time.Second, cfg.Search.JobRetention)
	assert.Equal(t, time.Minute, cfg.Search.PruneInterval)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vesper.yaml", "port: [not a number\n")

	_, err := config.Load(path, "")
	assert.Error(t, err)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vesper.yaml", "port: 9000\naddr: filehost\n")
	t.Setenv("VESPER_PORT", "9100")
	t.Setenv("VESPER_SEARCH_RESPECT_IGNORE", "true")
	t.Setenv("VESPER_SEARCH_PRUNE_INTERVAL", "5s")

	cfg, err := config.Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "filehost", cfg.Addr)
	assert.True(t, cfg.Search.RespectIgnore)
	assert.Equal(t, 5*time.Second, cfg.Search.PruneInterval)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "VESPER_WORKSPACE=/from/env/file\nVESPER_KEYS_DIR=/keys/from/file\n")
	t.Setenv("VESPER_KEYS_DIR", "/keys/from/process")
	t.Cleanup(func() {
		_ = os.Unsetenv("VESPER_WORKSPACE")
	})

	cfg, err := config.Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, "/from/env/file", cfg.Workspace)
	assert.Equal(t, "/keys/from/process", cfg.KeysDir)
}

func TestLoad_InvalidEnvironmentValue(t *testing.T) {
	t.Setenv("VESPER_PORT", "eighty")

	_, err := config.Load("", "")
	assert.ErrorContains(t, err, "VESPER_PORT")
}

func TestResolve(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Resolve())

	dataDir := filepath.Join(dataHome, "vesper")
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "workspace"), cfg.Workspace)
	assert.Equal(t, filepath.Join(dataDir, "keys"), cfg.KeysDir)
	assert.Empty(t, cfg.IdentityFile)
	assert.Empty(t, cfg.RecipientsFile)
}

func TestResolve_DefaultKeys(t *testing.T) {
	dataDir := t.TempDir()
	keysDir := filepath.Join(dataDir, "keys")
	require.NoError(t, os.MkdirAll(keysDir, 0700))
	identity := writeFile(t, keysDir, "key.txt", "AGE-SECRET-KEY-1")
	recipients := writeFile(t, keysDir, "key.pub", "age1")

	cfg := config.DefaultConfig()
	cfg.DataDir = dataDir
	cfg.Workspace = "/explicit/workspace"
	require.NoError(t, cfg.Resolve())

	assert.Equal(t, "/explicit/workspace", cfg.Workspace)
	assert.Equal(t, identity, cfg.IdentityFile)
	assert.Equal(t, recipients, cfg.RecipientsFile)
}

func TestResolve_DefaultKeysFromKeysDir(t *testing.T) {
	dataDir := t.TempDir()
	keysDir := t.TempDir()
	identity := writeFile(t, keysDir, "key.txt", "AGE-SECRET-KEY-1")
	recipients := writeFile(t, keysDir, "key.pub", "age1")

	cfg := config.DefaultConfig()
	cfg.DataDir = dataDir
	cfg.KeysDir = keysDir
	require.NoError(t, cfg.Resolve())

	assert.Equal(t, keysDir, cfg.KeysDir)
	assert.Equal(t, identity, cfg.IdentityFile)
	assert.Equal(t, recipients, cfg.RecipientsFile)
}
