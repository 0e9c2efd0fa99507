// Package config resolves vesper's settings from defaults, an optional YAML file, an
// optional .env file and VESPER_* environment variables. Command-line flags are applied
// on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is read from the working directory when no file is given
	DefaultConfigFile = "vesper.yaml"

	// DefaultEnvFile is read from the working directory when no file is given
	DefaultEnvFile = ".env"

	envPrefix = "VESPER_"
)

// SearchConfig holds the settings of the search service
type SearchConfig struct {
	// Workers bounds concurrently scanned files per search (0 = GOMAXPROCS)
	Workers int `yaml:"workers"`

	// RespectIgnore skips entries matched by the searched root's .gitignore
	RespectIgnore bool `yaml:"respect_ignore"`

	// JobRetention is how long finished searches stay queryable
	JobRetention time.Duration `yaml:"job_retention"`

	// PruneInterval is how often finished searches are pruned
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// Config represents vesper configuration options
type Config struct {
	// DataDir holds logs, extensions and default keys
	DataDir string `yaml:"data_dir"`

	// Workspace is the directory served for reading, writing, listing and searching
	Workspace string `yaml:"workspace"`

	// Addr is the address the HTTP server binds to
	Addr string `yaml:"addr"`

	// Port is the port the HTTP server listens on
	Port int `yaml:"port"`

	// KeysDir is where generated key pairs are saved
	KeysDir string `yaml:"keys_dir"`

	// IdentityFile is an age identity file used to decrypt workspace files
	IdentityFile string `yaml:"identity_file"`

	// RecipientsFile is an age recipients file used to encrypt workspace files
	RecipientsFile string `yaml:"recipients_file"`

	// Search contains search service configuration
	Search SearchConfig `yaml:"search"`
}

// DefaultConfig returns a Config with sensible default values. Directories left empty
// are filled in by Resolve.
func DefaultConfig() *Config {
	return &Config{
		Addr: "localhost",
		Port: 8080,
		Search: SearchConfig{
			Workers:       0, // GOMAXPROCS
			RespectIgnore: false,
			JobRetention:  10 * time.Minute,
			PruneInterval: time.Minute,
		},
	}
}

// Load builds a Config from defaults, then configFile, then envFile and the process
// environment. Missing files are not an error; malformed ones are.
func Load(configFile, envFile string) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFile(configFile); err != nil {
		return nil, err
	}

	// Variables already set in the environment win over the .env file.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.DataDir, "DATA_DIR")
	setString(&c.Workspace, "WORKSPACE")
	setString(&c.Addr, "ADDR")
	setString(&c.KeysDir, "KEYS_DIR")
	setString(&c.IdentityFile, "IDENTITY_FILE")
	setString(&c.RecipientsFile, "RECIPIENTS_FILE")

	if err := setInt(&c.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&c.Search.Workers, "SEARCH_WORKERS"); err != nil {
		return err
	}
	if err := setBool(&c.Search.RespectIgnore, "SEARCH_RESPECT_IGNORE"); err != nil {
		return err
	}
	if err := setDuration(&c.Search.JobRetention, "SEARCH_JOB_RETENTION"); err != nil {
		return err
	}
	return setDuration(&c.Search.PruneInterval, "SEARCH_PRUNE_INTERVAL")
}

// Resolve fills in every directory left empty: the data directory falls back to
// XDG_DATA_HOME/vesper (or ~/.local/share/vesper), the workspace to
// <data>/workspace and the keys directory to <data>/keys. Key files fall back to
// key.txt and key.pub in the keys directory when both exist.
func (c *Config) Resolve() error {
	if c.DataDir == "" {
		xdgDataHome, err := XDGDataHome()
		if err != nil {
			return fmt.Errorf("unable to determine data directory: %w", err)
		}
		c.DataDir = filepath.Join(xdgDataHome, "vesper")
	}

	if c.Workspace == "" {
		c.Workspace = filepath.Join(c.DataDir, "workspace")
	}

	if c.KeysDir == "" {
		c.KeysDir = filepath.Join(c.DataDir, "keys")
	}

	if c.IdentityFile == "" && c.RecipientsFile == "" {
		c.IdentityFile, c.RecipientsFile = defaultKeys(c.KeysDir)
	}

	return nil
}

// XDGDataHome determines the XDG_DATA_HOME directory.
func XDGDataHome() (string, error) {
	xdgDataHome := os.Getenv("XDG_DATA_HOME")
	if xdgDataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("unable to determine user home directory: %w", err)
		}
		xdgDataHome = filepath.Join(homeDir, ".local", "share")
	}

	return xdgDataHome, nil
}

// defaultKeys returns key.txt and key.pub from keysDir when both exist
func defaultKeys(keysDir string) (identityFile, recipientsFile string) {
	identityFile = filepath.Join(keysDir, "key.txt")
	recipientsFile = filepath.Join(keysDir, "key.pub")

	if _, err := os.Stat(identityFile); err != nil {
		return "", ""
	}
	if _, err := os.Stat(recipientsFile); err != nil {
		return "", ""
	}

	return identityFile, recipientsFile
}

func setString(dst *string, key string) {
	if value := os.Getenv(envPrefix + key); value != "" {
		*dst = value
	}
}

func setInt(dst *int, key string) error {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = parsed
	return nil
}

func setBool(dst *bool, key string) error {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = parsed
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = parsed
	return nil
}
