// Package config assembles the runtime settings of the vault: defaults, then
// an optional JSON file (-c / -config), then command-line flags. Later
// sources take precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/leakvault/internal/hashx"
)

// Config holds runtime settings.
//
// Fields:
//   - VaultDir: directory holding the key, the blobs, the staging area and
//     (for SQLite) the database.
//   - DatabaseDriver / DatabaseDSN: metadata store; "sqlite" or "postgres".
//   - KeyFile: overrides <VaultDir>/secret.key.
//   - MatchThreshold: largest Hamming distance reported as a leak.
//   - BlobBackend: "local" or "s3"; S3* fields configure the latter.
//   - LogLevel / LogFormat: slog level and "text" or "json" output.
//   - FetchTimeout: per-request timeout when fetching candidate URLs.
type Config struct {
	VaultDir       string
	DatabaseDriver string
	DatabaseDSN    string
	KeyFile        string
	MatchThreshold int

	BlobBackend    string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string

	LogLevel     string
	LogFormat    string
	FetchTimeout time.Duration
}

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.VaultDir = "."
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = ""
	c.KeyFile = ""
	c.MatchThreshold = hashx.DefaultThreshold
	c.BlobBackend = BackendLocal
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
	c.S3AccessKey = ""
	c.S3SecretKey = ""
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.FetchTimeout = 30 * time.Second
}

// Load builds a Config from args (os.Args[1:] without the program name) and
// returns the remaining positional arguments: the command and its operands.
func Load(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, nil, err
	}

	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, rest, nil
}

var ErrInvalidConfig = errors.New("invalid config")

// Validate checks the combination of settings.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseDSN == "" {
			return fmt.Errorf("%w: postgres requires a DSN (-d)", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.DatabaseDriver)
	}

	switch c.BlobBackend {
	case BackendLocal:
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("%w: s3 backend requires a bucket (-s3b)", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown blob backend %q", ErrInvalidConfig, c.BlobBackend)
	}

	if c.MatchThreshold < 0 || c.MatchThreshold > hashx.MaxThreshold {
		return fmt.Errorf("%w: threshold %d out of range 0..%d", ErrInvalidConfig, c.MatchThreshold, hashx.MaxThreshold)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("%w: fetch timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// EncryptedDir is where the local backend keeps blobs.
func (c *Config) EncryptedDir() string { return filepath.Join(c.VaultDir, "encrypted") }

// UploadDir is the staging area for uploads.
func (c *Config) UploadDir() string { return filepath.Join(c.VaultDir, "uploads") }

// KeyPath is the vault secret key file.
func (c *Config) KeyPath() string {
	if c.KeyFile != "" {
		return c.KeyFile
	}
	return filepath.Join(c.VaultDir, "secret.key")
}

// DSN returns the database DSN, defaulting to <VaultDir>/vault.db for SQLite.
func (c *Config) DSN() string {
	if c.DatabaseDSN == "" && c.DatabaseDriver == "sqlite" {
		return filepath.Join(c.VaultDir, "vault.db")
	}
	return c.DatabaseDSN
}
