package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/leakvault/internal/flagx"
)

// JsonConfig is the on-disk form of Config. Keys absent from the file keep
// their current value.
type JsonConfig struct {
	VaultDir       string `json:"vault_dir"`
	DatabaseDriver string `json:"database_driver"`
	DatabaseDSN    string `json:"database_dsn"`
	KeyFile        string `json:"key_file"`
	MatchThreshold int    `json:"match_threshold"`

	BlobBackend    string `json:"blob_backend"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
	// FetchTimeout is in seconds.
	FetchTimeout int `json:"fetch_timeout"`
}

// parseJson overlays cfg with the file named by -c / -config in args, if any.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	jc := JsonConfig{
		VaultDir:       cfg.VaultDir,
		DatabaseDriver: cfg.DatabaseDriver,
		DatabaseDSN:    cfg.DatabaseDSN,
		KeyFile:        cfg.KeyFile,
		MatchThreshold: cfg.MatchThreshold,
		BlobBackend:    cfg.BlobBackend,
		S3Bucket:       cfg.S3Bucket,
		S3Region:       cfg.S3Region,
		S3BaseEndpoint: cfg.S3BaseEndpoint,
		S3AccessKey:    cfg.S3AccessKey,
		S3SecretKey:    cfg.S3SecretKey,
		LogLevel:       cfg.LogLevel,
		LogFormat:      cfg.LogFormat,
		FetchTimeout:   int(cfg.FetchTimeout / time.Second),
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.VaultDir = jc.VaultDir
	cfg.DatabaseDriver = jc.DatabaseDriver
	cfg.DatabaseDSN = jc.DatabaseDSN
	cfg.KeyFile = jc.KeyFile
	cfg.MatchThreshold = jc.MatchThreshold
	cfg.BlobBackend = jc.BlobBackend
	cfg.S3Bucket = jc.S3Bucket
	cfg.S3Region = jc.S3Region
	cfg.S3BaseEndpoint = jc.S3BaseEndpoint
	cfg.S3AccessKey = jc.S3AccessKey
	cfg.S3SecretKey = jc.S3SecretKey
	cfg.LogLevel = jc.LogLevel
	cfg.LogFormat = jc.LogFormat
	cfg.FetchTimeout = time.Duration(jc.FetchTimeout) * time.Second
	return nil
}
