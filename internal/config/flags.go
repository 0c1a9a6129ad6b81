package config

import (
	"flag"
	"io"
	"time"
)

// parseFlags overlays cfg with command-line flags and returns the positional
// arguments that follow them.
//
// Supported flags:
//
//	-v string    vault directory
//	-D string    database driver (sqlite|postgres)
//	-d string    database DSN
//	-k string    key file
//	-t int       match threshold (Hamming distance)
//	-b string    blob backend (local|s3)
//	-s3b string  S3 bucket
//	-s3g string  S3 region
//	-s3e string  S3 base endpoint
//	-s3u string  S3 access key
//	-s3p string  S3 secret key
//	-l string    log level
//	-f string    log format (text|json)
//	-ft int      fetch timeout (in seconds)
//	-c, -config  JSON config file (applied before flags)
func parseFlags(cfg *Config, args []string) ([]string, error) {
	fs, fetchTimeout := newFlagSet(cfg)
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.FetchTimeout = time.Duration(*fetchTimeout) * time.Second
	return fs.Args(), nil
}

// PrintDefaults writes the flag summary with default values to w.
func PrintDefaults(w io.Writer) {
	cfg := &Config{}
	cfg.LoadDefaults()
	fs, _ := newFlagSet(cfg)
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func newFlagSet(cfg *Config) (*flag.FlagSet, *int) {
	fs := flag.NewFlagSet("leakvault", flag.ContinueOnError)

	fs.StringVar(&cfg.VaultDir, "v", cfg.VaultDir, "vault directory")
	fs.StringVar(&cfg.DatabaseDriver, "D", cfg.DatabaseDriver, "database driver (sqlite|postgres)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.KeyFile, "k", cfg.KeyFile, "key file")
	fs.IntVar(&cfg.MatchThreshold, "t", cfg.MatchThreshold, "match threshold")
	fs.StringVar(&cfg.BlobBackend, "b", cfg.BlobBackend, "blob backend (local|s3)")
	fs.StringVar(&cfg.S3Bucket, "s3b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "s3g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "s3e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3AccessKey, "s3u", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "s3p", cfg.S3SecretKey, "S3 secret key")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format (text|json)")
	fetchTimeout := fs.Int("ft", int(cfg.FetchTimeout.Seconds()), "fetch timeout (in seconds)")

	// consumed by parseJson
	fs.String("c", "", "config file (short)")
	fs.String("config", "", "config file")

	return fs, fetchTimeout
}
