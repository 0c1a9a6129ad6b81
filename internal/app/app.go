// Package app wires the configured components into a Vault and runs one
// command-line invocation against it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/leakvault/internal/blobstore"
	"github.com/dmitrijs2005/leakvault/internal/config"
	"github.com/dmitrijs2005/leakvault/internal/cryptox"
	"github.com/dmitrijs2005/leakvault/internal/logging"
	"github.com/dmitrijs2005/leakvault/internal/repositories/repomanager"
	"github.com/dmitrijs2005/leakvault/internal/vault"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	vault  *vault.Vault
	out    *printer
}

// NewApp opens the metadata store, loads (or creates) the vault key and
// builds the blob store selected by c.
func NewApp(ctx context.Context, c *config.Config, stdout, stderr io.Writer) (*App, error) {
	logger := logging.New(stderr, c.LogLevel, c.LogFormat)

	if err := os.MkdirAll(c.VaultDir, 0o700); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	db, repos, err := repomanager.Open(ctx, c.DatabaseDriver, c.DSN())
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	v, err := buildVault(ctx, c, logger, db, repos)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		config: c,
		logger: logger,
		db:     db,
		vault:  v,
		out:    newPrinter(stdout),
	}, nil
}

func buildVault(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, repos repomanager.RepositoryManager) (*vault.Vault, error) {
	key, err := cryptox.LoadOrCreateKey(c.KeyPath())
	if err != nil {
		return nil, fmt.Errorf("load key: %w", err)
	}
	logger.Debug(ctx, "vault key ready", "path", key.Path())
	engine, err := cryptox.NewEngine(key)
	if err != nil {
		return nil, fmt.Errorf("init encryption: %w", err)
	}

	blobs, err := newBlobStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	return vault.New(db, repos, blobs, engine, vault.Options{
		UploadDir: c.UploadDir(),
		Threshold: &c.MatchThreshold,
		Logger:    logger,
	})
}

func newBlobStore(ctx context.Context, c *config.Config) (blobstore.Store, error) {
	if c.BlobBackend == config.BackendS3 {
		return blobstore.NewS3Store(ctx, blobstore.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		})
	}
	return blobstore.NewLocalStore(c.EncryptedDir())
}

// Close releases the database.
func (a *App) Close() error {
	return a.db.Close()
}

// Main parses args (without the program name), runs the command and
// returns the process exit code.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, rest, err := config.Load(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			usage(stderr)
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		usage(stderr)
		return 1
	}
	if len(rest) == 0 {
		usage(stderr)
		return 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	initSignalHandler(ctx, cancel)

	a, err := NewApp(ctx, cfg, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Error(ctx, "close database", "error", err)
		}
	}()

	if err := a.Execute(ctx, rest); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		if errors.Is(err, errUsage) {
			usage(stderr)
		}
		return 1
	}
	return 0
}

// initSignalHandler cancels the running command on SIGINT/SIGTERM so its
// transaction can roll back.
func initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: leakvault [flags] <command> [args]

commands:
  list                        list stored files, newest first
  upload <path>               encrypt and store a file
  info <id>                   show one file
  download <id> <out>         decrypt a file to <out> and verify it
  verify <id>                 decrypt in memory and check the digest
  scan <id> <dir|urls-file>   look for copies of an image
  results <id>                show recorded leak matches

flags:
`)
	config.PrintDefaults(w)
}
