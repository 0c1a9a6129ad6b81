package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/dmitrijs2005/leakvault/internal/common"
	"github.com/dmitrijs2005/leakvault/internal/leak"
)

var errUsage = errors.New("invalid usage")

// Execute runs one command. args[0] is the command name.
func (a *App) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, operands := args[0], args[1:]
	want := map[string]int{
		"list":     0,
		"upload":   1,
		"info":     1,
		"download": 2,
		"verify":   1,
		"scan":     2,
		"results":  1,
	}
	n, ok := want[cmd]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	if len(operands) != n {
		return fmt.Errorf("%w: %s takes %d argument(s)", errUsage, cmd, n)
	}

	switch cmd {
	case "list":
		return a.list(ctx)
	case "upload":
		return a.upload(ctx, operands[0])
	}

	id, err := parseID(operands[0])
	if err != nil {
		return err
	}

	switch cmd {
	case "info":
		return a.info(ctx, id)
	case "download":
		return a.download(ctx, id, operands[1])
	case "verify":
		return a.verify(ctx, id)
	case "scan":
		return a.scan(ctx, id, operands[1])
	default:
		return a.results(ctx, id)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad id %q", errUsage, s)
	}
	return id, nil
}

func (a *App) list(ctx context.Context) error {
	files, err := a.vault.List(ctx)
	if err != nil {
		return err
	}
	return a.out.files(files)
}

type uploadResult struct {
	Status string `json:"status"`
	ID     int64  `json:"id,omitempty"`
	Source string `json:"source"`
}

func (a *App) upload(ctx context.Context, path string) error {
	id, err := a.vault.Upload(ctx, path)
	switch {
	case errors.Is(err, common.ErrDuplicateContent):
		return a.out.message(uploadResult{Status: "duplicate", Source: path}, "already stored: %s", path)
	case err != nil:
		return err
	}
	return a.out.message(uploadResult{Status: "stored", ID: id, Source: path}, "stored %s as #%d", path, id)
}

func (a *App) info(ctx context.Context, id int64) error {
	fi, err := a.vault.FileInfo(ctx, id)
	if err != nil {
		return err
	}
	if fi == nil {
		return fmt.Errorf("%w: file %d", common.ErrNotFound, id)
	}
	return a.out.file(fi)
}

type pathResult struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
	Output string `json:"output,omitempty"`
}

func (a *App) download(ctx context.Context, id int64, out string) error {
	if err := a.vault.Download(ctx, id, out); err != nil {
		return err
	}
	return a.out.message(pathResult{Status: "downloaded", ID: id, Output: out}, "downloaded #%d to %s", id, out)
}

func (a *App) verify(ctx context.Context, id int64) error {
	if err := a.vault.Verify(ctx, id); err != nil {
		return err
	}
	return a.out.message(pathResult{Status: "ok", ID: id}, "#%d ok", id)
}

func (a *App) scan(ctx context.Context, id int64, target string) error {
	src, err := a.source(target)
	if err != nil {
		return err
	}

	report, err := a.vault.Scan(ctx, id, src)
	if err != nil {
		return err
	}
	return a.out.report(report, a.vault.Threshold())
}

// source picks a DirectorySource for a directory and a URLSource for a
// file listing URLs.
func (a *App) source(target string) (leak.Source, error) {
	fi, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrSourceNotFound, target)
	}
	if fi.IsDir() {
		return leak.DirectorySource{Dir: target}, nil
	}

	urls, err := leak.ReadURLFile(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	return leak.URLSource{
		URLs:   urls,
		Client: &http.Client{Timeout: a.config.FetchTimeout},
	}, nil
}

func (a *App) results(ctx context.Context, id int64) error {
	res, err := a.vault.ScanResults(ctx, id)
	if err != nil {
		return err
	}
	return a.out.scanResults(res)
}
