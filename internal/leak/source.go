package leak

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/leakvault/internal/hashx"
	"github.com/dmitrijs2005/leakvault/internal/netx"
)

// DefaultMaxBytes caps a single fetched candidate.
const DefaultMaxBytes = 20 << 20

// Source supplies candidates for a scan.
type Source interface {
	Candidates(ctx context.Context) ([]Candidate, error)
}

// DirectorySource fingerprints every regular file below Dir. Hidden files
// and directories are ignored. Candidate URLs are file:// URLs.
type DirectorySource struct {
	Dir string
}

func (s DirectorySource) Candidates(ctx context.Context) ([]Candidate, error) {
	root, err := filepath.Abs(s.Dir)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		digest, _ := hashx.PerceptualDigestFile(path)
		out = append(out, Candidate{
			URL:    (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(),
			Digest: digest,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.Dir, err)
	}
	return out, nil
}

// URLSource downloads each URL and fingerprints the response body. Fetch
// failures become skipped candidates, not errors.
type URLSource struct {
	URLs     []string
	Client   *http.Client
	MaxBytes int64
}

func (s URLSource) Candidates(ctx context.Context) ([]Candidate, error) {
	maxBytes := s.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	out := make([]Candidate, 0, len(s.URLs))
	for _, u := range s.URLs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := netx.Fetch(ctx, s.Client, u, maxBytes)
		if err != nil {
			out = append(out, Candidate{URL: u, Err: err})
			continue
		}

		digest, _ := hashx.PerceptualDigest(bytes.NewReader(body))
		out = append(out, Candidate{URL: u, Digest: digest})
	}
	return out, nil
}

// ReadURLList parses one URL per line. Blank lines and lines starting with
// '#' are ignored.
func ReadURLList(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return urls, nil
}

// ReadURLFile is ReadURLList for a file on disk.
func ReadURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadURLList(f)
}
