package cryptox

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/leakvault/internal/common"
	"github.com/dmitrijs2005/leakvault/internal/filex"
)

// KeySize is the length in bytes of the vault secret.
const KeySize = 32

var ErrInvalidKey = errors.New("invalid key file")

// Key is the vault-wide secret. It is created once per vault and loaded
// unchanged afterwards; losing it makes every stored blob unreadable.
type Key struct {
	path     string
	material []byte
}

// Path returns the key file the secret was loaded from.
func (k *Key) Path() string { return k.path }

// NewKey wraps raw key material that did not come from a file. Used by tests
// and callers that manage the secret themselves.
func NewKey(material []byte) (*Key, error) {
	if len(material) != KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, KeySize, len(material))
	}
	return &Key{material: bytes.Clone(material)}, nil
}

// LoadOrCreateKey loads the secret stored at path, or generates a new random
// one and persists it there with owner-only permissions.
//
// The file holds the base64 encoding of the key. A new key is written to a
// temporary file and linked into place only if the path is still free, so
// a half-written key is never loaded, and two first starts racing on one
// vault end up sharing whichever key was published first.
func LoadOrCreateKey(path string) (*Key, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return parseKeyFile(path, data)
	case errors.Is(err, fs.ErrNotExist):
		return createKey(path)
	default:
		return nil, fmt.Errorf("%w: read key %s: %w", common.ErrIOFailure, path, err)
	}
}

func parseKeyFile(path string, data []byte) (*Key, error) {
	material, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidKey, path, err)
	}

	k, err := NewKey(material)
	if err != nil {
		return nil, err
	}
	k.path = path
	return k, nil
}

func createKey(path string) (*Key, error) {
	material := make([]byte, KeySize)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	if err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}

	encoded := base64.StdEncoding.EncodeToString(material) + "\n"
	err := filex.WriteFileExclusive(path, []byte(encoded), 0o600)
	switch {
	case err == nil:
		return &Key{path: path, material: material}, nil
	case errors.Is(err, fs.ErrExist):
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, fmt.Errorf("%w: read key %s: %w", common.ErrIOFailure, path, rerr)
		}
		return parseKeyFile(path, data)
	default:
		return nil, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
}
