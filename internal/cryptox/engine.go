// Package cryptox implements the vault encryption engine: whole-file
// authenticated encryption under the vault key.
//
// Blob format:
//
//	version (1 byte) | nonce (12 bytes) | AES-256-GCM ciphertext+tag
//
// The version byte is bound to the ciphertext as additional data. The AES
// key is derived from the vault secret with HKDF-SHA256.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/dmitrijs2005/leakvault/internal/common"
)

const (
	formatVersion byte = 1
	hkdfInfo           = "leakvault blob encryption v1"
)

// Engine encrypts and decrypts whole blobs. It is safe for concurrent use.
type Engine struct {
	aead cipher.AEAD
}

// NewEngine derives the blob key from k and prepares an AES-GCM AEAD.
func NewEngine(k *Key) (*Engine, error) {
	if k == nil {
		return nil, fmt.Errorf("%w: nil key", ErrInvalidKey)
	}

	blobKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, k.material, nil, []byte(hkdfInfo)), blobKey); err != nil {
		return nil, fmt.Errorf("derive blob key: %w", err)
	}

	block, err := aes.NewCipher(blobKey)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Engine{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce. Encrypting the same
// plaintext twice yields different ciphertexts.
func (e *Engine) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	out := make([]byte, 0, 1+len(nonce)+len(plaintext)+e.aead.Overhead())
	out = append(out, formatVersion)
	out = append(out, nonce...)

	return e.aead.Seal(out, nonce, plaintext, []byte{formatVersion}), nil
}

// Decrypt opens a blob produced by Encrypt. Any alteration of the bytes, a
// foreign format or a wrong key yields common.ErrAuthenticationFailure.
func (e *Engine) Decrypt(ciphertext []byte) ([]byte, error) {
	ns := e.aead.NonceSize()

	if len(ciphertext) < 1+ns+e.aead.Overhead() {
		return nil, fmt.Errorf("%w: blob too short", common.ErrAuthenticationFailure)
	}
	if ciphertext[0] != formatVersion {
		return nil, fmt.Errorf("%w: unknown blob version %d", common.ErrAuthenticationFailure, ciphertext[0])
	}

	plaintext, err := e.aead.Open(nil, ciphertext[1:1+ns], ciphertext[1+ns:], []byte{formatVersion})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrAuthenticationFailure, err)
	}

	return plaintext, nil
}
