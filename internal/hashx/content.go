// Package hashx computes the two digests the vault keeps per file: a
// SHA-256 content digest (identity, dedup and tamper checks) and a dHash
// perceptual digest (visual similarity for leak detection). The two are
// never interchangeable.
package hashx

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// ChunkSize is the read buffer used while streaming content into SHA-256.
const ChunkSize = 4096

// ContentDigest streams r through SHA-256 and returns the lowercase hex
// digest (64 characters).
func ContentDigest(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ContentDigestFile returns the content digest of the file at path.
func ContentDigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	d, err := ContentDigest(f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return d, nil
}

// ContentDigestBytes is ContentDigest for data already in memory.
func ContentDigestBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
