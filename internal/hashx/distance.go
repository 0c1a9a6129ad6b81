package hashx

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/bits"
)

// DefaultThreshold is the largest Hamming distance still considered a match.
// It tolerates re-encoding and resizing while rejecting unrelated images.
const DefaultThreshold = 5

// MaxThreshold is the number of bits in a perceptual digest. A threshold
// this large matches every well-formed candidate.
const MaxThreshold = PerceptualDigestLen * 4

var (
	ErrDigestLengthMismatch = errors.New("perceptual digests differ in length")
	ErrMalformedDigest      = errors.New("malformed perceptual digest")
)

// HammingDistance counts the differing bits between two perceptual digests
// produced by the same algorithm.
func HammingDistance(a, b string) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDigestLengthMismatch, len(a), len(b))
	}

	ab, err := hex.DecodeString(a)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedDigest, err)
	}
	bb, err := hex.DecodeString(b)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedDigest, err)
	}

	d := 0
	for i := range ab {
		d += bits.OnesCount8(ab[i] ^ bb[i])
	}
	return d, nil
}

// IsMatch reports whether a and b are within threshold bits of each other.
func IsMatch(a, b string, threshold int) (bool, error) {
	d, err := HammingDistance(a, b)
	if err != nil {
		return false, err
	}
	return WithinThreshold(d, threshold), nil
}

// WithinThreshold is the match rule for an already computed distance.
func WithinThreshold(distance, threshold int) bool {
	return distance <= threshold
}
