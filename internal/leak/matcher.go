// Package leak decides whether images found elsewhere are copies of vault
// images. Matching is pure: candidates are produced by a Source, the
// verdict by Evaluate, and persistence is up to the caller.
package leak

import (
	"errors"

	"github.com/dmitrijs2005/leakvault/internal/hashx"
)

// Skip reasons that do not come from a source error.
const (
	ReasonNotImage       = "not an image"
	ReasonLengthMismatch = "digest length mismatch"
	ReasonMalformed      = "malformed digest"
)

// Candidate is one image found at an external location.
type Candidate struct {
	URL string
	// Digest is the perceptual digest, empty when the content is not an image.
	Digest string
	// Err is set when the source could not obtain the content.
	Err error
}

// Match is a candidate within the threshold. Distance is the Hamming
// distance; 0 means identical fingerprints.
type Match struct {
	URL      string `json:"url"`
	Distance int    `json:"distance"`
}

// Skip records a candidate that could not be compared.
type Skip struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Report summarises one scan of one entry.
type Report struct {
	FileID  int64   `json:"file_id"`
	Checked int     `json:"checked"`
	Matches []Match `json:"matches"`
	Skipped []Skip  `json:"skipped,omitempty"`
}

// Evaluate compares digest with every candidate and keeps those within
// threshold bits. Candidate order is preserved.
func Evaluate(digest string, candidates []Candidate, threshold int) Report {
	r := Report{Matches: []Match{}}

	for _, c := range candidates {
		switch {
		case c.Err != nil:
			r.Skipped = append(r.Skipped, Skip{URL: c.URL, Reason: c.Err.Error()})
			continue
		case c.Digest == "":
			r.Skipped = append(r.Skipped, Skip{URL: c.URL, Reason: ReasonNotImage})
			continue
		}

		d, err := hashx.HammingDistance(digest, c.Digest)
		if err != nil {
			reason := ReasonMalformed
			if errors.Is(err, hashx.ErrDigestLengthMismatch) {
				reason = ReasonLengthMismatch
			}
			r.Skipped = append(r.Skipped, Skip{URL: c.URL, Reason: reason})
			continue
		}

		r.Checked++
		if hashx.WithinThreshold(d, threshold) {
			r.Matches = append(r.Matches, Match{URL: c.URL, Distance: d})
		}
	}

	return r
}
