package models

import "time"

// ScanResult records one external location where a visually similar copy of
// a vault image was found. FileID is a plain reference; a File does not
// track its scan results.
type ScanResult struct {
	ID      int64     `json:"id"`
	FileID  int64     `json:"file_id"`
	URL     string    `json:"url"`
	FoundAt time.Time `json:"found_at"`
	// SimilarityScore is the Hamming distance between perceptual digests;
	// lower means more similar.
	SimilarityScore int `json:"similarity_score"`
}
