package common

const (
	// BlobExtension is appended to the digest prefix to form a blob name.
	BlobExtension = ".enc"

	// BlobNameDigestChars is how many leading hex characters of the content
	// digest are used in a blob name.
	BlobNameDigestChars = 16
)

// BlobName returns the storage name for a content digest.
func BlobName(contentDigest string) string {
	n := BlobNameDigestChars
	if len(contentDigest) < n {
		n = len(contentDigest)
	}
	return contentDigest[:n] + BlobExtension
}
