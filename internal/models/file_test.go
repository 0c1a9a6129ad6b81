package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFile_HasPerceptualDigest(t *testing.T) {
	require.False(t, (&File{Filename: "doc.txt"}).HasPerceptualDigest())
	require.True(t, (&File{Filename: "photo.png", PerceptualDigest: "ffffffffffffffff"}).HasPerceptualDigest())
}
