package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlobName(t *testing.T) {
	digest := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	assert.Equal(t, "0123456789abcdef.enc", BlobName(digest))
	assert.Equal(t, "abc.enc", BlobName("abc"))
}

func TestWrappedCategoriesMatch(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrDecryptionFailure, ErrAuthenticationFailure)
	assert.True(t, errors.Is(err, ErrDecryptionFailure))
	assert.True(t, errors.Is(err, ErrAuthenticationFailure))
	assert.False(t, errors.Is(err, ErrIntegrityFailure))
}
