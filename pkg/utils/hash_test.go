package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA256Hex(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", SHA256Hex(nil))
	assert.Len(t, SHA256Hex([]byte("replicas=2")), 64)
}

func TestShortSHA(t *testing.T) {
	sha := "0123456789abcdef0123456789abcdef01234567"
	assert.Equal(t, "0123456789ab", ShortSHA(sha, 12))
	assert.Equal(t, "abc", ShortSHA("abc", 12))
	assert.Equal(t, sha, ShortSHA(sha, 0))
}
