package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the hex encoded SHA-256 checksum of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ShortSHA truncates a commit or checksum to n characters.
func ShortSHA(sha string, n int) string {
	if n <= 0 || len(sha) <= n {
		return sha
	}
	return sha[:n]
}
