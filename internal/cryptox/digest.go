package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentDigest computes the SHA-256 hex digest of a plaintext. It is the
// post-decryption integrity target stored on file records, and is never used
// for access-control decisions.
func ContentDigest(plaintext []byte) string {
	sum := sha256.Sum256(plaintext)
	return hex.EncodeToString(sum[:])
}
