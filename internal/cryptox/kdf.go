// Package cryptox implements the cryptographic primitives of Sealbox:
// password-based key derivation, the identity key pair, AEAD encryption,
// asymmetric key wrapping, content digests and detached signatures.
//
// Every function here is pure: no state is kept between calls, and the only
// non-determinism is the random salts, nonces and keys that are generated on
// purpose. The protocol layers above compose exclusively from these calls.
package cryptox

import (
	"crypto/sha256"

	"github.com/akarpov/sealbox/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

// KDF parameters are fixed across the whole system. Changing them breaks
// the ability to re-derive master keys for existing accounts.
const (
	// KDFIterations is the PBKDF2 iteration count.
	KDFIterations = 150_000
	// MasterKeyLen is the derived master key length in bytes (AES-256).
	MasterKeyLen = 32
	// SaltSize is the per-user KDF salt length in bytes.
	SaltSize = 32
)

// KDFParams records the derivation parameters alongside stored credentials so
// that a future parameter bump can coexist with old accounts.
type KDFParams struct {
	Iterations int `json:"iterations"`
	KeyLen     int `json:"key_len"`
}

// DefaultKDFParams returns the parameters used for newly registered users.
func DefaultKDFParams() KDFParams {
	return KDFParams{Iterations: KDFIterations, KeyLen: MasterKeyLen}
}

// DeriveMasterKey derives the user's master key from a password and salt
// using PBKDF2-SHA256. The same (password, salt) pair always reproduces the
// identical key; the result is never persisted.
func DeriveMasterKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, KDFIterations, MasterKeyLen, sha256.New)
}

// MakeVerifier returns a one-way fingerprint of the master key. The server
// stores the verifier to authenticate logins without ever learning the
// master key itself.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// GenerateSalt returns a fresh random KDF salt.
func GenerateSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}
