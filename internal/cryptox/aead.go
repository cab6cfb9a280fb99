package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/akarpov/sealbox/internal/common"
)

const (
	// NonceSize is the AES-GCM nonce length in bytes.
	NonceSize = 12
	// TagSize is the AES-GCM authentication tag length in bytes.
	TagSize = 16
	// FileKeyLen is the per-file symmetric key length in bytes (AES-256).
	FileKeyLen = 32
)

// SealedData is the result of one AEAD encryption. The authentication tag is
// kept separate from the ciphertext because stored records carry it as its
// own column.
type SealedData struct {
	Ciphertext []byte
	Nonce      []byte
	Tag        []byte
}

// GenerateFileKey returns a fresh random per-file symmetric key.
// A file key is generated once per file and never reused.
func GenerateFileKey() []byte {
	return common.GenerateRandByteArray(FileKeyLen)
}

// Seal encrypts plaintext with AES-256-GCM under key, generating a random
// nonce for this call. The key must be 16, 24 or 32 bytes.
func Seal(plaintext, key []byte) (*SealedData, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())

	sealed := aesgcm.Seal(nil, nonce, plaintext, nil)

	// GCM appends the tag to the ciphertext; split it off.
	n := len(sealed) - TagSize
	return &SealedData{
		Ciphertext: sealed[:n],
		Nonce:      nonce,
		Tag:        sealed[n:],
	}, nil
}

// Open decrypts data sealed by Seal. If the authentication tag does not
// verify (tampered data or wrong key), it returns common.ErrIntegrity and
// no plaintext.
func Open(data *SealedData, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	if len(data.Nonce) != aesgcm.NonceSize() {
		return nil, fmt.Errorf("bad nonce length %d: %w", len(data.Nonce), common.ErrIntegrity)
	}

	sealed := make([]byte, 0, len(data.Ciphertext)+len(data.Tag))
	sealed = append(sealed, data.Ciphertext...)
	sealed = append(sealed, data.Tag...)

	plaintext, err := aesgcm.Open(nil, data.Nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("aead open: %w", common.ErrIntegrity)
	}
	return plaintext, nil
}
