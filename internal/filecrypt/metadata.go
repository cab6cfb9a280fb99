package filecrypt

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"

	"github.com/akarpov/sealbox/internal/common"
	"github.com/akarpov/sealbox/internal/cryptox"
)

// Metadata is the optional encrypted descriptive blob attached to a file.
type Metadata struct {
	Filename    string   `json:"filename"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// EncryptMetadata serializes metadata to JSON and seals it under the file
// key, so descriptive fields stay as opaque to the server as the body.
func EncryptMetadata(meta *Metadata, fileKey []byte) (*cryptox.SealedData, error) {
	plaintext, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return cryptox.Seal(plaintext, fileKey)
}

// DecryptMetadata unseals and unmarshals an encrypted metadata blob.
func DecryptMetadata(sealed *cryptox.SealedData, fileKey []byte) (*Metadata, error) {
	plaintext, err := cryptox.Open(sealed, fileKey)
	if err != nil {
		return nil, err
	}
	meta := &Metadata{}
	if err := json.Unmarshal(plaintext, meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return meta, nil
}

// MetadataOrFallback decrypts metadata opportunistically: when the blob is
// absent or undecryptable the file retrieval must not fail, so a minimal
// fallback is returned instead. wrappedKey is the caller's wrapped copy of
// the file key (owner's or a share record's).
func MetadataOrFallback(sealed *cryptox.SealedData, wrappedKey []byte, priv *rsa.PrivateKey, fallbackName string) *Metadata {
	if sealed == nil || len(sealed.Ciphertext) == 0 {
		return &Metadata{Filename: fallbackName}
	}
	fileKey, err := cryptox.UnwrapKey(wrappedKey, priv)
	if err != nil {
		return &Metadata{Filename: fallbackName}
	}
	defer common.WipeByteArray(fileKey)
	meta, err := DecryptMetadata(sealed, fileKey)
	if err != nil {
		return &Metadata{Filename: fallbackName}
	}
	return meta
}
