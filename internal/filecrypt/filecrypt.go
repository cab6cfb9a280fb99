// Package filecrypt implements the file encryption engine: each file is
// AEAD-encrypted under its own fresh symmetric key, which is then wrapped
// under the owner's public identity key. The ciphertext body and the file
// key are fixed at creation; sharing never touches them.
package filecrypt

import (
	"crypto/rsa"
	"crypto/subtle"
	"fmt"

	"github.com/akarpov/sealbox/internal/common"
	"github.com/akarpov/sealbox/internal/cryptox"
)

// EncryptedFile is the result of encrypting one document. WrappedKey is the
// owner's copy of the file key; recipient copies are produced later by the
// re-wrapping protocol.
type EncryptedFile struct {
	Ciphertext []byte
	Nonce      []byte
	Tag        []byte
	WrappedKey []byte
	Digest     string
	PlainSize  int64
	CipherSize int64

	// Metadata is the optional encrypted descriptive blob, sealed under the
	// same file key as the body.
	Metadata *cryptox.SealedData
}

// EncryptFile encrypts plaintext under a freshly generated file key, wraps
// the key under the owner's public key and records the digest of the
// original plaintext as the post-decryption verification target.
//
// meta may be nil; when present it is sealed under the file key too.
func EncryptFile(plaintext []byte, meta *Metadata, ownerPub *rsa.PublicKey) (*EncryptedFile, error) {
	fileKey := cryptox.GenerateFileKey()
	defer common.WipeByteArray(fileKey)

	wrapped, err := cryptox.WrapKey(fileKey, ownerPub)
	if err != nil {
		return nil, err
	}

	sealed, err := cryptox.Seal(plaintext, fileKey)
	if err != nil {
		return nil, fmt.Errorf("encrypt file body: %w", err)
	}

	ef := &EncryptedFile{
		Ciphertext: sealed.Ciphertext,
		Nonce:      sealed.Nonce,
		Tag:        sealed.Tag,
		WrappedKey: wrapped,
		Digest:     cryptox.ContentDigest(plaintext),
		PlainSize:  int64(len(plaintext)),
		CipherSize: int64(len(sealed.Ciphertext)),
	}

	if meta != nil {
		ef.Metadata, err = EncryptMetadata(meta, fileKey)
		if err != nil {
			return nil, err
		}
	}

	return ef, nil
}

// DecryptFile recovers the plaintext of an encrypted file.
//
// wrappedKey is the copy valid for priv: the file record's own wrapped key
// on the owner path, or a share record's wrapped key on the recipient path.
// Both unwrap to the same file key; that equality is the core correctness
// property of the sharing protocol.
//
// Failure kinds are distinct: a bad wrapped key yields common.ErrKeyUnwrap,
// a forged or corrupted ciphertext fails AEAD verification, and plaintext
// that no longer matches the stored digest fails afterwards. The latter two
// are both common.ErrIntegrity with different messages, separating "corrupted
// ciphertext" from "tamper after an otherwise successful decrypt".
func DecryptFile(ef *EncryptedFile, wrappedKey []byte, priv *rsa.PrivateKey) ([]byte, error) {
	fileKey, err := cryptox.UnwrapKey(wrappedKey, priv)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(fileKey)

	sealed := &cryptox.SealedData{Ciphertext: ef.Ciphertext, Nonce: ef.Nonce, Tag: ef.Tag}
	plaintext, err := cryptox.Open(sealed, fileKey)
	if err != nil {
		return nil, fmt.Errorf("decrypt file body: %w", err)
	}

	if ef.Digest != "" {
		digest := cryptox.ContentDigest(plaintext)
		if subtle.ConstantTimeCompare([]byte(digest), []byte(ef.Digest)) != 1 {
			return nil, fmt.Errorf("content digest mismatch: %w", common.ErrIntegrity)
		}
	}

	return plaintext, nil
}
