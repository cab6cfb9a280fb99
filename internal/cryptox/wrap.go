package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	"github.com/akarpov/sealbox/internal/common"
)

// WrapKey encrypts a raw symmetric key under the recipient's public key using
// RSA-OAEP (SHA-256). Only the holder of the matching private key can
// recover the key material.
func WrapKey(fileKey []byte, pub *rsa.PublicKey) ([]byte, error) {
	if err := ValidatePublicKey(pub); err != nil {
		return nil, err
	}
	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, fileKey, nil)
	if err != nil {
		return nil, fmt.Errorf("wrap key: %w", err)
	}
	return wrapped, nil
}

// UnwrapKey decrypts a wrapped symmetric key with the given private key.
// A mismatched private key or corrupted ciphertext yields common.ErrKeyUnwrap;
// OAEP padding verification guarantees a wrong key never produces garbage
// key material.
func UnwrapKey(wrapped []byte, priv *rsa.PrivateKey) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("nil private key: %w", common.ErrInvalidKey)
	}
	fileKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrapped, nil)
	if err != nil {
		return nil, fmt.Errorf("unwrap key: %w", common.ErrKeyUnwrap)
	}
	return fileKey, nil
}
