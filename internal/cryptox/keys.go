package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/akarpov/sealbox/internal/common"
)

// IdentityKeyBits is the RSA modulus size for identity key pairs. It is fixed
// system-wide: wrapped keys issued under one size do not interoperate with
// keys of another.
const IdentityKeyBits = 2048

const publicKeyPEMType = "PUBLIC KEY"

// GenerateIdentityKeyPair creates a user's asymmetric key-transport pair.
// The private key is returned in memory only; callers wrap it under the
// master key before anything is persisted.
func GenerateIdentityKeyPair() (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, IdentityKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate identity key pair: %w", err)
	}
	return key, nil
}

// ValidatePublicKey checks that a public key is usable for key wrapping.
// It returns common.ErrInvalidKey for nil keys or a modulus size other than
// IdentityKeyBits.
func ValidatePublicKey(pub *rsa.PublicKey) error {
	if pub == nil || pub.N == nil {
		return fmt.Errorf("nil public key: %w", common.ErrInvalidKey)
	}
	if bits := pub.N.BitLen(); bits != IdentityKeyBits {
		return fmt.Errorf("unexpected modulus size %d: %w", bits, common.ErrInvalidKey)
	}
	return nil
}

// EncodePublicKey renders a public key in the portable PEM armoring used for
// storage and identity lookup.
func EncodePublicKey(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	block := &pem.Block{Type: publicKeyPEMType, Bytes: der}
	return string(pem.EncodeToMemory(block)), nil
}

// DecodePublicKey parses a PEM-armored public key. Malformed or non-RSA
// input yields common.ErrInvalidKey.
func DecodePublicKey(armored string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(armored))
	if block == nil || block.Type != publicKeyPEMType {
		return nil, fmt.Errorf("no %s PEM block: %w", publicKeyPEMType, common.ErrInvalidKey)
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", common.ErrInvalidKey)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key: %w", common.ErrInvalidKey)
	}
	if err := ValidatePublicKey(pub); err != nil {
		return nil, err
	}
	return pub, nil
}

// MarshalPrivateKey serializes a private key to PKCS#8 DER bytes. The result
// is only ever stored wrapped under the owner's master key.
func MarshalPrivateKey(priv *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	return der, nil
}

// ParsePrivateKey parses PKCS#8 DER bytes produced by MarshalPrivateKey.
func ParsePrivateKey(der []byte) (*rsa.PrivateKey, error) {
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", common.ErrInvalidKey)
	}
	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA private key: %w", common.ErrInvalidKey)
	}
	return priv, nil
}
