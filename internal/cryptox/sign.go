package cryptox

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// SignatureAlgorithm is the algorithm tag recorded on signature records.
const SignatureAlgorithm = "ed25519"

// GenerateSigningKeyPair creates an Ed25519 key pair for signing content
// digests. Signing keys are separate from the identity (key-transport) pair.
func GenerateSigningKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate signing key pair: %w", err)
	}
	return pub, priv, nil
}

// SignDigest produces a detached signature over a content digest, giving a
// file authenticity proof independent of the AEAD tag.
func SignDigest(digest string, priv ed25519.PrivateKey) []byte {
	return ed25519.Sign(priv, []byte(digest))
}

// VerifyDigest reports whether sig is a valid signature over digest by the
// holder of pub.
func VerifyDigest(digest string, sig []byte, pub ed25519.PublicKey) bool {
	return ed25519.Verify(pub, []byte(digest), sig)
}
