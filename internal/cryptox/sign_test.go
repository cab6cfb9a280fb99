package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyDigest(t *testing.T) {
	pub, priv, err := GenerateSigningKeyPair()
	require.NoError(t, err)

	digest := ContentDigest([]byte("report body"))
	sig := SignDigest(digest, priv)

	assert.True(t, VerifyDigest(digest, sig, pub))
	assert.False(t, VerifyDigest(ContentDigest([]byte("other body")), sig, pub))

	sig[0] ^= 0x01
	assert.False(t, VerifyDigest(digest, sig, pub))
}

func TestVerifyDigest_WrongSigner(t *testing.T) {
	_, priv, err := GenerateSigningKeyPair()
	require.NoError(t, err)
	otherPub, _, err := GenerateSigningKeyPair()
	require.NoError(t, err)

	digest := ContentDigest([]byte("report body"))
	sig := SignDigest(digest, priv)

	assert.False(t, VerifyDigest(digest, sig, otherPub))
}
