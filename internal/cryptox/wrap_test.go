package cryptox

import (
	"testing"

	"github.com/akarpov/sealbox/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapUnwrapKey_RoundTrip(t *testing.T) {
	owner, _ := testIdentityKeys(t)
	fileKey := GenerateFileKey()

	wrapped, err := WrapKey(fileKey, &owner.PublicKey)
	require.NoError(t, err)
	assert.NotEqual(t, fileKey, wrapped)

	got, err := UnwrapKey(wrapped, owner)
	require.NoError(t, err)
	assert.Equal(t, fileKey, got)
}

func TestWrapKey_Randomized(t *testing.T) {
	owner, _ := testIdentityKeys(t)
	fileKey := GenerateFileKey()

	// OAEP is randomized: wrapping twice yields different ciphertexts that
	// unwrap to the same key.
	w1, err := WrapKey(fileKey, &owner.PublicKey)
	require.NoError(t, err)
	w2, err := WrapKey(fileKey, &owner.PublicKey)
	require.NoError(t, err)
	assert.NotEqual(t, w1, w2)

	k1, err := UnwrapKey(w1, owner)
	require.NoError(t, err)
	k2, err := UnwrapKey(w2, owner)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestUnwrapKey_WrongPrivateKey(t *testing.T) {
	owner, other := testIdentityKeys(t)
	fileKey := GenerateFileKey()

	wrapped, err := WrapKey(fileKey, &owner.PublicKey)
	require.NoError(t, err)

	got, err := UnwrapKey(wrapped, other)
	assert.ErrorIs(t, err, common.ErrKeyUnwrap)
	assert.Nil(t, got, "must never return a garbage key")
}

func TestUnwrapKey_CorruptedCiphertext(t *testing.T) {
	owner, _ := testIdentityKeys(t)

	wrapped, err := WrapKey(GenerateFileKey(), &owner.PublicKey)
	require.NoError(t, err)
	wrapped[len(wrapped)/2] ^= 0xff

	_, err = UnwrapKey(wrapped, owner)
	assert.ErrorIs(t, err, common.ErrKeyUnwrap)
}

func TestWrapKey_InvalidPublicKey(t *testing.T) {
	_, err := WrapKey(GenerateFileKey(), nil)
	assert.ErrorIs(t, err, common.ErrInvalidKey)
}

func TestUnwrapKey_NilPrivateKey(t *testing.T) {
	_, err := UnwrapKey([]byte{1, 2, 3}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidKey)
}
