package sharing

import (
	"crypto/rsa"
	"sync"
	"testing"

	"github.com/akarpov/sealbox/internal/common"
	"github.com/akarpov/sealbox/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	keysOnce     sync.Once
	ownerKey     *rsa.PrivateKey
	recipientKey *rsa.PrivateKey
	strangerKey  *rsa.PrivateKey
	keysErr      error
)

func testKeys(t *testing.T) (owner, recipient, stranger *rsa.PrivateKey) {
	t.Helper()
	keysOnce.Do(func() {
		for _, target := range []**rsa.PrivateKey{&ownerKey, &recipientKey, &strangerKey} {
			*target, keysErr = cryptox.GenerateIdentityKeyPair()
			if keysErr != nil {
				return
			}
		}
	})
	require.NoError(t, keysErr)
	return ownerKey, recipientKey, strangerKey
}

func TestReWrap_CrossRecordKeyEquality(t *testing.T) {
	owner, recipient, _ := testKeys(t)

	fileKey := cryptox.GenerateFileKey()
	ownerWrapped, err := cryptox.WrapKey(fileKey, &owner.PublicKey)
	require.NoError(t, err)

	recipientWrapped, err := ReWrap(ownerWrapped, owner, &recipient.PublicKey)
	require.NoError(t, err)
	assert.NotEqual(t, ownerWrapped, recipientWrapped)

	// Both records unwrap to the same file key under their respective
	// private keys. This is the protocol's core correctness property.
	fromOwner, err := cryptox.UnwrapKey(ownerWrapped, owner)
	require.NoError(t, err)
	fromRecipient, err := cryptox.UnwrapKey(recipientWrapped, recipient)
	require.NoError(t, err)

	assert.Equal(t, fileKey, fromOwner)
	assert.Equal(t, fileKey, fromRecipient)
}

func TestReWrap_DoesNotGrantThirdParties(t *testing.T) {
	owner, recipient, stranger := testKeys(t)

	ownerWrapped, err := cryptox.WrapKey(cryptox.GenerateFileKey(), &owner.PublicKey)
	require.NoError(t, err)

	recipientWrapped, err := ReWrap(ownerWrapped, owner, &recipient.PublicKey)
	require.NoError(t, err)

	_, err = cryptox.UnwrapKey(recipientWrapped, stranger)
	assert.ErrorIs(t, err, common.ErrKeyUnwrap)
}

func TestReWrap_WrongOwnerKey(t *testing.T) {
	owner, recipient, stranger := testKeys(t)

	ownerWrapped, err := cryptox.WrapKey(cryptox.GenerateFileKey(), &owner.PublicKey)
	require.NoError(t, err)

	// A private key that does not match the wrapping key is a fatal
	// integrity violation, surfaced as ErrKeyUnwrap.
	_, err = ReWrap(ownerWrapped, stranger, &recipient.PublicKey)
	assert.ErrorIs(t, err, common.ErrKeyUnwrap)
}

func TestReWrap_InvalidRecipientKey(t *testing.T) {
	owner, _, _ := testKeys(t)

	ownerWrapped, err := cryptox.WrapKey(cryptox.GenerateFileKey(), &owner.PublicKey)
	require.NoError(t, err)

	_, err = ReWrap(ownerWrapped, owner, nil)
	assert.ErrorIs(t, err, common.ErrInvalidKey)
}

func TestReWrapPEM(t *testing.T) {
	owner, recipient, _ := testKeys(t)

	fileKey := cryptox.GenerateFileKey()
	ownerWrapped, err := cryptox.WrapKey(fileKey, &owner.PublicKey)
	require.NoError(t, err)

	armored, err := cryptox.EncodePublicKey(&recipient.PublicKey)
	require.NoError(t, err)

	rewrapped, err := ReWrapPEM(ownerWrapped, owner, armored)
	require.NoError(t, err)

	got, err := cryptox.UnwrapKey(rewrapped, recipient)
	require.NoError(t, err)
	assert.Equal(t, fileKey, got)

	_, err = ReWrapPEM(ownerWrapped, owner, "not a key")
	assert.ErrorIs(t, err, common.ErrInvalidKey)
}

func TestReWrap_RepeatedRunsIndependent(t *testing.T) {
	owner, recipient, _ := testKeys(t)

	fileKey := cryptox.GenerateFileKey()
	ownerWrapped, err := cryptox.WrapKey(fileKey, &owner.PublicKey)
	require.NoError(t, err)

	// Re-running for the same pair is safe; each result independently
	// unwraps to the same key, so a later record can replace an earlier
	// one (e.g., after the recipient rotates credentials).
	w1, err := ReWrap(ownerWrapped, owner, &recipient.PublicKey)
	require.NoError(t, err)
	w2, err := ReWrap(ownerWrapped, owner, &recipient.PublicKey)
	require.NoError(t, err)

	k1, err := cryptox.UnwrapKey(w1, recipient)
	require.NoError(t, err)
	k2, err := cryptox.UnwrapKey(w2, recipient)
	require.NoError(t, err)
	assert.Equal(t, fileKey, k1)
	assert.Equal(t, fileKey, k2)
}
