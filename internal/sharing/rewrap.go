// Package sharing implements the key re-wrapping protocol: granting a
// recipient access to an already-encrypted file without re-encrypting the
// body and without the storage backend ever observing the file key.
//
// ReWrap runs wherever the owner's private key is transiently available,
// which is the trusted client side by construction. Handing the storage
// tier a private key or an unwrapped file key to do this on the owner's
// behalf would break the zero-knowledge boundary.
package sharing

import (
	"crypto/rsa"
	"fmt"

	"github.com/akarpov/sealbox/internal/common"
	"github.com/akarpov/sealbox/internal/cryptox"
)

// ReWrap unwraps a file's symmetric key with the owner's private key and
// re-wraps it under the recipient's public key, producing a new independent
// wrapped-key record for a share.
//
// The unwrapped file key never leaves this function: it is wiped before
// return and is not logged, cached or handed to any caller.
//
// Error kinds: common.ErrKeyUnwrap when the owner's private key does not
// match the key the file was wrapped under (for a correctly owned file this
// indicates a fatal integrity violation, not a user error) and
// common.ErrInvalidKey when the recipient's public key is malformed.
func ReWrap(fileWrappedKey []byte, ownerPriv *rsa.PrivateKey, recipientPub *rsa.PublicKey) ([]byte, error) {
	if err := cryptox.ValidatePublicKey(recipientPub); err != nil {
		return nil, err
	}

	fileKey, err := cryptox.UnwrapKey(fileWrappedKey, ownerPriv)
	if err != nil {
		return nil, fmt.Errorf("owner unwrap: %w", err)
	}
	defer common.WipeByteArray(fileKey)

	rewrapped, err := cryptox.WrapKey(fileKey, recipientPub)
	if err != nil {
		return nil, err
	}
	return rewrapped, nil
}

// ReWrapPEM is ReWrap for a PEM-armored recipient key, as returned by
// identity lookup. Malformed armoring yields common.ErrInvalidKey.
func ReWrapPEM(fileWrappedKey []byte, ownerPriv *rsa.PrivateKey, recipientPubPEM string) ([]byte, error) {
	pub, err := cryptox.DecodePublicKey(recipientPubPEM)
	if err != nil {
		return nil, err
	}
	return ReWrap(fileWrappedKey, ownerPriv, pub)
}
