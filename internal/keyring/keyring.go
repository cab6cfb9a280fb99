// Package keyring manages the lifecycle of a user's keys: deriving the
// master key from a password, generating the identity key pair at
// registration and unwrapping the private key at login.
//
// The master key and the decrypted private key exist only inside a Session
// and are never handed to the persistence layer.
package keyring

import (
	"fmt"

	"github.com/akarpov/sealbox/internal/common"
	"github.com/akarpov/sealbox/internal/cryptox"
)

// Credentials is everything the server needs to persist for a new account.
// The plaintext private key and the master key are wiped before Register
// returns.
type Credentials struct {
	Salt              []byte
	KDFParams         cryptox.KDFParams
	Verifier          []byte
	PublicKeyPEM      string
	WrappedPrivateKey *cryptox.SealedData
}

// Register derives a master key from the password, generates the identity
// key pair and wraps the private key under the master key.
//
// The caller keeps ownership of password and should wipe it afterwards.
func Register(password []byte) (*Credentials, error) {
	salt := cryptox.GenerateSalt()
	masterKey := cryptox.DeriveMasterKey(password, salt)
	defer common.WipeByteArray(masterKey)

	identity, err := cryptox.GenerateIdentityKeyPair()
	if err != nil {
		return nil, err
	}

	publicPEM, err := cryptox.EncodePublicKey(&identity.PublicKey)
	if err != nil {
		return nil, err
	}

	privDER, err := cryptox.MarshalPrivateKey(identity)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(privDER)

	wrapped, err := cryptox.Seal(privDER, masterKey)
	if err != nil {
		return nil, fmt.Errorf("wrap private key: %w", err)
	}

	return &Credentials{
		Salt:              salt,
		KDFParams:         cryptox.DefaultKDFParams(),
		Verifier:          cryptox.MakeVerifier(masterKey),
		PublicKeyPEM:      publicPEM,
		WrappedPrivateKey: wrapped,
	}, nil
}

// Login re-derives the master key from password and salt and unwraps the
// stored private key, returning a live Session.
//
// A wrong password and a corrupted wrapped-key record are deliberately
// indistinguishable: both surface as common.ErrAuthentication, so the call
// is not an oracle for record corruption.
func Login(password, salt []byte, wrapped *cryptox.SealedData) (*Session, error) {
	masterKey := cryptox.DeriveMasterKey(password, salt)

	privDER, err := cryptox.Open(wrapped, masterKey)
	if err != nil {
		common.WipeByteArray(masterKey)
		return nil, fmt.Errorf("unwrap private key: %w", common.ErrAuthentication)
	}
	defer common.WipeByteArray(privDER)

	identity, err := cryptox.ParsePrivateKey(privDER)
	if err != nil {
		common.WipeByteArray(masterKey)
		return nil, fmt.Errorf("unwrap private key: %w", common.ErrAuthentication)
	}

	return newSession(masterKey, identity), nil
}
