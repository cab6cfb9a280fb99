// Package models defines server-side data models persisted in the database.
// Every cryptographic field here is opaque to the server: it stores wrapped
// keys and ciphertext, never plaintext or unwrapped key material.
package models

import "time"

// User is one account. The wrapped private key record (ciphertext, nonce,
// tag) is created at registration, read at every login and never mutated.
type User struct {
	ID       string
	Email    string
	Salt     []byte
	Verifier []byte

	// PublicKeyPEM is the portable armored identity public key. It never
	// changes after creation; no rotation is modeled.
	PublicKeyPEM string

	// Wrapped private key: the identity private key encrypted under the
	// user's master key with an AEAD cipher.
	PrivKeyCiphertext []byte
	PrivKeyNonce      []byte
	PrivKeyTag        []byte

	CreatedAt time.Time
}
