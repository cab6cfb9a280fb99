package sharing

import (
	"bytes"
	"testing"

	"github.com/akarpov/sealbox/internal/filecrypt"
	"github.com/akarpov/sealbox/internal/keyring"
)

// Full protocol walk: two accounts, one document, one grant. Everything a
// storage server would hold in between is kept in plain variables to make
// the zero-knowledge property visible: none of them contain plaintext or
// an unwrapped key.
func TestShareLifecycle_AliceToBob(t *testing.T) {
	alicePassword := []byte("correct horse battery staple")
	bobPassword := []byte("hunter2 but longer")

	// registration: server stores only the credential records
	aliceCreds, err := keyring.Register(alicePassword)
	if err != nil {
		t.Fatalf("alice register: %v", err)
	}
	bobCreds, err := keyring.Register(bobPassword)
	if err != nil {
		t.Fatalf("bob register: %v", err)
	}

	// login from the stored records
	alice, err := keyring.Login(alicePassword, aliceCreds.Salt, aliceCreds.WrappedPrivateKey)
	if err != nil {
		t.Fatalf("alice login: %v", err)
	}
	defer alice.Close()
	bob, err := keyring.Login(bobPassword, bobCreds.Salt, bobCreds.WrappedPrivateKey)
	if err != nil {
		t.Fatalf("bob login: %v", err)
	}
	defer bob.Close()

	// alice encrypts a document
	plaintext := []byte("the quarterly report nobody else may read")
	meta := &filecrypt.Metadata{Filename: "report.txt", Tags: []string{"q3"}}
	ef, err := filecrypt.EncryptFile(plaintext, meta, alice.PublicKey())
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	// what the server would store for the grant: one re-wrapped key
	bobWrappedKey, err := ReWrapPEM(ef.WrappedKey, alice.PrivateKey(), bobCreds.PublicKeyPEM)
	if err != nil {
		t.Fatalf("rewrap: %v", err)
	}

	// bob decrypts with his own private key, ciphertext untouched
	got, err := filecrypt.DecryptFile(ef, bobWrappedKey, bob.PrivateKey())
	if err != nil {
		t.Fatalf("bob decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("plaintext mismatch")
	}

	// bob reads the encrypted metadata too
	bobMeta := filecrypt.MetadataOrFallback(ef.Metadata, bobWrappedKey, bob.PrivateKey(), "fallback")
	if bobMeta.Filename != "report.txt" {
		t.Fatalf("metadata mismatch: %+v", bobMeta)
	}

	// alice still decrypts with her original wrapped key
	got, err = filecrypt.DecryptFile(ef, ef.WrappedKey, alice.PrivateKey())
	if err != nil {
		t.Fatalf("alice decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("owner plaintext mismatch")
	}

	// a third party with neither key stays out
	mallory, err := keyring.Register([]byte("mallory password"))
	if err != nil {
		t.Fatalf("mallory register: %v", err)
	}
	mSession, err := keyring.Login([]byte("mallory password"), mallory.Salt, mallory.WrappedPrivateKey)
	if err != nil {
		t.Fatalf("mallory login: %v", err)
	}
	defer mSession.Close()
	if _, err := filecrypt.DecryptFile(ef, bobWrappedKey, mSession.PrivateKey()); err == nil {
		t.Fatalf("mallory must not decrypt with bob's wrapped key")
	}
}
