package keyring

import (
	"crypto/rsa"
	"sync"

	"github.com/akarpov/sealbox/internal/common"
)

// Session holds the transient key material of one authenticated login. It is
// passed explicitly to every operation that needs decryption capability;
// there is no process-wide singleton.
//
// Close must be called at logout. After Close, the accessors return nil.
type Session struct {
	mu        sync.Mutex
	masterKey []byte
	identity  *rsa.PrivateKey
	closed    bool
}

func newSession(masterKey []byte, identity *rsa.PrivateKey) *Session {
	return &Session{masterKey: masterKey, identity: identity}
}

// MasterKey returns the derived master key, or nil once the session is closed.
func (s *Session) MasterKey() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.masterKey
}

// PrivateKey returns the decrypted identity private key, or nil once the
// session is closed.
func (s *Session) PrivateKey() *rsa.PrivateKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.identity
}

// PublicKey returns the identity public key, or nil once the session is
// closed.
func (s *Session) PublicKey() *rsa.PublicKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return &s.identity.PublicKey
}

// Closed reports whether the session has been released.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close wipes the master key and drops the private key reference.
// It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	common.WipeByteArray(s.masterKey)
	s.masterKey = nil
	s.identity = nil
	s.closed = true
}
