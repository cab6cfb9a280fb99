package models

import "time"

// Signature is a detached signature over a file's plaintext content digest,
// giving authenticity verification independent of the AEAD tag.
type Signature struct {
	FileID    string
	SignerID  string
	Algorithm string
	Signature []byte
	Valid     bool
	CreatedAt time.Time
}
