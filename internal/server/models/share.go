package models

import "time"

// Share is one (file, recipient) grant. WrappedKey is the file key wrapped
// under the recipient's public key: it unwraps, under the recipient's
// private key, to the same file key the File row's wrapped key yields under
// the owner's. At most one row exists per (file, recipient); re-sharing
// updates the row in place and clears the revocation fields.
type Share struct {
	FileID      string
	RecipientID string
	GrantedBy   string

	WrappedKey []byte

	// Capabilities is the storage form of the granted set, e.g.
	// "read,download".
	Capabilities string

	ExpiresAt *time.Time

	Revoked   bool
	RevokedAt *time.Time
	RevokedBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}
