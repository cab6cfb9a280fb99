package models

import "time"

// File is one stored document. The ciphertext body lives in object storage
// under StorageKey; the row carries the owner's wrapped copy of the file
// key plus the AEAD parameters and the plaintext content digest.
//
// WrappedKey is always wrapped under the owner's public key. Recipient
// copies live on Share rows, never here. Ciphertext and file key are fixed
// at creation; sharing never touches them.
type File struct {
	ID       string
	OwnerID  string
	Filename string
	MimeType string

	PlainSize  int64
	CipherSize int64
	StorageKey string

	WrappedKey []byte
	Nonce      []byte
	Tag        []byte
	Digest     string

	// Optional encrypted metadata blob, sealed under the file key.
	EncryptedMetadata []byte
	MetadataNonce     []byte
	MetadataTag       []byte

	Deleted   bool
	DeletedAt *time.Time
	CreatedAt time.Time
}
