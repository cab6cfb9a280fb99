package filecrypt

import (
	"context"
	"crypto/rsa"
)

// Encryption and decryption of large bodies can take long enough to matter
// on a request-processing path. The Async variants run the work on a
// separate goroutine and deliver the outcome through a one-shot channel the
// caller can await alongside a context. Each call is independent and
// stateless, so arbitrary parallelism across files is safe.

// EncryptResult is the outcome of an asynchronous encryption.
type EncryptResult struct {
	File *EncryptedFile
	Err  error
}

// DecryptResult is the outcome of an asynchronous decryption.
type DecryptResult struct {
	Plaintext []byte
	Err       error
}

// EncryptFileAsync runs EncryptFile off the caller's goroutine. The returned
// channel is buffered and receives exactly one result; an expired context
// abandons the result without blocking the worker.
func EncryptFileAsync(ctx context.Context, plaintext []byte, meta *Metadata, ownerPub *rsa.PublicKey) <-chan EncryptResult {
	out := make(chan EncryptResult, 1)
	go func() {
		ef, err := EncryptFile(plaintext, meta, ownerPub)
		if ctx.Err() != nil {
			out <- EncryptResult{Err: ctx.Err()}
			return
		}
		out <- EncryptResult{File: ef, Err: err}
	}()
	return out
}

// DecryptFileAsync runs DecryptFile off the caller's goroutine.
func DecryptFileAsync(ctx context.Context, ef *EncryptedFile, wrappedKey []byte, priv *rsa.PrivateKey) <-chan DecryptResult {
	out := make(chan DecryptResult, 1)
	go func() {
		plaintext, err := DecryptFile(ef, wrappedKey, priv)
		if ctx.Err() != nil {
			out <- DecryptResult{Err: ctx.Err()}
			return
		}
		out <- DecryptResult{Plaintext: plaintext, Err: err}
	}()
	return out
}
