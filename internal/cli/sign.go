package cli

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/akarpov/sealbox/internal/cryptox"
	"github.com/akarpov/sealbox/internal/server/models"
)

// Sign attaches a detached signature over a file's content digest. The
// signing key pair is generated on the spot; hand the printed public key to
// verifiers out of band.
func (a *App) Sign(ctx context.Context) error {
	fileID, err := getSimpleText(a.reader, "Enter file id", a.out)
	if err != nil {
		return err
	}

	f, err := a.files.Get(ctx, fileID, a.userID)
	if err != nil {
		fmt.Fprintln(a.out, "Cannot fetch file:", err)
		return err
	}

	pub, priv, err := cryptox.GenerateSigningKeyPair()
	if err != nil {
		return err
	}

	sig := &models.Signature{
		FileID:    fileID,
		Algorithm: cryptox.SignatureAlgorithm,
		Signature: cryptox.SignDigest(f.Digest, priv),
		Valid:     true,
	}
	if err := a.files.AttachSignature(ctx, a.userID, sig); err != nil {
		fmt.Fprintln(a.out, "Cannot attach signature:", err)
		return err
	}

	fmt.Fprintln(a.out, "Signed. Verification public key:", hex.EncodeToString(pub))
	return nil
}

// Verify checks a file's detached signature against a public key.
func (a *App) Verify(ctx context.Context) error {
	fileID, err := getSimpleText(a.reader, "Enter file id", a.out)
	if err != nil {
		return err
	}
	pubHex, err := getSimpleText(a.reader, "Enter verification public key (hex)", a.out)
	if err != nil {
		return err
	}

	pub, err := hex.DecodeString(pubHex)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		fmt.Fprintln(a.out, "Invalid public key")
		return err
	}

	f, err := a.files.Get(ctx, fileID, a.userID)
	if err != nil {
		fmt.Fprintln(a.out, "Cannot fetch file:", err)
		return err
	}

	sig, err := a.files.GetSignature(ctx, fileID, a.userID)
	if err != nil {
		fmt.Fprintln(a.out, "No signature:", err)
		return err
	}

	if cryptox.VerifyDigest(f.Digest, sig.Signature, ed25519.PublicKey(pub)) {
		fmt.Fprintln(a.out, "Signature valid")
	} else {
		fmt.Fprintln(a.out, "SIGNATURE INVALID")
	}
	return nil
}
