package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/akarpov/sealbox/internal/audit"
	"github.com/akarpov/sealbox/internal/common"
	"github.com/akarpov/sealbox/internal/cryptox"
	"github.com/akarpov/sealbox/internal/filecrypt"
	"github.com/akarpov/sealbox/internal/filex"
	"github.com/akarpov/sealbox/internal/netx"
	"github.com/akarpov/sealbox/internal/server/models"
)

// AddFile encrypts a local file and stores the record. The ciphertext body
// is written next to the original with a .sealed suffix; the printed
// presigned URL accepts it as an opaque blob.
func (a *App) AddFile(ctx context.Context) error {
	path, err := getSimpleText(a.reader, "Enter file path", a.out)
	if err != nil {
		return err
	}
	description, err := getSimpleText(a.reader, "Enter description (optional)", a.out)
	if err != nil {
		return err
	}

	plaintext, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(a.out, "Cannot read file:", err)
		return err
	}

	name := filepath.Base(path)
	meta := &filecrypt.Metadata{Filename: name, Description: description}

	ef, err := filecrypt.EncryptFile(plaintext, meta, a.session.PublicKey())
	if err != nil {
		return err
	}

	record := &models.File{
		Filename:   name,
		MimeType:   mime.TypeByExtension(filepath.Ext(name)),
		PlainSize:  ef.PlainSize,
		CipherSize: ef.CipherSize,
		WrappedKey: ef.WrappedKey,
		Nonce:      ef.Nonce,
		Tag:        ef.Tag,
		Digest:     ef.Digest,
	}
	if ef.Metadata != nil {
		record.EncryptedMetadata = ef.Metadata.Ciphertext
		record.MetadataNonce = ef.Metadata.Nonce
		record.MetadataTag = ef.Metadata.Tag
	}

	created, uploadURL, err := a.files.Create(ctx, a.userID, record)
	if err != nil {
		fmt.Fprintln(a.out, "Upload failed:", err)
		return err
	}

	if err := netx.UploadToPresignedURL(uploadURL, ef.Ciphertext); err != nil {
		fmt.Fprintln(a.out, "Ciphertext upload failed:", err)
		return err
	}

	fmt.Fprintln(a.out, "Stored as", created.ID)
	return nil
}

// List prints the caller's files.
func (a *App) List(ctx context.Context) error {
	files, err := a.files.List(ctx, a.userID)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(a.out, "No files")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSIZE\tCREATED")
	for _, f := range files {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f.ID, f.Filename, f.PlainSize, f.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

// Show fetches one record and decrypts its metadata locally. A record whose
// metadata fails to open is still shown under its stored name.
func (a *App) Show(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter file id", a.out)
	if err != nil {
		return err
	}

	f, err := a.files.Get(ctx, id, a.userID)
	if err != nil {
		fmt.Fprintln(a.out, "Cannot fetch file:", err)
		return err
	}

	meta := a.decryptMetadata(f)

	fmt.Fprintln(a.out, "ID:         ", f.ID)
	fmt.Fprintln(a.out, "Name:       ", meta.Filename)
	if meta.Description != "" {
		fmt.Fprintln(a.out, "Description:", meta.Description)
	}
	if len(meta.Tags) > 0 {
		fmt.Fprintln(a.out, "Tags:       ", strings.Join(meta.Tags, ", "))
	}
	fmt.Fprintln(a.out, "Size:       ", f.PlainSize)
	fmt.Fprintln(a.out, "Digest:     ", f.Digest)
	return nil
}

// Download fetches the ciphertext body into the local downloads directory.
// The bytes stay sealed; use open to decrypt them.
func (a *App) Download(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter file id", a.out)
	if err != nil {
		return err
	}

	url, err := a.files.Download(ctx, id, a.userID)
	if err != nil {
		fmt.Fprintln(a.out, "Cannot download:", err)
		return err
	}

	body, err := netx.DownloadFromPresignedURL(url)
	if err != nil {
		fmt.Fprintln(a.out, "Ciphertext download failed:", err)
		return err
	}

	dir, err := filex.EnsureSubDir("downloads")
	if err != nil {
		return err
	}
	sealedPath := filepath.Join(dir, id+".sealed")
	if err := os.WriteFile(sealedPath, body, 0o600); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Ciphertext saved to", sealedPath)
	return nil
}

// Open decrypts a downloaded ciphertext body against its record: unwraps
// the caller's copy of the file key, opens the AEAD envelope and verifies
// the content digest before writing the plaintext out.
func (a *App) Open(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter file id", a.out)
	if err != nil {
		return err
	}
	path, err := getSimpleText(a.reader, "Enter ciphertext path", a.out)
	if err != nil {
		return err
	}

	f, err := a.files.Get(ctx, id, a.userID)
	if err != nil {
		fmt.Fprintln(a.out, "Cannot fetch file:", err)
		return err
	}

	ciphertext, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(a.out, "Cannot read ciphertext:", err)
		return err
	}

	ef := &filecrypt.EncryptedFile{
		Ciphertext: ciphertext,
		Nonce:      f.Nonce,
		Tag:        f.Tag,
		Digest:     f.Digest,
	}
	plaintext, err := filecrypt.DecryptFile(ef, f.WrappedKey, a.session.PrivateKey())
	if err != nil {
		kind, errKind := audit.KindDecryptFailed, "key-unwrap"
		if errors.Is(err, common.ErrIntegrity) {
			kind, errKind = audit.KindIntegrityViolation, "integrity"
		}
		a.audit.Emit(ctx, audit.Event{
			Kind: kind, ActorID: a.userID, FileID: id, ErrKind: errKind,
		})
		fmt.Fprintln(a.out, "Decryption failed:", err)
		return err
	}

	meta := a.decryptMetadata(f)
	outPath := strings.TrimSuffix(path, ".sealed")
	if outPath == path {
		outPath = meta.Filename
	}
	if err := os.WriteFile(outPath, plaintext, 0o600); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Decrypted to", outPath)
	return nil
}

// Delete soft-deletes a file; the server revokes every share with it.
func (a *App) Delete(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter file id", a.out)
	if err != nil {
		return err
	}

	if err := a.files.SoftDelete(ctx, id, a.userID); err != nil {
		fmt.Fprintln(a.out, "Cannot delete:", err)
		return err
	}
	fmt.Fprintln(a.out, "Deleted")
	return nil
}

func (a *App) decryptMetadata(f *models.File) *filecrypt.Metadata {
	if len(f.EncryptedMetadata) == 0 {
		return &filecrypt.Metadata{Filename: f.Filename}
	}
	sealed := &cryptox.SealedData{
		Ciphertext: f.EncryptedMetadata,
		Nonce:      f.MetadataNonce,
		Tag:        f.MetadataTag,
	}
	return filecrypt.MetadataOrFallback(sealed, f.WrappedKey, a.session.PrivateKey(), f.Filename)
}
