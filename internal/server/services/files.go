package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akarpov/sealbox/internal/access"
	"github.com/akarpov/sealbox/internal/audit"
	"github.com/akarpov/sealbox/internal/common"
	"github.com/akarpov/sealbox/internal/dbx"
	"github.com/akarpov/sealbox/internal/server/models"
	"github.com/akarpov/sealbox/internal/server/repositories/repomanager"
)

// BlobStore is the slice of the object storage tier the service needs:
// presigned upload and download URLs for ciphertext bodies.
type BlobStore interface {
	PresignedPutURL(ctx context.Context) (string, string, error)
	PresignedGetURL(ctx context.Context, key string) (string, error)
}

// FileService manages encrypted file records. The ciphertext body never
// passes through the service: uploads and downloads run against presigned
// object storage URLs, and the rows here carry only wrapped keys, AEAD
// parameters and the content digest.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       BlobStore
	shares      *ShareService
	audit       audit.Emitter
}

// NewFileService constructs a FileService. The ShareService supplies access
// decisions and wrapped-key selection.
func NewFileService(db *sql.DB, m repomanager.RepositoryManager, blobs BlobStore,
	shares *ShareService, emitter audit.Emitter) *FileService {
	if emitter == nil {
		emitter = audit.Nop{}
	}
	return &FileService{db: db, repomanager: m, blobs: blobs, shares: shares, audit: emitter}
}

// Create persists a new file record for ownerID and returns the stored row
// together with a presigned PUT URL for the ciphertext body. The record's
// wrapped key must already be wrapped under the owner's public key.
func (s *FileService) Create(ctx context.Context, ownerID string, file *models.File) (*models.File, string, error) {
	if len(file.WrappedKey) == 0 || file.Digest == "" {
		return nil, "", common.ErrInvalidOperation
	}

	storageKey, uploadURL, err := s.blobs.PresignedPutURL(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("error presigning upload: %v", err)
	}

	file.OwnerID = ownerID
	file.StorageKey = storageKey

	created, err := s.repomanager.Files(s.db).Create(ctx, file)
	if err != nil {
		return nil, "", fmt.Errorf("error creating file: %v", err)
	}

	s.audit.Emit(ctx, audit.Event{
		Kind: audit.KindFileEncrypted, ActorID: ownerID, FileID: created.ID, Success: true,
	})
	return created, uploadURL, nil
}

// Get returns the file record visible to userID, with the caller's own
// wrapped key substituted in: owners get the File row's key, recipients
// the one from their Share row. Requires the read capability.
func (s *FileService) Get(ctx context.Context, fileID, userID string) (*models.File, error) {
	if err := s.shares.CheckAccess(ctx, fileID, userID, access.CapRead); err != nil {
		return nil, err
	}
	file, err := s.repomanager.Files(s.db).Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	wrapped, err := s.shares.WrappedKeyFor(ctx, file, userID)
	if err != nil {
		return nil, err
	}
	file.WrappedKey = wrapped
	return file, nil
}

// Download returns a presigned GET URL for the ciphertext body. Requires
// the download capability; read alone does not imply it.
func (s *FileService) Download(ctx context.Context, fileID, userID string) (string, error) {
	if err := s.shares.CheckAccess(ctx, fileID, userID, access.CapDownload); err != nil {
		return "", err
	}
	file, err := s.repomanager.Files(s.db).Get(ctx, fileID)
	if err != nil {
		return "", err
	}
	url, err := s.blobs.PresignedGetURL(ctx, file.StorageKey)
	if err != nil {
		return "", fmt.Errorf("error presigning download: %v", err)
	}
	return url, nil
}

// List returns all non-deleted files owned by ownerID.
func (s *FileService) List(ctx context.Context, ownerID string) ([]*models.File, error) {
	return s.repomanager.Files(s.db).ListByOwner(ctx, ownerID)
}

// SoftDelete marks the file deleted and revokes every active share in the
// same transaction, so no caller can observe a deleted file with a live
// grant. Only the owner may delete; deleting again is a no-op success.
func (s *FileService) SoftDelete(ctx context.Context, fileID, userID string) error {
	file, err := s.repomanager.Files(s.db).Get(ctx, fileID)
	if err != nil {
		return err
	}
	if userID != file.OwnerID {
		s.audit.Emit(ctx, audit.Event{
			Kind: audit.KindAccessDenied, ActorID: userID, FileID: fileID,
			Success: false, ErrKind: "access-denied",
		})
		return common.ErrAccessDenied
	}
	if file.Deleted {
		return nil
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Files(tx).SoftDelete(ctx, fileID); err != nil {
			return err
		}
		return s.repomanager.Shares(tx).RevokeAllForFile(ctx, fileID, userID)
	})
	if err != nil {
		return fmt.Errorf("error deleting file: %v", err)
	}

	s.audit.Emit(ctx, audit.Event{
		Kind: audit.KindFileDeleted, ActorID: userID, FileID: fileID, Success: true,
	})
	return nil
}

// AttachSignature stores a detached signature over the file's content
// digest. Only the owner may attach; re-attaching replaces the row.
func (s *FileService) AttachSignature(ctx context.Context, userID string, sig *models.Signature) error {
	file, err := s.repomanager.Files(s.db).Get(ctx, sig.FileID)
	if err != nil {
		return err
	}
	if file.Deleted {
		return common.ErrResourceGone
	}
	if userID != file.OwnerID {
		return common.ErrAccessDenied
	}
	sig.SignerID = userID
	if err := s.repomanager.Signatures(s.db).Attach(ctx, sig); err != nil {
		return fmt.Errorf("error attaching signature: %v", err)
	}
	return nil
}

// GetSignature returns the detached signature for a file, if any. Requires
// the read capability.
func (s *FileService) GetSignature(ctx context.Context, fileID, userID string) (*models.Signature, error) {
	if err := s.shares.CheckAccess(ctx, fileID, userID, access.CapRead); err != nil {
		return nil, err
	}
	return s.repomanager.Signatures(s.db).GetForFile(ctx, fileID)
}
