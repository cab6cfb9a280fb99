package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akarpov/sealbox/internal/access"
	"github.com/akarpov/sealbox/internal/audit"
	"github.com/akarpov/sealbox/internal/common"
	"github.com/akarpov/sealbox/internal/dbx"
	"github.com/akarpov/sealbox/internal/server/models"
	"github.com/akarpov/sealbox/internal/server/repositories/repomanager"
)

// ShareService manages grants of wrapped file keys to recipients. The
// service records which recipient holds which wrapped key under which
// capabilities; the re-wrapping itself happens on the trusted side, and
// only the resulting opaque wrapped key arrives here.
type ShareService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	audit       audit.Emitter
}

// NewShareService constructs a ShareService.
func NewShareService(db *sql.DB, m repomanager.RepositoryManager, emitter audit.Emitter) *ShareService {
	if emitter == nil {
		emitter = audit.Nop{}
	}
	return &ShareService{db: db, repomanager: m, audit: emitter}
}

// Share creates or replaces the grant for (fileID, recipientID). At most one
// grant exists per pair: sharing again replaces the wrapped key, capability
// set and expiry wholesale, and clears any revocation, so a revoked grant
// becomes active again. The second call wins; nothing is merged.
//
// The grantor must be the file's owner or hold an active re-share
// capability on it. Sharing a deleted file yields ErrResourceGone; sharing
// to the owner yields ErrInvalidOperation.
func (s *ShareService) Share(ctx context.Context, fileID, recipientID, grantedBy string,
	wrappedKey []byte, caps access.Set, expiresAt *time.Time) (*models.Share, error) {

	file, err := s.repomanager.Files(s.db).Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.Deleted {
		return nil, common.ErrResourceGone
	}
	if recipientID == file.OwnerID {
		return nil, common.ErrInvalidOperation
	}
	if len(wrappedKey) == 0 {
		return nil, common.ErrInvalidOperation
	}
	if err := access.ValidateGrant(caps); err != nil {
		return nil, err
	}
	if grantedBy != file.OwnerID {
		if err := s.CheckAccess(ctx, fileID, grantedBy, access.CapReshare); err != nil {
			return nil, err
		}
	}

	share := &models.Share{
		FileID:       fileID,
		RecipientID:  recipientID,
		GrantedBy:    grantedBy,
		WrappedKey:   wrappedKey,
		Capabilities: caps.String(),
		ExpiresAt:    expiresAt,
	}

	var updated bool
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Shares(tx)

		_, err := repo.GetForUpdate(ctx, fileID, recipientID)
		switch {
		case err == nil:
			updated = true
		case errors.Is(err, common.ErrNotFound):
			// first grant for this pair
		default:
			return err
		}

		return repo.Upsert(ctx, share)
	})
	if err != nil {
		return nil, fmt.Errorf("error sharing file: %v", err)
	}

	kind := audit.KindShareCreated
	if updated {
		kind = audit.KindShareUpdated
	}
	s.audit.Emit(ctx, audit.Event{
		Kind: kind, ActorID: grantedBy, FileID: fileID, TargetID: recipientID, Success: true,
	})
	return share, nil
}

// Revoke withdraws the grant for (fileID, recipientID). Revoking an already
// revoked or never granted share is a no-op success. Only the file's owner
// or the share's grantor may revoke.
func (s *ShareService) Revoke(ctx context.Context, fileID, recipientID, revokerID string) error {
	file, err := s.repomanager.Files(s.db).Get(ctx, fileID)
	if err != nil {
		return err
	}

	shareRepo := s.repomanager.Shares(s.db)
	share, err := shareRepo.Get(ctx, fileID, recipientID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}

	if revokerID != file.OwnerID && revokerID != share.GrantedBy {
		s.emitDenied(ctx, revokerID, fileID)
		return common.ErrAccessDenied
	}

	if err := shareRepo.Revoke(ctx, fileID, recipientID, revokerID); err != nil {
		return fmt.Errorf("error revoking share: %v", err)
	}

	s.audit.Emit(ctx, audit.Event{
		Kind: audit.KindShareRevoked, ActorID: revokerID, FileID: fileID, TargetID: recipientID, Success: true,
	})
	return nil
}

// CheckAccess decides whether userID may perform the required capability on
// the file. Owners pass for every capability; everyone else needs an active
// grant that explicitly carries it. Deleted files deny everyone, the owner
// included, with ErrResourceGone.
func (s *ShareService) CheckAccess(ctx context.Context, fileID, userID string, required access.Capability) error {
	file, err := s.repomanager.Files(s.db).Get(ctx, fileID)
	if err != nil {
		return err
	}
	if file.Deleted {
		return common.ErrResourceGone
	}

	var grant *access.Grant
	if userID != file.OwnerID {
		share, err := s.repomanager.Shares(s.db).Get(ctx, fileID, userID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				s.emitDenied(ctx, userID, fileID)
				return common.ErrAccessDenied
			}
			return err
		}
		caps, err := access.ParseSet(share.Capabilities)
		if err != nil {
			return common.ErrInternal
		}
		grant = &access.Grant{
			Capabilities: caps,
			ExpiresAt:    share.ExpiresAt,
			Revoked:      share.Revoked,
		}
	}

	if err := access.Evaluate(file.OwnerID, userID, grant, required, time.Now()); err != nil {
		s.emitDenied(ctx, userID, fileID)
		return err
	}
	return nil
}

// WrappedKeyFor returns the caller's copy of the file key: the File row's
// wrapped key for the owner, the Share row's for a recipient. The caller
// must have passed CheckAccess first.
func (s *ShareService) WrappedKeyFor(ctx context.Context, file *models.File, userID string) ([]byte, error) {
	if userID == file.OwnerID {
		return file.WrappedKey, nil
	}
	share, err := s.repomanager.Shares(s.db).Get(ctx, file.ID, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrAccessDenied
		}
		return nil, err
	}
	return share.WrappedKey, nil
}

// ListForFile returns all grant rows for a file, revoked ones included.
func (s *ShareService) ListForFile(ctx context.Context, fileID, callerID string) ([]*models.Share, error) {
	file, err := s.repomanager.Files(s.db).Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if callerID != file.OwnerID {
		s.emitDenied(ctx, callerID, fileID)
		return nil, common.ErrAccessDenied
	}
	return s.repomanager.Shares(s.db).ListForFile(ctx, fileID)
}

func (s *ShareService) emitDenied(ctx context.Context, actorID, fileID string) {
	s.audit.Emit(ctx, audit.Event{
		Kind: audit.KindAccessDenied, ActorID: actorID, FileID: fileID,
		Success: false, ErrKind: "access-denied",
	})
}
