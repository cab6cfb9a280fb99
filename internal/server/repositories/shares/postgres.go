// Package shares provides PostgreSQL storage for share records: the
// per-recipient grants carrying a recipient-specific wrapped file key.
//
// The table has a composite primary key on (file_id, recipient_id), which
// enforces the at-most-one-share-per-pair invariant at the schema level;
// Upsert turns duplicate grants into updates.
package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akarpov/sealbox/internal/common"
	"github.com/akarpov/sealbox/internal/dbx"
	"github.com/akarpov/sealbox/internal/server/models"
)

// PostgresRepository implements share storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const shareColumns = `file_id, recipient_id, granted_by, wrapped_key, capabilities,
		expires_at, revoked, revoked_at, revoked_by, created_at, updated_at`

func scanShare(row interface{ Scan(...any) error }) (*models.Share, error) {
	s := &models.Share{}
	err := row.Scan(
		&s.FileID, &s.RecipientID, &s.GrantedBy, &s.WrappedKey, &s.Capabilities,
		&s.ExpiresAt, &s.Revoked, &s.RevokedAt, &s.RevokedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Upsert creates the share or, on conflict for the (file, recipient) pair,
// replaces the wrapped key, capability set and expiry and clears the
// revocation fields. The permission set after a repeated share reflects the
// latest call, not a merge.
func (r *PostgresRepository) Upsert(ctx context.Context, share *models.Share) error {
	query := `
		INSERT INTO shares (file_id, recipient_id, granted_by, wrapped_key, capabilities, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (file_id, recipient_id)
		DO UPDATE SET
			granted_by = EXCLUDED.granted_by,
			wrapped_key = EXCLUDED.wrapped_key,
			capabilities = EXCLUDED.capabilities,
			expires_at = EXCLUDED.expires_at,
			revoked = FALSE,
			revoked_at = NULL,
			revoked_by = '',
			updated_at = now()
	`
	res, err := r.db.ExecContext(ctx, query,
		share.FileID, share.RecipientID, share.GrantedBy, share.WrappedKey,
		share.Capabilities, share.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

// Get returns the share record for the (file, recipient) pair.
func (r *PostgresRepository) Get(ctx context.Context, fileID, recipientID string) (*models.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares WHERE file_id = $1 AND recipient_id = $2`
	s, err := scanShare(r.db.QueryRowContext(ctx, query, fileID, recipientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// GetForUpdate is Get with a row-level lock. Callers run it inside a
// transaction so a concurrent share+revoke on the same pair serializes
// instead of interleaving.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, fileID, recipientID string) (*models.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares WHERE file_id = $1 AND recipient_id = $2 FOR UPDATE`
	s, err := scanShare(r.db.QueryRowContext(ctx, query, fileID, recipientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// ListForFile returns all share records for a file, revoked and expired
// included (they are retained for audit).
func (r *PostgresRepository) ListForFile(ctx context.Context, fileID string) ([]*models.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares WHERE file_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Share
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Revoke marks the share revoked. Revoking an already-revoked share affects
// zero rows, which is still a success: revocation is idempotent.
func (r *PostgresRepository) Revoke(ctx context.Context, fileID, recipientID, revokerID string) error {
	query := `
		UPDATE shares SET revoked = TRUE, revoked_at = now(), revoked_by = $3, updated_at = now()
		WHERE file_id = $1 AND recipient_id = $2 AND NOT revoked
	`
	if _, err := r.db.ExecContext(ctx, query, fileID, recipientID, revokerID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// RevokeAllForFile revokes every active share of a file. Used by the
// file-deletion cascade inside the same transaction as the soft delete.
func (r *PostgresRepository) RevokeAllForFile(ctx context.Context, fileID, revokerID string) error {
	query := `
		UPDATE shares SET revoked = TRUE, revoked_at = now(), revoked_by = $2, updated_at = now()
		WHERE file_id = $1 AND NOT revoked
	`
	if _, err := r.db.ExecContext(ctx, query, fileID, revokerID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
