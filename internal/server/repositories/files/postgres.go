// Package files provides PostgreSQL storage for file records. Rows carry
// only ciphertext parameters and wrapped keys; the ciphertext body itself
// lives in object storage under storage_key.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akarpov/sealbox/internal/common"
	"github.com/akarpov/sealbox/internal/dbx"
	"github.com/akarpov/sealbox/internal/server/models"
)

// PostgresRepository implements file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, owner_id, filename, mime_type, plain_size, cipher_size, storage_key,
		wrapped_key, nonce, tag, digest, encrypted_metadata, metadata_nonce, metadata_tag,
		deleted, deleted_at, created_at`

func scanFile(row interface{ Scan(...any) error }) (*models.File, error) {
	f := &models.File{}
	err := row.Scan(
		&f.ID, &f.OwnerID, &f.Filename, &f.MimeType, &f.PlainSize, &f.CipherSize, &f.StorageKey,
		&f.WrappedKey, &f.Nonce, &f.Tag, &f.Digest, &f.EncryptedMetadata, &f.MetadataNonce, &f.MetadataTag,
		&f.Deleted, &f.DeletedAt, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Create inserts a new file record and returns it with the assigned id.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (owner_id, filename, mime_type, plain_size, cipher_size, storage_key,
			wrapped_key, nonce, tag, digest, encrypted_metadata, metadata_nonce, metadata_tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		file.OwnerID, file.Filename, file.MimeType, file.PlainSize, file.CipherSize, file.StorageKey,
		file.WrappedKey, file.Nonce, file.Tag, file.Digest,
		file.EncryptedMetadata, file.MetadataNonce, file.MetadataTag).Scan(&file.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

// Get returns a file record by id, soft-deleted rows included: the service
// layer decides how deletion surfaces.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	f, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// ListByOwner returns all non-deleted files owned by ownerID.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE owner_id = $1 AND NOT deleted ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SoftDelete marks the file deleted. Exactly one row must be affected;
// a second delete of the same file is a no-op success.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE files SET deleted = TRUE, deleted_at = now()
		WHERE id = $1 AND NOT deleted
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if _, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	return nil
}
