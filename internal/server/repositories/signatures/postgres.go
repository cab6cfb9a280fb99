// Package signatures stores detached content-digest signatures attached to
// file records.
package signatures

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akarpov/sealbox/internal/common"
	"github.com/akarpov/sealbox/internal/dbx"
	"github.com/akarpov/sealbox/internal/server/models"
)

// PostgresRepository implements signature storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Attach stores the signature for a file, replacing a previous one.
func (r *PostgresRepository) Attach(ctx context.Context, sig *models.Signature) error {
	query := `
		INSERT INTO signatures (file_id, signer_id, algorithm, signature, valid)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (file_id)
		DO UPDATE SET
			signer_id = EXCLUDED.signer_id,
			algorithm = EXCLUDED.algorithm,
			signature = EXCLUDED.signature,
			valid = EXCLUDED.valid
	`
	if _, err := r.db.ExecContext(ctx, query,
		sig.FileID, sig.SignerID, sig.Algorithm, sig.Signature, sig.Valid); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetForFile returns the signature attached to a file, or common.ErrNotFound.
func (r *PostgresRepository) GetForFile(ctx context.Context, fileID string) (*models.Signature, error) {
	query := `
		SELECT file_id, signer_id, algorithm, signature, valid, created_at
		FROM signatures
		WHERE file_id = $1
	`
	sig := &models.Signature{}
	err := r.db.QueryRowContext(ctx, query, fileID).Scan(
		&sig.FileID, &sig.SignerID, &sig.Algorithm, &sig.Signature, &sig.Valid, &sig.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return sig, nil
}
