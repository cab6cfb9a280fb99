// Package users provides a PostgreSQL-backed repository for user accounts,
// including the wrapped private key record written once at registration.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akarpov/sealbox/internal/common"
	"github.com/akarpov/sealbox/internal/dbx"
	"github.com/akarpov/sealbox/internal/server/models"
)

// PostgresRepository implements user storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user with credentials, public key and the wrapped
// private key record.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, salt, verifier, public_key_pem, priv_key_ciphertext, priv_key_nonce, priv_key_tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Salt, user.Verifier, user.PublicKeyPEM,
		user.PrivKeyCiphertext, user.PrivKeyNonce, user.PrivKeyTag).Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// GetByEmail returns the full user row, including the wrapped private key
// record read at login.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, salt, verifier, public_key_pem, priv_key_ciphertext, priv_key_nonce, priv_key_tag
		FROM users
		WHERE email = $1
	`
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Salt, &user.Verifier, &user.PublicKeyPEM,
		&user.PrivKeyCiphertext, &user.PrivKeyNonce, &user.PrivKeyTag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// GetByID returns the user row by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, salt, verifier, public_key_pem, priv_key_ciphertext, priv_key_nonce, priv_key_tag
		FROM users
		WHERE id = $1
	`
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Salt, &user.Verifier, &user.PublicKeyPEM,
		&user.PrivKeyCiphertext, &user.PrivKeyNonce, &user.PrivKeyTag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// GetPublicKey is the identity-lookup query: it returns only the armored
// public key for the given email, for use by the sharing path.
func (r *PostgresRepository) GetPublicKey(ctx context.Context, email string) (string, error) {
	query := `
		SELECT public_key_pem FROM users
		WHERE email = $1
	`
	var armored string
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&armored); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return armored, nil
}
