// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, and issuing/refreshing JWTs
// plus server-stored refresh tokens. The server never sees passwords or
// master keys: clients send a derived verifier, and the wrapped private key
// record is opaque ciphertext to every code path here.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akarpov/sealbox/internal/common"
	"github.com/akarpov/sealbox/internal/dbx"
	"github.com/akarpov/sealbox/internal/keyring"
	"github.com/akarpov/sealbox/internal/server/auth"
	"github.com/akarpov/sealbox/internal/server/config"
	"github.com/akarpov/sealbox/internal/server/models"
	"github.com/akarpov/sealbox/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService provides authentication-related operations:
// - Register: create accounts with their wrapped private key record
// - Login: verify the credential verifier and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates a new user from client-derived credentials. The wrapped
// private key record is stored as-is and never mutated afterwards.
func (s *UserService) Register(ctx context.Context, email string, creds *keyring.Credentials) (*models.User, error) {
	if creds == nil || creds.WrappedPrivateKey == nil {
		return nil, common.ErrInvalidOperation
	}
	user := &models.User{
		Email:             email,
		Salt:              creds.Salt,
		Verifier:          creds.Verifier,
		PublicKeyPEM:      creds.PublicKeyPEM,
		PrivKeyCiphertext: creds.WrappedPrivateKey.Ciphertext,
		PrivKeyNonce:      creds.WrappedPrivateKey.Nonce,
		PrivKeyTag:        creds.WrappedPrivateKey.Tag,
	}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %v", err)
	}
	return u, nil
}

// GetSalt returns the user's stored salt or a random salt if the user is
// absent, to avoid leaking account existence.
func (s *UserService) GetSalt(ctx context.Context, email string) ([]byte, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return s.getRandomSalt(), nil
		}
		return nil, common.ErrInternal
	}
	return user.Salt, nil
}

// Login verifies the provided verifierCandidate against the stored verifier
// and, on success, returns a new TokenPair together with the user row so
// the client can take its wrapped private key record home. Unknown account
// and wrong verifier are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email string, verifierCandidate []byte) (*TokenPair, *models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.ErrUnauthorized
		}
		return nil, nil, common.ErrInternal
	}
	if !s.checkVerifier(user.Verifier, verifierCandidate) {
		return nil, nil, common.ErrUnauthorized
	}
	pair, err := s.generateTokenPair(ctx, user.ID, s.db)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("error searching refresh token: %v", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %v", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// GetPublicKey returns the armored identity public key for the given email.
// The sharing path uses this to wrap file keys for recipients.
func (s *UserService) GetPublicKey(ctx context.Context, email string) (string, error) {
	repo := s.repomanager.Users(s.db)
	return repo.GetPublicKey(ctx, email)
}

// Recipient is the public identity of an account as seen by sharers: just
// enough to address a grant and wrap a key, nothing private.
type Recipient struct {
	ID           string
	Email        string
	PublicKeyPEM string
}

// GetRecipient resolves an email to a sharing recipient.
func (s *UserService) GetRecipient(ctx context.Context, email string) (*Recipient, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &Recipient{ID: user.ID, Email: user.Email, PublicKeyPEM: user.PublicKeyPEM}, nil
}

// --- helpers below ---

func (s *UserService) getRandomSalt() []byte { return common.GenerateRandByteArray(32) }

func (s *UserService) generateAccessToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) checkVerifier(verifier []byte, candidate []byte) bool {
	return subtle.ConstantTimeCompare(verifier, candidate) == 1
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
