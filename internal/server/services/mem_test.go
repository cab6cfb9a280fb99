package services

// In-memory repository fakes for service tests. The transactional paths
// still run against a sqlmock *sql.DB so dbx.WithTx sees real Begin/Commit
// calls; the fakes themselves ignore the tx handle.

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/akarpov/sealbox/internal/common"
	"github.com/akarpov/sealbox/internal/dbx"
	"github.com/akarpov/sealbox/internal/server/models"
	"github.com/akarpov/sealbox/internal/server/repositories/files"
	"github.com/akarpov/sealbox/internal/server/repositories/refreshtokens"
	"github.com/akarpov/sealbox/internal/server/repositories/shares"
	"github.com/akarpov/sealbox/internal/server/repositories/signatures"
	"github.com/akarpov/sealbox/internal/server/repositories/users"
)

type memRepos struct {
	mu sync.Mutex

	users      map[string]*models.User // by id
	filesByID  map[string]*models.File
	sharesByPK map[string]*models.Share // fileID + "/" + recipientID
	sigsByFile map[string]*models.Signature
	tokens     map[string]*models.RefreshToken
}

func newMemRepos() *memRepos {
	return &memRepos{
		users:      map[string]*models.User{},
		filesByID:  map[string]*models.File{},
		sharesByPK: map[string]*models.Share{},
		sigsByFile: map[string]*models.Signature{},
		tokens:     map[string]*models.RefreshToken{},
	}
}

func (m *memRepos) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *memRepos) Users(dbx.DBTX) users.Repository                 { return (*memUsers)(m) }
func (m *memRepos) Files(dbx.DBTX) files.Repository                 { return (*memFiles)(m) }
func (m *memRepos) Shares(dbx.DBTX) shares.Repository               { return (*memShares)(m) }
func (m *memRepos) Signatures(dbx.DBTX) signatures.Repository       { return (*memSigs)(m) }
func (m *memRepos) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return (*memTokens)(m) }

type memUsers memRepos

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetPublicKey(ctx context.Context, email string) (string, error) {
	u, err := m.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return u.PublicKeyPEM, nil
}

type memFiles memRepos

func (m *memFiles) Create(_ context.Context, f *models.File) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = uuid.NewString()
	f.CreatedAt = time.Now()
	m.filesByID[f.ID] = f
	return f, nil
}

func (m *memFiles) Get(_ context.Context, id string) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.filesByID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memFiles) ListByOwner(_ context.Context, ownerID string) ([]*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.File
	for _, f := range m.filesByID {
		if f.OwnerID == ownerID && !f.Deleted {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memFiles) SoftDelete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.filesByID[id]
	if !ok || f.Deleted {
		return nil
	}
	now := time.Now()
	f.Deleted = true
	f.DeletedAt = &now
	return nil
}

type memShares memRepos

func sharePK(fileID, recipientID string) string { return fileID + "/" + recipientID }

func (m *memShares) Upsert(_ context.Context, s *models.Share) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	cp := *s
	cp.Revoked = false
	cp.RevokedAt = nil
	cp.RevokedBy = ""
	cp.UpdatedAt = now
	if old, ok := m.sharesByPK[sharePK(s.FileID, s.RecipientID)]; ok {
		cp.CreatedAt = old.CreatedAt
	} else {
		cp.CreatedAt = now
	}
	m.sharesByPK[sharePK(s.FileID, s.RecipientID)] = &cp
	return nil
}

func (m *memShares) Get(_ context.Context, fileID, recipientID string) (*models.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sharesByPK[sharePK(fileID, recipientID)]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memShares) GetForUpdate(ctx context.Context, fileID, recipientID string) (*models.Share, error) {
	return m.Get(ctx, fileID, recipientID)
}

func (m *memShares) ListForFile(_ context.Context, fileID string) ([]*models.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Share
	for _, s := range m.sharesByPK {
		if s.FileID == fileID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memShares) Revoke(_ context.Context, fileID, recipientID, revokerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sharesByPK[sharePK(fileID, recipientID)]
	if !ok || s.Revoked {
		return nil
	}
	now := time.Now()
	s.Revoked = true
	s.RevokedAt = &now
	s.RevokedBy = revokerID
	return nil
}

func (m *memShares) RevokeAllForFile(ctx context.Context, fileID, revokerID string) error {
	m.mu.Lock()
	var recipients []string
	for _, s := range m.sharesByPK {
		if s.FileID == fileID && !s.Revoked {
			recipients = append(recipients, s.RecipientID)
		}
	}
	m.mu.Unlock()
	for _, r := range recipients {
		if err := m.Revoke(ctx, fileID, r, revokerID); err != nil {
			return err
		}
	}
	return nil
}

type memSigs memRepos

func (m *memSigs) Attach(_ context.Context, sig *models.Signature) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sig
	cp.CreatedAt = time.Now()
	m.sigsByFile[sig.FileID] = &cp
	return nil
}

func (m *memSigs) GetForFile(_ context.Context, fileID string) (*models.Signature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sigsByFile[fileID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

type memTokens memRepos

func (m *memTokens) Create(_ context.Context, userID, token string, validity time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = &models.RefreshToken{
		ID: uuid.NewString(), UserID: userID, Token: token,
		Expires: time.Now().Add(validity), CreatedAt: time.Now(),
	}
	return nil
}

func (m *memTokens) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTokens) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

// newServiceDB returns a sqlmock-backed *sql.DB for services whose code
// paths open transactions. Tests that exercise WithTx must register the
// matching ExpectBegin/ExpectCommit pairs.
func newServiceDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}
