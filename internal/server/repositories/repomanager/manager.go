package repomanager

import (
	"context"
	"database/sql"

	"github.com/akarpov/sealbox/internal/dbx"
	"github.com/akarpov/sealbox/internal/server/repositories/files"
	"github.com/akarpov/sealbox/internal/server/repositories/refreshtokens"
	"github.com/akarpov/sealbox/internal/server/repositories/shares"
	"github.com/akarpov/sealbox/internal/server/repositories/signatures"
	"github.com/akarpov/sealbox/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
	Shares(db dbx.DBTX) shares.Repository
	Signatures(db dbx.DBTX) signatures.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
