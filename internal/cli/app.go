// Package cli is the trusted-side operator tool. Every cryptographic
// operation that touches plaintext or unwrapped keys runs here: key
// derivation, file encryption, metadata decryption and key re-wrapping.
// The service layer underneath only ever sees ciphertext and wrapped keys.
package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/akarpov/sealbox/internal/audit"
	"github.com/akarpov/sealbox/internal/keyring"
	"github.com/akarpov/sealbox/internal/server"
	"github.com/akarpov/sealbox/internal/server/services"
)

type App struct {
	users  *services.UserService
	files  *services.FileService
	shares *services.ShareService
	audit  audit.Emitter

	reader *bufio.Reader
	out    io.Writer

	session *keyring.Session
	userID  string
	email   string
	tokens  *services.TokenPair
}

// NewApp binds the CLI to a running server application in-process.
func NewApp(srv *server.App) *App {
	return &App{
		users:  srv.Users(),
		files:  srv.Files(),
		shares: srv.Shares(),
		audit:  srv.Audit(),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.closeSession()
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) isLoggedIn() bool {
	return a.session != nil && !a.session.Closed()
}

func (a *App) status() string {
	if a.isLoggedIn() {
		return a.email
	}
	return "not logged in"
}

func (a *App) closeSession() {
	if a.session != nil {
		a.session.Close()
		a.session = nil
	}
	a.userID = ""
	a.email = ""
	a.tokens = nil
}
