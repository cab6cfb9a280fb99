package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/akarpov/sealbox/internal/common"
	"github.com/akarpov/sealbox/internal/cryptox"
	"github.com/akarpov/sealbox/internal/keyring"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an email and password and creates a new account.
// The password never leaves this function: only the derived salt, verifier,
// public key and wrapped private key record go to the service.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	creds, err := keyring.Register(password)
	if err != nil {
		return err
	}

	if _, err := a.users.Register(ctx, email, creds); err != nil {
		fmt.Fprintln(a.out, "Registration failed:", err)
		return err
	}

	fmt.Fprintln(a.out, "Success!")
	return nil
}

// Login authenticates against the server and opens a local key session.
// A wrong password and a corrupted key record produce the same message;
// there is nothing useful to tell an attacker apart with.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	salt, err := a.users.GetSalt(ctx, email)
	if err != nil {
		return err
	}

	masterKey := cryptox.DeriveMasterKey(password, salt)
	verifier := cryptox.MakeVerifier(masterKey)
	common.WipeByteArray(masterKey)

	pair, user, err := a.users.Login(ctx, email, verifier)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			fmt.Fprintln(a.out, "Invalid email or password")
			return err
		}
		return err
	}

	wrapped := &cryptox.SealedData{
		Ciphertext: user.PrivKeyCiphertext,
		Nonce:      user.PrivKeyNonce,
		Tag:        user.PrivKeyTag,
	}
	session, err := keyring.Login(password, user.Salt, wrapped)
	if err != nil {
		fmt.Fprintln(a.out, "Invalid email or password")
		return err
	}

	a.session = session
	a.userID = user.ID
	a.email = email
	a.tokens = pair

	fmt.Fprintln(a.out, "Logged in as", email)
	return nil
}

// Logout closes the key session and wipes the master key.
func (a *App) Logout(ctx context.Context) error {
	a.closeSession()
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
