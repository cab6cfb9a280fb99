package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/akarpov/sealbox/internal/access"
	"github.com/akarpov/sealbox/internal/sharing"
)

// Share grants another account access to a file. The file key is unwrapped
// with the caller's private key and re-wrapped under the recipient's public
// key right here; the unwrapped key never reaches the service layer.
func (a *App) Share(ctx context.Context) error {
	fileID, err := getSimpleText(a.reader, "Enter file id", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter recipient email", a.out)
	if err != nil {
		return err
	}
	capsRaw, err := getSimpleText(a.reader, "Enter capabilities (e.g. read,download,re-share)", a.out)
	if err != nil {
		return err
	}
	expiryRaw, err := getSimpleText(a.reader, "Enter expiry (e.g. 24h, empty for none)", a.out)
	if err != nil {
		return err
	}

	caps, err := access.ParseSet(capsRaw)
	if err != nil {
		fmt.Fprintln(a.out, "Invalid capabilities:", err)
		return err
	}

	var expiresAt *time.Time
	if expiryRaw != "" {
		d, err := time.ParseDuration(expiryRaw)
		if err != nil {
			fmt.Fprintln(a.out, "Invalid expiry:", err)
			return err
		}
		t := time.Now().Add(d)
		expiresAt = &t
	}

	recipient, err := a.users.GetRecipient(ctx, email)
	if err != nil {
		fmt.Fprintln(a.out, "Unknown recipient:", err)
		return err
	}

	file, err := a.files.Get(ctx, fileID, a.userID)
	if err != nil {
		fmt.Fprintln(a.out, "Cannot fetch file:", err)
		return err
	}

	rewrapped, err := sharing.ReWrapPEM(file.WrappedKey, a.session.PrivateKey(), recipient.PublicKeyPEM)
	if err != nil {
		fmt.Fprintln(a.out, "Re-wrap failed:", err)
		return err
	}

	if _, err := a.shares.Share(ctx, fileID, recipient.ID, a.userID, rewrapped, caps, expiresAt); err != nil {
		fmt.Fprintln(a.out, "Share failed:", err)
		return err
	}

	fmt.Fprintln(a.out, "Shared with", email)
	return nil
}

// Revoke withdraws a recipient's grant.
func (a *App) Revoke(ctx context.Context) error {
	fileID, err := getSimpleText(a.reader, "Enter file id", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter recipient email", a.out)
	if err != nil {
		return err
	}

	recipient, err := a.users.GetRecipient(ctx, email)
	if err != nil {
		fmt.Fprintln(a.out, "Unknown recipient:", err)
		return err
	}

	if err := a.shares.Revoke(ctx, fileID, recipient.ID, a.userID); err != nil {
		fmt.Fprintln(a.out, "Revoke failed:", err)
		return err
	}
	fmt.Fprintln(a.out, "Revoked")
	return nil
}

// Shares lists the grants on a file the caller owns.
func (a *App) Shares(ctx context.Context) error {
	fileID, err := getSimpleText(a.reader, "Enter file id", a.out)
	if err != nil {
		return err
	}

	list, err := a.shares.ListForFile(ctx, fileID, a.userID)
	if err != nil {
		fmt.Fprintln(a.out, "Cannot list shares:", err)
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No shares")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RECIPIENT\tCAPABILITIES\tSTATE\tEXPIRES")
	now := time.Now()
	for _, s := range list {
		grant := &access.Grant{ExpiresAt: s.ExpiresAt, Revoked: s.Revoked}
		expires := "-"
		if s.ExpiresAt != nil {
			expires = s.ExpiresAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.RecipientID, s.Capabilities, access.StateOf(grant, now), expires)
	}
	return w.Flush()
}
