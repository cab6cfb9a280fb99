// Package access implements the per-(file, recipient) permission model: a
// closed capability set and the share state machine used by access checks.
package access

import (
	"fmt"
	"strings"

	"github.com/akarpov/sealbox/internal/common"
)

// Capability is one specific allowed action on a file. Capabilities are
// explicit and non-hierarchical: holding Download does not imply Read.
type Capability uint8

const (
	// CapRead allows viewing the decrypted content.
	CapRead Capability = 1 << iota
	// CapDownload allows retrieving the ciphertext body for local decryption.
	CapDownload
	// CapReshare allows granting the file onward to further recipients.
	CapReshare
	// CapDelete is owner-only and never appears in a grant.
	CapDelete
)

var capNames = map[Capability]string{
	CapRead:     "read",
	CapDownload: "download",
	CapReshare:  "re-share",
	CapDelete:   "delete",
}

// grantable is the closed set a share may carry.
const grantable = CapRead | CapDownload | CapReshare

// String returns the wire/storage name of a single capability.
func (c Capability) String() string {
	if name, ok := capNames[c]; ok {
		return name
	}
	return fmt.Sprintf("capability(%d)", uint8(c))
}

// Set is a flag set of capabilities granted by one share.
type Set uint8

// NewSet combines capabilities into a Set.
func NewSet(caps ...Capability) Set {
	var s Set
	for _, c := range caps {
		s |= Set(c)
	}
	return s
}

// Has reports whether the exact capability is present. There is no
// implication between capabilities.
func (s Set) Has(c Capability) bool {
	return s&Set(c) != 0
}

// String renders the set in its storage form, e.g. "read,download".
func (s Set) String() string {
	var names []string
	for _, c := range []Capability{CapRead, CapDownload, CapReshare, CapDelete} {
		if s.Has(c) {
			names = append(names, c.String())
		}
	}
	return strings.Join(names, ",")
}

// ParseSet parses the storage form produced by String. Unknown names yield
// common.ErrInvalidOperation.
func ParseSet(raw string) (Set, error) {
	var s Set
	if raw == "" {
		return s, nil
	}
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		found := false
		for c, n := range capNames {
			if n == name {
				s |= Set(c)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown capability %q: %w", name, common.ErrInvalidOperation)
		}
	}
	return s, nil
}

// ValidateGrant checks that a set is usable on a share: non-empty and
// containing only grantable capabilities. Delete is owner-only and can
// never be granted.
func ValidateGrant(s Set) error {
	if s == 0 {
		return fmt.Errorf("empty capability set: %w", common.ErrInvalidOperation)
	}
	if s&^Set(grantable) != 0 {
		return fmt.Errorf("capability set %q is not grantable: %w", s, common.ErrInvalidOperation)
	}
	return nil
}
