package access

import (
	"fmt"
	"time"

	"github.com/akarpov/sealbox/internal/common"
)

// State is the lifecycle state of one (file, recipient) grant.
type State int

const (
	// StateNone means no share record exists for the pair.
	StateNone State = iota
	// StateActive means a valid wrapped key, not revoked, not past expiry.
	StateActive
	// StateExpired means past expiry; no access, record retained for audit.
	StateExpired
	// StateRevoked means explicitly revoked; terminal unless re-shared.
	StateRevoked
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateRevoked:
		return "revoked"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Grant is the persistence-agnostic view of a share record that the state
// machine operates on.
type Grant struct {
	Capabilities Set
	ExpiresAt    *time.Time
	Revoked      bool
}

// StateOf derives the grant's state at the given instant. Revocation wins
// over expiry so an audit trail keeps the explicit revoke visible.
func StateOf(g *Grant, now time.Time) State {
	switch {
	case g == nil:
		return StateNone
	case g.Revoked:
		return StateRevoked
	case g.ExpiresAt != nil && now.After(*g.ExpiresAt):
		return StateExpired
	default:
		return StateActive
	}
}

// Evaluate decides whether userID may perform required on a file owned by
// ownerID, given the user's grant (nil when no share record exists).
//
// The owner always has full access, including delete. For everyone else the
// grant must be active and must explicitly contain the required capability;
// delete is never grantable. A nil return means access is allowed; denial
// is common.ErrAccessDenied, which is expected control flow rather than an
// exceptional condition.
func Evaluate(ownerID, userID string, g *Grant, required Capability, now time.Time) error {
	if userID == ownerID {
		return nil
	}
	if required == CapDelete {
		return fmt.Errorf("delete is owner-only: %w", common.ErrAccessDenied)
	}
	switch st := StateOf(g, now); st {
	case StateActive:
		if !g.Capabilities.Has(required) {
			return fmt.Errorf("capability %q not granted: %w", required, common.ErrAccessDenied)
		}
		return nil
	default:
		return fmt.Errorf("share is %s: %w", st, common.ErrAccessDenied)
	}
}
