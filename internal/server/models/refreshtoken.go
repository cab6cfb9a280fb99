package models

import "time"

// RefreshToken is a server-stored long-lived token used to rotate access
// tokens without re-deriving the master key.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
