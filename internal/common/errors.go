// Package common defines shared constants and sentinel errors used across
// client and server layers of Sealbox. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Cryptographic failures. Never swallowed: these abort the calling
	// operation so upstream code can tell corrupted data from access
	// problems.
	ErrAuthentication = errors.New("authentication failed")
	ErrIntegrity      = errors.New("integrity check failed")
	ErrKeyUnwrap      = errors.New("key unwrap failed")
	ErrInvalidKey     = errors.New("invalid key material")

	// Permission failures. Expected control flow, returned as plain results.
	ErrInvalidOperation = errors.New("invalid operation")
	ErrResourceGone     = errors.New("resource is deleted")
	ErrAccessDenied     = errors.New("access denied")

	// Auth token lifecycle errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
