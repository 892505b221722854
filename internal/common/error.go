// Package common defines shared constants and sentinel errors used across
// client and server layers of zkvault. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")
	ErrValidation = errors.New("validation error")

	// Authentication flow. Wrong email and wrong password share one error.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTotpRequired       = errors.New("totp required")
	ErrInvalidTotp        = errors.New("invalid totp code")
	ErrInvalidCode        = errors.New("invalid code")
	ErrTotpNotEnrolled    = errors.New("2fa not setup")

	// Session errors: missing, malformed, expired or badly signed tokens.
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrSecretNotConfigured = errors.New("session signing secret is not configured")

	// Crypto errors.
	ErrAuthenticationFailure  = errors.New("decryption failed")
	ErrUnsupportedEnvironment = errors.New("secure crypto primitives are unavailable")

	// Client key lifecycle.
	ErrLocked    = errors.New("vault is locked")
	ErrLoggedOut = errors.New("not logged in")
)
