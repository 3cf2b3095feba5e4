// Package common defines shared constants, sentinel errors and small helpers
// used across the cardkeep auth core. Callers should use errors.Is to match
// the error values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// ErrPersistence wraps every store failure (I/O, driver, constraint
	// violations other than a duplicate email). It never signals bad credentials.
	ErrPersistence = errors.New("persistence failure")

	// Validation errors.
	ErrInvalidInput = errors.New("email and password are required")

	// Account errors.
	ErrDuplicateAccount = errors.New("email already exists")

	// ErrInvalidCredentials is returned for an unknown email and for a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionInvalid covers absent, malformed, forged and expired tokens.
	ErrSessionInvalid = errors.New("session invalid")
)
