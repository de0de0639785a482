// Package common defines shared constants and sentinel errors used across
// the forum client, the data service and its repositories. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrorInternal     = errors.New("internal error")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrForbidden      = errors.New("permission denied")
	ErrUnknownColumn  = errors.New("unknown column")
	ErrUnknownCollect = errors.New("unknown collection")

	// Identity errors surfaced by the session controller.
	ErrorValidation     = errors.New("validation error")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrorUnauthorized   = errors.New("invalid email or password")
	ErrStoreUnavailable = errors.New("account store unavailable")

	// ErrUnknownAction means a prestige action key is missing from the catalog.
	// It is a programming error and is never shown to the user.
	ErrUnknownAction = errors.New("unknown prestige action")

	// Session state errors.
	ErrSessionLoading    = errors.New("session is still loading")
	ErrSessionSuperseded = errors.New("session request superseded")
	ErrNotSignedIn       = errors.New("not signed in")

	// Wallet link errors.
	ErrWalletNotInstalled = errors.New("wallet extension not installed")
	ErrWalletRejected     = errors.New("wallet connection rejected")
	ErrWalletTimeout      = errors.New("wallet connection timed out")
	ErrInvalidAddress     = errors.New("invalid wallet address")
)
