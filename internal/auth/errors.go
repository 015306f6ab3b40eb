package auth

import "errors"

var (
	// ErrNoToken is returned when no bearer token is present on the request.
	ErrNoToken = errors.New("access token required")

	// ErrTokenExpired is returned when a token's expiry lies in the past.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned when a token cannot be parsed or its
	// signature does not verify.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrClaimMismatch is returned when a structurally valid token fails
	// the audience, issuer, or algorithm checks.
	ErrClaimMismatch = errors.New("token claims mismatch")

	// ErrKeysetUnavailable is returned while a key-set fetch failure is
	// still within the transient window; callers answer with a server
	// error rather than rejecting the credential outright.
	ErrKeysetUnavailable = errors.New("identity provider key set unavailable")
)
