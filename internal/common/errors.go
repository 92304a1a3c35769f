// Package common defines the sentinel errors shared across storefront
// layers. Callers match them with errors.Is; repositories and services
// wrap lower-level failures but always surface one of these at the
// boundary.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound    = errors.New("not found")
	ErrEmailExists = errors.New("email already registered")

	// Credential errors. Unknown email and wrong password are deliberately
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Token lifecycle errors, checked in this order: malformed, expired,
	// revoked. Each check is terminal.
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenRevoked   = errors.New("token revoked")

	// Input validation failures on service operations.
	ErrValidation = errors.New("validation error")

	// Queue-side error for payloads that cannot be parsed. Such messages
	// are acknowledged and dropped, never requeued.
	ErrMalformedEvent = errors.New("malformed event")

	// Generic internal failure. Returned to callers instead of leaking
	// provider detail; the original error is logged with context.
	ErrInternal = errors.New("internal error")
)
