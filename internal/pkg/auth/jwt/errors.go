package jwt

import (
	"errors"
	"fmt"
)

// Verification errors returned by ParseToken and Issuer.Verify.
var (
	ErrMalformedToken   = errors.New("session token is malformed")
	ErrInvalidSignature = errors.New("session token signature is invalid")
	ErrTokenExpired     = errors.New("session token has expired")
	ErrTokenNotYetValid = errors.New("session token is not valid yet")
	ErrForeignAppKey    = errors.New("session token was issued for another app key")
)

// ConfigurationError reports a missing application credential.
// It is fatal to issuance: no token is produced.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("session token configuration: %s is required", e.Field)
}

// ValidationError reports malformed issuance input. It is raised before any
// cryptographic work is done.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SigningError wraps an unexpected serialization or signing failure.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("failed to sign session token: %v", e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}
