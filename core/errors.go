package core

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrUnauthenticated matches every *AuthError through errors.Is.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUserIDNotFound is returned when no UserID is bound to a context.
	ErrUserIDNotFound = errors.New("user id not found in context")

	// ErrClaimsNotFound is returned when claims cannot be retrieved from context.
	ErrClaimsNotFound = errors.New("claims not found in context")
)

// Reason is the externally visible category of an authentication failure.
type Reason string

// Authentication failure reasons.
const (
	ReasonCredentialMissing   Reason = "credential_missing"
	ReasonCredentialMalformed Reason = "credential_malformed"
	ReasonInvalidToken        Reason = "invalid_token"
)

// Public messages for each reason. Credential errors may carry a more
// specific message of their own.
const (
	MessageInvalidToken        = "Auth token is invalid."
	MessageCredentialMissing   = "Authentication credential not found."
	MessageCredentialMalformed = "Authentication credential is malformed."
)

// CredentialError is returned by token sources when no usable credential
// could be read from a request. Message is safe to show to clients.
type CredentialError struct {
	Reason  Reason
	Message string
}

// Error implements the error interface.
func (e *CredentialError) Error() string {
	return e.Message
}

// AuthError is the single failure type of Authenticate. Err keeps the
// underlying extraction or verification error for logs.
type AuthError struct {
	Reason Reason
	Err    error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed (%s): %s", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed (%s)", e.Reason)
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is allows the error to be compared with ErrUnauthenticated.
func (e *AuthError) Is(target error) bool {
	return target == ErrUnauthenticated
}

// Message returns the human-readable reason sent to clients. Verification
// details never appear in it.
func (e *AuthError) Message() string {
	switch e.Reason {
	case ReasonInvalidToken:
		return MessageInvalidToken
	case ReasonCredentialMissing, ReasonCredentialMalformed:
		var credErr *CredentialError
		if errors.As(e.Err, &credErr) && credErr.Message != "" {
			return credErr.Message
		}
		if e.Reason == ReasonCredentialMissing {
			return MessageCredentialMissing
		}
		return MessageCredentialMalformed
	default:
		return MessageInvalidToken
	}
}

// ReasonOf returns the Reason of err, or "" when err is not an *AuthError.
func ReasonOf(err error) Reason {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Reason
	}
	return ""
}
