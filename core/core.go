package core

import (
	"context"
	"errors"
	"time"
)

// Validator verifies a raw token and returns its claims. The claims must
// implement GetSubject() string; *validator.Validator satisfies this.
type Validator interface {
	ValidateToken(ctx context.Context, token string) (any, error)
}

// Logger defines an optional logging interface for the core.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// TokenSource reads the raw credential of one request.
type TokenSource func() (string, error)

// UserID is the subject of a verified token.
type UserID string

// String implements fmt.Stringer.
func (u UserID) String() string {
	return string(u)
}

type subjecter interface {
	GetSubject() string
}

// Core is the framework-agnostic authentication engine.
type Core struct {
	validator Validator
	logger    Logger
}

// Authenticate reads a credential from source and verifies it. A request is
// authenticated at most once; failures are final and never fall back to
// another credential.
func (c *Core) Authenticate(ctx context.Context, source TokenSource) (UserID, error) {
	userID, _, err := c.AuthenticateWithClaims(ctx, source)
	return userID, err
}

// AuthenticateWithClaims is Authenticate that also returns the verified claims.
func (c *Core) AuthenticateWithClaims(ctx context.Context, source TokenSource) (UserID, any, error) {
	token, err := source()
	if err != nil {
		authErr := credentialFailure(err)
		if c.logger != nil {
			c.logger.Warn("No usable credential in request", "reason", string(authErr.Reason), "error", err)
		}
		return "", nil, authErr
	}
	if token == "" {
		if c.logger != nil {
			c.logger.Warn("No token provided and credentials are required")
		}
		return "", nil, &AuthError{Reason: ReasonCredentialMissing}
	}

	start := time.Now()
	claims, err := c.validator.ValidateToken(ctx, token)
	duration := time.Since(start)

	if err != nil {
		if c.logger != nil {
			c.logger.Error("Token validation failed", "error", err, "duration", duration)
		}
		return "", nil, &AuthError{Reason: ReasonInvalidToken, Err: err}
	}

	s, ok := claims.(subjecter)
	if !ok || s.GetSubject() == "" {
		err := errors.New("validated claims carry no subject")
		if c.logger != nil {
			c.logger.Error("Token validation failed", "error", err, "duration", duration)
		}
		return "", nil, &AuthError{Reason: ReasonInvalidToken, Err: err}
	}

	if c.logger != nil {
		c.logger.Debug("Token validated successfully", "subject", s.GetSubject(), "duration", duration)
	}

	return UserID(s.GetSubject()), claims, nil
}

func credentialFailure(err error) *AuthError {
	var credErr *CredentialError
	if errors.As(err, &credErr) {
		return &AuthError{Reason: credErr.Reason, Err: err}
	}
	return &AuthError{Reason: ReasonCredentialMalformed, Err: err}
}
