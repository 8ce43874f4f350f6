package identity

import (
	"errors"
	"fmt"
)

// Operation sentinels. Every *Error returned by the Client matches exactly
// one of them with errors.Is.
var (
	ErrCouldNotFetchApp            = errors.New("could not fetch app")
	ErrFailedToCreateMagicLink     = errors.New("failed to create magic link")
	ErrFailedToListDevices         = errors.New("failed to list devices for the user")
	ErrFailedToRevokeDevice        = errors.New("failed to revoke device for the user")
	ErrFailedToRevokeRefreshTokens = errors.New("could not revoke user's refresh tokens")
	ErrFailedToRetrieveUser        = errors.New("failed to retrieve user information")
	ErrFailedToDeactivateUser      = errors.New("failed to deactivate the user")
	ErrFailedToActivateUser        = errors.New("failed to activate the user")
	ErrFailedToDeleteUser          = errors.New("failed to delete the user")
	ErrFailedToCreateUser          = errors.New("failed to create the user")
	ErrFailedToUpdateUser          = errors.New("failed to update the user")
	ErrFailedToRefreshToken        = errors.New("failed to refresh the token")
)

// Input validation errors, returned before any request is sent.
var (
	ErrMissingEmailOrPhone = errors.New("either email or phone must be provided")
	ErrMissingAPIKey       = errors.New("api key is required for this operation")
)

// Error describes a failed API operation.
type Error struct {
	// Op is the operation sentinel, e.g. ErrFailedToRetrieveUser.
	Op error
	// StatusCode is the HTTP status returned by the API, or 0 when no
	// response was received.
	StatusCode int
	// Message is the error text reported by the API, if any.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Op.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the operation sentinel of e.
func (e *Error) Is(target error) bool {
	return target == e.Op
}
