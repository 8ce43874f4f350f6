package validator

import "errors"

// ErrTokenInvalid matches every *VerificationError through errors.Is.
var ErrTokenInvalid = errors.New("token invalid")

// Verification error codes.
const (
	ErrorCodeTokenMalformed   = "token_malformed"
	ErrorCodeKeyNotFound      = "jwks_key_not_found"
	ErrorCodeInvalidSignature = "invalid_signature"
	ErrorCodeTokenExpired     = "token_expired"
	ErrorCodeTokenNotYetValid = "token_not_yet_valid"
	ErrorCodeMissingSubject   = "missing_subject"
	ErrorCodeInvalidClaims    = "invalid_claims"
)

// VerificationError describes why a token was rejected. Code is stable and
// machine-readable; Message and Details are meant for logs, not for clients.
type VerificationError struct {
	Code    string
	Message string
	Details error
}

// Error implements the error interface.
func (e *VerificationError) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *VerificationError) Unwrap() error {
	return e.Details
}

// Is reports whether target is ErrTokenInvalid.
func (e *VerificationError) Is(target error) bool {
	return target == ErrTokenInvalid
}

func newError(code, message string, details error) *VerificationError {
	return &VerificationError{Code: code, Message: message, Details: details}
}

// Code returns the VerificationError code of err, or "" when err is not one.
func Code(err error) string {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr.Code
	}
	return ""
}
