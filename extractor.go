package passage

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-passage/passage/core"
)

// CookieName is the cookie Passage's front-end elements store the auth token in.
const CookieName = "psg_auth_token"

// AuthStrategy selects where the token is read from.
type AuthStrategy int

const (
	// StrategyCookie reads the psg_auth_token cookie. It is the default.
	StrategyCookie AuthStrategy = iota
	// StrategyHeader reads the Authorization header.
	StrategyHeader
)

// String implements fmt.Stringer.
func (s AuthStrategy) String() string {
	switch s {
	case StrategyHeader:
		return "HEADER"
	case StrategyCookie:
		return "COOKIE"
	default:
		return fmt.Sprintf("AuthStrategy(%d)", int(s))
	}
}

// ParseAuthStrategy parses "HEADER" or "COOKIE", ignoring case. An empty
// string selects StrategyCookie.
func ParseAuthStrategy(s string) (AuthStrategy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "COOKIE":
		return StrategyCookie, nil
	case "HEADER":
		return StrategyHeader, nil
	default:
		return 0, fmt.Errorf("unknown auth strategy %q (want HEADER or COOKIE)", s)
	}
}

// Extraction errors. They are *core.CredentialError values, so Authenticate
// reports their message to the client as is.
var (
	ErrHeaderMissing = &core.CredentialError{
		Reason:  core.ReasonCredentialMissing,
		Message: "Header authorization not found.",
	}
	ErrHeaderMalformed = &core.CredentialError{
		Reason:  core.ReasonCredentialMalformed,
		Message: "Authorization header is malformed.",
	}
	ErrCookieMissing = &core.CredentialError{
		Reason:  core.ReasonCredentialMissing,
		Message: fmt.Sprintf("Could not find authentication cookie %q.", CookieName),
	}
)

// TokenExtractor reads the raw token from a request. It returns a
// *core.CredentialError when no usable token is present.
type TokenExtractor func(r *http.Request) (string, error)

// HeaderTokenExtractor reads the token from an "Authorization: <scheme> <token>"
// header. The scheme is not checked.
func HeaderTokenExtractor(r *http.Request) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader == "" {
		return "", ErrHeaderMissing
	}

	authHeaderParts := strings.Fields(authHeader)
	if len(authHeaderParts) != 2 {
		return "", ErrHeaderMalformed
	}

	return authHeaderParts[1], nil
}

// CookieTokenExtractor builds a TokenExtractor that reads the named cookie.
// A missing or empty cookie is a missing credential.
func CookieTokenExtractor(cookieName string) TokenExtractor {
	missing := ErrCookieMissing
	if cookieName != CookieName {
		missing = &core.CredentialError{
			Reason:  core.ReasonCredentialMissing,
			Message: fmt.Sprintf("Could not find authentication cookie %q.", cookieName),
		}
	}

	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(cookieName)
		if errors.Is(err, http.ErrNoCookie) || (err == nil && cookie.Value == "") {
			return "", missing
		}
		if err != nil {
			return "", err
		}
		return cookie.Value, nil
	}
}

// ExtractorFor returns the TokenExtractor of a strategy.
func ExtractorFor(strategy AuthStrategy) TokenExtractor {
	if strategy == StrategyHeader {
		return HeaderTokenExtractor
	}
	return CookieTokenExtractor(CookieName)
}

// Extract reads the token of r using strategy.
func Extract(r *http.Request, strategy AuthStrategy) (string, error) {
	return ExtractorFor(strategy)(r)
}
