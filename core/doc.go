/*
Package core turns a request credential into an authenticated UserID without
knowing anything about the transport it came from.

A transport adapter hands Authenticate a TokenSource that reads the raw token
from its request. The result is either a UserID or an *AuthError whose Reason
is one of:

  - ReasonCredentialMissing: the request carried no credential
  - ReasonCredentialMalformed: a credential was present but unreadable
  - ReasonInvalidToken: the token failed verification, for any reason

The verification reason is kept in AuthError.Err for logs, but
AuthError.Message collapses it into "Auth token is invalid." so clients learn
nothing about why a token was rejected.

# Request-scoped state

Adapters bind the result to the request context with SetUserID (and SetClaims
for the full claims); handlers read it back with UserIDFrom, MustUserID or
GetClaims. Nothing is stored outside the context.

	c, _ := core.New(core.WithValidator(v))

	userID, err := c.Authenticate(ctx, func() (string, error) {
	    return r.Header.Get("X-Token"), nil
	})
	if err != nil {
	    var authErr *core.AuthError
	    errors.As(err, &authErr)
	    http.Error(w, authErr.Message(), http.StatusUnauthorized)
	    return
	}
	ctx = core.SetUserID(ctx, userID)
*/
package core
