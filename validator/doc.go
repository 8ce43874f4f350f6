/*
Package validator verifies Passage JWTs using the lestrrat-go/jwx v3 library.

A token is accepted only when all of the following hold:

  - it is a compact JWS with exactly three non-empty segments
  - its header names a key id ("kid") that the KeySource can resolve
  - the header "alg" equals the algorithm the key is registered for
    (or RS256 when the key declares none)
  - the signature verifies with that key
  - exp, when present, is in the future and nbf, when present, is not
  - the subject ("sub") is non-empty

Symmetric algorithms and "none" are rejected outright because keys come from
a public JWKS.

# Basic Usage

	cache, err := jwks.New(jwks.URLForApp("", appID))
	if err != nil {
	    log.Fatal(err)
	}

	v, err := validator.New(validator.WithKeySource(cache))
	if err != nil {
	    log.Fatal(err)
	}

	claims, err := v.Verify(ctx, token)
	if err != nil {
	    log.Printf("rejected: %s", validator.Code(err))
	    return
	}
	fmt.Println(claims.Subject)

# Errors

Every failure is a *VerificationError whose Code is one of the ErrorCode
constants and which matches ErrTokenInvalid through errors.Is. The codes are
for logs and metrics; callers facing clients should collapse them into a
single "invalid token" answer, as the core package does.
*/
package validator
