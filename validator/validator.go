package validator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// KeySource resolves a key id to a verification key. *jwks.Cache implements it.
type KeySource interface {
	Key(ctx context.Context, kid string) (jwk.Key, error)
}

// KeySourceFunc adapts a function to KeySource.
type KeySourceFunc func(ctx context.Context, kid string) (jwk.Key, error)

// Key implements KeySource.
func (f KeySourceFunc) Key(ctx context.Context, kid string) (jwk.Key, error) {
	return f(ctx, kid)
}

// Signature algorithms accepted for tokens. Keys come from a public JWKS, so
// symmetric algorithms and "none" are never accepted.
var allowedSigningAlgorithms = map[string]jwa.SignatureAlgorithm{
	"RS256": jwa.RS256(),
	"RS384": jwa.RS384(),
	"RS512": jwa.RS512(),
	"PS256": jwa.PS256(),
	"PS384": jwa.PS384(),
	"PS512": jwa.PS512(),
	"ES256": jwa.ES256(),
	"ES384": jwa.ES384(),
	"ES512": jwa.ES512(),
	"EdDSA": jwa.EdDSA(),
}

// DefaultAlgorithm is used for keys that do not declare an "alg".
const DefaultAlgorithm = "RS256"

var registeredClaimNames = map[string]struct{}{
	jwt.SubjectKey:    {},
	jwt.IssuerKey:     {},
	jwt.AudienceKey:   {},
	jwt.ExpirationKey: {},
	jwt.NotBeforeKey:  {},
	jwt.IssuedAtKey:   {},
	jwt.JwtIDKey:      {},
}

// Validator verifies Passage-issued JWTs against keys from a KeySource.
type Validator struct {
	keys             KeySource
	defaultAlgorithm string
	allowedClockSkew time.Duration
	issuer           string
	audience         []string
	now              func() time.Time
}

// New sets up a Validator. WithKeySource is required.
//
// Example:
//
//	v, err := validator.New(
//	    validator.WithKeySource(cache),
//	    validator.WithAllowedClockSkew(30*time.Second),
//	)
func New(opts ...Option) (*Validator, error) {
	v := &Validator{
		defaultAlgorithm: DefaultAlgorithm,
		now:              time.Now,
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if v.keys == nil {
		return nil, errors.New("key source is required (use WithKeySource)")
	}

	return v, nil
}

// ValidateToken verifies tokenString and returns its *VerifiedClaims as any.
func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (any, error) {
	claims, err := v.Verify(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Verify checks the structure, signature and validity window of raw and
// returns its claims. Every failure is a *VerificationError.
func (v *Validator) Verify(ctx context.Context, raw string) (claims *VerifiedClaims, err error) {
	defer func() {
		if r := recover(); r != nil {
			claims = nil
			err = newError(ErrorCodeTokenMalformed, "token could not be verified", fmt.Errorf("panic: %v", r))
		}
	}()

	parts, err := splitToken(raw)
	if err != nil {
		return nil, newError(ErrorCodeTokenMalformed, "token is malformed", err)
	}

	header, err := decodeHeader(parts[0])
	if err != nil {
		return nil, newError(ErrorCodeTokenMalformed, "token header is malformed", err)
	}
	if header.KeyID == "" {
		return nil, newError(ErrorCodeTokenMalformed, "token header has no key id", nil)
	}
	if _, ok := allowedSigningAlgorithms[header.Algorithm]; !ok {
		return nil, newError(
			ErrorCodeInvalidSignature,
			"token signing algorithm is not allowed",
			fmt.Errorf("alg %q", header.Algorithm),
		)
	}

	key, err := v.keys.Key(ctx, header.KeyID)
	if err != nil {
		return nil, newError(ErrorCodeKeyNotFound, "no key found for token", fmt.Errorf("kid %q: %w", header.KeyID, err))
	}

	alg, err := v.keyAlgorithm(key)
	if err != nil {
		return nil, newError(ErrorCodeInvalidSignature, "key cannot verify tokens", err)
	}
	if alg.String() != header.Algorithm {
		return nil, newError(
			ErrorCodeInvalidSignature,
			"token signing algorithm does not match key",
			fmt.Errorf("expected %q signing algorithm but token specified %q", alg.String(), header.Algorithm),
		)
	}

	token, err := jwt.ParseString(raw, jwt.WithKey(alg, key), jwt.WithValidate(false))
	if err != nil {
		return nil, newError(ErrorCodeInvalidSignature, "token signature is invalid", err)
	}

	claims = extractClaims(token)

	if err := v.validateClaims(claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// keyAlgorithm returns the algorithm a key is registered for, falling back
// to the validator's default when the key declares none.
func (v *Validator) keyAlgorithm(key jwk.Key) (jwa.SignatureAlgorithm, error) {
	name := v.defaultAlgorithm
	if keyAlg, ok := key.Algorithm(); ok && keyAlg.String() != "" {
		name = keyAlg.String()
	}

	alg, ok := allowedSigningAlgorithms[name]
	if !ok {
		return jwa.SignatureAlgorithm{}, fmt.Errorf("key algorithm %q is not allowed", name)
	}
	return alg, nil
}

func (v *Validator) validateClaims(claims *VerifiedClaims) error {
	now := v.now()

	if !claims.ExpiresAt.IsZero() && !now.Add(-v.allowedClockSkew).Before(claims.ExpiresAt) {
		return newError(ErrorCodeTokenExpired, "token is expired", fmt.Errorf("exp %s", claims.ExpiresAt.UTC().Format(time.RFC3339)))
	}

	if !claims.NotBefore.IsZero() && now.Add(v.allowedClockSkew).Before(claims.NotBefore) {
		return newError(ErrorCodeTokenNotYetValid, "token is not valid yet", fmt.Errorf("nbf %s", claims.NotBefore.UTC().Format(time.RFC3339)))
	}

	if v.issuer != "" && claims.Issuer != v.issuer {
		return newError(ErrorCodeInvalidClaims, "token issuer is invalid", fmt.Errorf("iss %q", claims.Issuer))
	}

	if len(v.audience) > 0 && !containsAny(claims.Audience, v.audience) {
		return newError(ErrorCodeInvalidClaims, "token audience is invalid", fmt.Errorf("aud %q", claims.Audience))
	}

	if claims.Subject == "" {
		return newError(ErrorCodeMissingSubject, "token has no subject", nil)
	}

	return nil
}

// DecodeHeader decodes the header of a compact token without verifying it.
func DecodeHeader(raw string) (*Header, error) {
	parts, err := splitToken(raw)
	if err != nil {
		return nil, err
	}
	return decodeHeader(parts[0])
}

func decodeHeader(segment string) (*Header, error) {
	data, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return nil, fmt.Errorf("failed to decode header: %w", err)
	}

	var header Header
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	return &header, nil
}

func extractClaims(token jwt.Token) *VerifiedClaims {
	claims := &VerifiedClaims{}

	claims.Subject, _ = token.Subject()
	claims.Issuer, _ = token.Issuer()
	claims.Audience, _ = token.Audience()
	claims.IssuedAt, _ = token.IssuedAt()
	claims.ExpiresAt, _ = token.Expiration()
	claims.NotBefore, _ = token.NotBefore()

	for _, name := range token.Keys() {
		if _, ok := registeredClaimNames[name]; ok {
			continue
		}
		var value any
		if err := token.Get(name, &value); err != nil {
			continue
		}
		if claims.Extra == nil {
			claims.Extra = make(map[string]any)
		}
		claims.Extra[name] = value
	}

	return claims
}

func containsAny(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
