package validator

import (
	"errors"
	"fmt"
	"time"
)

// Option is how options for the Validator are set up.
// Options return errors to enable validation during construction.
type Option func(*Validator) error

// WithKeySource sets where verification keys come from.
// This is a required option.
func WithKeySource(keys KeySource) Option {
	return func(v *Validator) error {
		if keys == nil {
			return errors.New("key source cannot be nil")
		}
		v.keys = keys
		return nil
	}
}

// WithDefaultAlgorithm sets the algorithm assumed for keys that do not
// declare one. It must be an asymmetric algorithm.
//
// Default: RS256.
func WithDefaultAlgorithm(algorithm string) Option {
	return func(v *Validator) error {
		if _, ok := allowedSigningAlgorithms[algorithm]; !ok {
			return fmt.Errorf("unsupported signature algorithm: %s", algorithm)
		}
		v.defaultAlgorithm = algorithm
		return nil
	}
}

// WithAllowedClockSkew sets the tolerance applied to exp and nbf.
//
// Default: 0.
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(v *Validator) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.allowedClockSkew = skew
		return nil
	}
}

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) Option {
	return func(v *Validator) error {
		if issuer == "" {
			return errors.New("issuer cannot be empty")
		}
		v.issuer = issuer
		return nil
	}
}

// WithAudience requires the aud claim to contain at least one of audiences.
func WithAudience(audiences ...string) Option {
	return func(v *Validator) error {
		if len(audiences) == 0 {
			return errors.New("audiences cannot be empty")
		}
		for i, aud := range audiences {
			if aud == "" {
				return fmt.Errorf("audience at index %d cannot be empty", i)
			}
		}
		v.audience = audiences
		return nil
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		v.now = now
		return nil
	}
}
