package passagegrpc

import "errors"

// Option defines a functional option for configuring the interceptor.
type Option func(*Interceptor) error

// WithTokenExtractor replaces the extractor of the middleware's strategy.
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(i *Interceptor) error {
		if extractor == nil {
			return errors.New("token extractor cannot be nil")
		}
		i.tokenExtractor = extractor
		return nil
	}
}

// WithExcludedMethods lists full method names that skip authentication,
// e.g. "/grpc.health.v1.Health/Check".
func WithExcludedMethods(methods ...string) Option {
	return func(i *Interceptor) error {
		if len(methods) == 0 {
			return errors.New("excluded methods cannot be empty")
		}
		methodSet := make(map[string]struct{}, len(methods))
		for _, m := range methods {
			methodSet[m] = struct{}{}
		}
		i.exclusionChecker = func(method string) bool {
			_, ok := methodSet[method]
			return ok
		}
		return nil
	}
}

// WithExclusionChecker allows configuring a custom exclusion checker for gRPC methods.
func WithExclusionChecker(checker func(string) bool) Option {
	return func(i *Interceptor) error {
		if checker == nil {
			return errors.New("exclusion checker cannot be nil")
		}
		i.exclusionChecker = checker
		return nil
	}
}
