package passagegin

import (
	"github.com/gin-gonic/gin"
)

// Option defines a functional option for configuring the middleware
type Option func(*config)

// WithErrorHandler replaces the Middleware's ErrorHandler for gin requests.
// The rejection is not logged by the Middleware then. The chain is aborted
// after handler returns.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(cfg *config) {
		cfg.errorHandler = handler
	}
}

// WithContextKeys sets the gin context keys of the UserID and the claims.
func WithContextKeys(userIDKey, claimsKey string) Option {
	return func(cfg *config) {
		cfg.userIDKey = userIDKey
		cfg.claimsKey = claimsKey
	}
}
