package passageecho

import (
	"github.com/labstack/echo/v4"
)

// Option is a function that configures the middleware
type Option func(*config)

// WithErrorHandler replaces the Middleware's ErrorHandler for echo requests.
// The rejection is not logged by the Middleware then. The handler's return
// value is returned from the middleware.
func WithErrorHandler(handler func(echo.Context, error) error) Option {
	return func(cfg *config) {
		cfg.errorHandler = handler
	}
}

// WithContextKeys sets the echo context keys of the UserID and the claims.
func WithContextKeys(userIDKey, claimsKey string) Option {
	return func(cfg *config) {
		cfg.userIDKey = userIDKey
		cfg.claimsKey = claimsKey
	}
}
