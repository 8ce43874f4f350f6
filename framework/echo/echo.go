// Package passageecho adapts the passage middleware to echo.
package passageecho

import (
	"github.com/labstack/echo/v4"

	"github.com/go-passage/passage"
	"github.com/go-passage/passage/core"
)

// Keys under which the result is stored in the echo context.
const (
	DefaultUserIDKey = "passage_user_id"
	DefaultClaimsKey = "passage_claims"
)

type config struct {
	// errorHandler is nil unless WithErrorHandler is used; failures then go
	// through the Middleware's own ErrorHandler.
	errorHandler func(echo.Context, error) error
	userIDKey    string
	claimsKey    string
}

// New returns an echo middleware that authenticates every request with mw.
// Failures are answered by mw.HandleError unless WithErrorHandler is used.
func New(mw *passage.Middleware, opts ...Option) echo.MiddlewareFunc {
	cfg := &config{
		userIDKey: DefaultUserIDKey,
		claimsKey: DefaultClaimsKey,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			if mw.Skip(r) {
				mw.RecordSkip(r)
				return next(c)
			}

			userID, claims, err := mw.AuthenticateRequest(r)
			if err != nil {
				if cfg.errorHandler != nil {
					return cfg.errorHandler(c, err)
				}
				mw.HandleError(c.Response(), r, err)
				return nil
			}

			c.Set(cfg.userIDKey, userID)
			c.Set(cfg.claimsKey, claims)
			ctx := core.SetClaims(core.SetUserID(r.Context(), userID), claims)
			c.SetRequest(r.WithContext(ctx))

			return next(c)
		}
	}
}

// GetUserID returns the UserID stored by the middleware under the default key.
func GetUserID(c echo.Context) (core.UserID, bool) {
	userID, ok := c.Get(DefaultUserIDKey).(core.UserID)
	return userID, ok
}
