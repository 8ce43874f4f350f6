// Package passagegin adapts the passage middleware to gin.
package passagegin

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/go-passage/passage"
	"github.com/go-passage/passage/core"
)

// Keys under which the result is stored in the gin context.
const (
	DefaultUserIDKey = "passage_user_id"
	DefaultClaimsKey = "passage_claims"
)

// ErrMissingUserID is returned by GetUserID when the middleware has not
// authenticated the request.
var ErrMissingUserID = errors.New("no passage user id found in gin context")

type config struct {
	// errorHandler is nil unless WithErrorHandler is used; failures then go
	// through the Middleware's own ErrorHandler.
	errorHandler func(*gin.Context, error)
	userIDKey    string
	claimsKey    string
}

// New returns a gin middleware that authenticates every request with mw.
// On success the UserID is stored both in the gin context and in the
// request context. On failure the chain is aborted after mw.HandleError, or
// the handler given with WithErrorHandler, has answered.
func New(mw *passage.Middleware, opts ...Option) gin.HandlerFunc {
	cfg := &config{
		userIDKey: DefaultUserIDKey,
		claimsKey: DefaultClaimsKey,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		if mw.Skip(c.Request) {
			mw.RecordSkip(c.Request)
			c.Next()
			return
		}

		userID, claims, err := mw.AuthenticateRequest(c.Request)
		if err != nil {
			if cfg.errorHandler != nil {
				cfg.errorHandler(c, err)
			} else {
				mw.HandleError(c.Writer, c.Request, err)
			}
			if !c.IsAborted() {
				c.Abort()
			}
			return
		}

		c.Set(cfg.userIDKey, userID)
		c.Set(cfg.claimsKey, claims)
		ctx := core.SetClaims(core.SetUserID(c.Request.Context(), userID), claims)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetUserID returns the UserID stored by the middleware under the default key.
func GetUserID(c *gin.Context) (core.UserID, error) {
	value, exists := c.Get(DefaultUserIDKey)
	if !exists {
		return "", ErrMissingUserID
	}
	userID, ok := value.(core.UserID)
	if !ok {
		return "", ErrMissingUserID
	}
	return userID, nil
}
