package identity

import (
	"errors"
	"net/url"
	"strings"

	"github.com/go-passage/passage/transport"
)

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL overrides the API root. The application ID is appended to it.
//
// Default: https://api.passage.id/v1/apps/
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		u, err := url.Parse(baseURL)
		if err != nil {
			return err
		}
		if u.Scheme == "" || u.Host == "" {
			return errors.New("base URL must be absolute")
		}
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		c.baseURL = baseURL
		return nil
	}
}

// WithDoer sets the transport used for API requests.
func WithDoer(doer transport.Doer) Option {
	return func(c *Client) error {
		if doer == nil {
			return errors.New("doer cannot be nil")
		}
		c.doer = doer
		return nil
	}
}

// WithLogger sets the logger. *slog.Logger satisfies the interface.
func WithLogger(logger Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}
