package jwks

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/go-passage/passage/transport"
)

// Option is how options for the Cache are set up.
type Option func(*Cache) error

// WithDoer sets the transport used to fetch the JWKS. Each fetch is bounded
// by WithFetchTimeout whichever Doer is used.
// If not specified, a transport.HTTPDoer is used.
func WithDoer(doer transport.Doer) Option {
	return func(c *Cache) error {
		if doer == nil {
			return errors.New("doer cannot be nil")
		}
		c.doer = doer
		return nil
	}
}

// WithHTTPClient is a shortcut for WithDoer(transport.NewHTTPDoer(client)).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) error {
		if client == nil {
			return errors.New("HTTP client cannot be nil")
		}
		c.doer = transport.NewHTTPDoer(client)
		return nil
	}
}

// WithExpiry makes cached documents expire after ttl. A Cache-Control max-age
// longer than ttl on the JWKS response extends it.
//
// Default: no expiry; the document is only refreshed on unknown key ids.
func WithExpiry(ttl time.Duration) Option {
	return func(c *Cache) error {
		if ttl < 0 {
			return errors.New("expiry cannot be negative")
		}
		c.expiry = ttl
		return nil
	}
}

// WithFetchTimeout bounds every outbound JWKS fetch.
//
// Default: 10 seconds.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(c *Cache) error {
		if timeout <= 0 {
			return errors.New("fetch timeout must be positive")
		}
		c.fetchTimeout = timeout
		return nil
	}
}

// WithMissRateLimit sets how many refreshes per second unknown key ids may
// trigger, with the given burst.
//
// Default: 10 per second, burst 10.
func WithMissRateLimit(perSecond float64, burst int) Option {
	return func(c *Cache) error {
		if perSecond <= 0 {
			return fmt.Errorf("miss rate limit must be positive, got %v", perSecond)
		}
		if burst < 1 {
			return fmt.Errorf("miss rate burst must be at least 1, got %d", burst)
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}

// WithoutMissRateLimit lets every miss trigger a refresh. Concurrent misses
// still share a single fetch. Intended for tests.
func WithoutMissRateLimit() Option {
	return func(c *Cache) error {
		c.limiter = nil
		return nil
	}
}

// WithStore adds a shared second tier, e.g. a RedisStore, consulted before
// the network on initial and expiry-driven loads.
func WithStore(store Store) Option {
	return func(c *Cache) error {
		if store == nil {
			return errors.New("store cannot be nil")
		}
		c.store = store
		return nil
	}
}

// WithStoreTTL sets how old a stored document may be before it is ignored.
//
// Default: 15 minutes. Zero accepts any age.
func WithStoreTTL(ttl time.Duration) Option {
	return func(c *Cache) error {
		if ttl < 0 {
			return errors.New("store TTL cannot be negative")
		}
		c.storeTTL = ttl
		return nil
	}
}

// WithLogger sets an optional logger for the cache.
func WithLogger(logger Logger) Option {
	return func(c *Cache) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics sets an optional metrics sink for the cache.
func WithMetrics(metrics Metrics) Option {
	return func(c *Cache) error {
		if metrics == nil {
			return errors.New("metrics cannot be nil")
		}
		c.metrics = metrics
		return nil
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		c.now = now
		return nil
	}
}
