package jwks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/go-passage/passage/transport"
)

// DefaultAuthURL is the base of Passage's authentication endpoints.
const DefaultAuthURL = "https://auth.passage.id/v1/apps/"

const (
	defaultFetchTimeout = 10 * time.Second
	defaultMissRate     = 10
	defaultMissBurst    = 10
	refreshGroupKey     = "jwks"
)

// ErrKeyNotFound is returned by Key when no key with the requested id can be
// produced. It covers unknown ids, rate-limited misses and failed fetches; the
// wrapped error (if any) carries the reason.
var ErrKeyNotFound = errors.New("jwks: key not found")

// ErrRateLimited is wrapped into ErrKeyNotFound when a cache miss was not
// allowed to trigger a refresh.
var ErrRateLimited = errors.New("jwks: miss refresh rate limit exceeded")

// Logger is the logging interface used by the cache. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics receives cache counters.
type Metrics interface {
	IncCounter(name string, tags map[string]string)
}

// Metric names emitted by the cache.
const (
	MetricFetchTotal  = "passage_jwks_fetch_total"
	MetricMissLimited = "passage_jwks_miss_limited_total"
	MetricStoreHit    = "passage_jwks_store_hit_total"
)

// Document is one fetched key set. It is never mutated after creation; the
// cache replaces it as a whole on refresh.
type Document struct {
	Keys      jwk.Set
	FetchedAt time.Time
	// ExpiresAt is zero when no expiry is configured.
	ExpiresAt time.Time
}

// Expired reports whether the document is past its expiry at now.
func (d *Document) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && now.After(d.ExpiresAt)
}

// Lookup returns the key with the given id.
func (d *Document) Lookup(kid string) (jwk.Key, bool) {
	if d == nil || d.Keys == nil {
		return nil, false
	}
	return d.Keys.LookupKeyID(kid)
}

// refreshReason says why a refresh was started.
type refreshReason string

const (
	reasonEmpty   refreshReason = "empty"
	reasonExpired refreshReason = "expired"
	reasonMiss    refreshReason = "miss"
	reasonManual  refreshReason = "manual"
)

// Cache fetches a JWKS document from a remote URL and keeps it in memory.
//
// Lookups that miss an otherwise valid document trigger a refresh, but only
// as often as the miss limiter allows. At most one refresh runs at a time;
// concurrent callers wait for it (or for their own context to end).
type Cache struct {
	url          string
	doer         transport.Doer
	expiry       time.Duration
	fetchTimeout time.Duration
	limiter      *rate.Limiter
	store        Store
	storeTTL     time.Duration
	logger       Logger
	metrics      Metrics
	now          func() time.Time

	doc   atomic.Pointer[Document]
	group singleflight.Group
}

// URLForApp returns the JWKS URL of a Passage application. An empty authURL
// selects DefaultAuthURL.
func URLForApp(authURL, appID string) string {
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	return strings.TrimRight(authURL, "/") + "/" + url.PathEscape(appID) + "/.well-known/jwks.json"
}

// New builds a Cache for the JWKS published at jwksURL, which must be https.
//
// Example:
//
//	cache, err := jwks.New(
//	    jwks.URLForApp("", appID),
//	    jwks.WithExpiry(time.Hour),
//	    jwks.WithLogger(slog.Default()),
//	)
func New(jwksURL string, opts ...Option) (*Cache, error) {
	if jwksURL == "" {
		return nil, errors.New("jwks URL is required")
	}
	u, err := url.Parse(jwksURL)
	if err != nil {
		return nil, fmt.Errorf("invalid jwks URL: %w", err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("jwks URL must be an absolute https URL, got %q", jwksURL)
	}

	c := &Cache{
		url:          jwksURL,
		fetchTimeout: defaultFetchTimeout,
		limiter:      rate.NewLimiter(rate.Limit(defaultMissRate), defaultMissBurst),
		storeTTL:     15 * time.Minute,
		now:          time.Now,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if c.doer == nil {
		c.doer = transport.NewHTTPDoer(nil)
	}

	return c, nil
}

// URL returns the JWKS URL the cache reads from.
func (c *Cache) URL() string {
	return c.url
}

// Current returns the cached document, or nil before the first successful load.
func (c *Cache) Current() *Document {
	return c.doc.Load()
}

// Key returns the key with id kid, refreshing the document when it is empty,
// expired or does not contain kid. Any failure yields an error that matches
// ErrKeyNotFound.
func (c *Cache) Key(ctx context.Context, kid string) (jwk.Key, error) {
	if kid == "" {
		return nil, ErrKeyNotFound
	}

	now := c.now()
	doc := c.doc.Load()

	reason := reasonEmpty
	if doc != nil {
		if doc.Expired(now) {
			reason = reasonExpired
		} else {
			if key, ok := doc.Lookup(kid); ok {
				return key, nil
			}
			reason = reasonMiss
		}
	}

	if reason == reasonMiss && c.limiter != nil && !c.limiter.AllowN(now, 1) {
		c.incCounter(MetricMissLimited, nil)
		if c.logger != nil {
			c.logger.Warn("jwks miss refresh rate limited", "kid", kid)
		}
		return nil, fmt.Errorf("%w: %w", ErrKeyNotFound, ErrRateLimited)
	}

	fresh, err := c.refresh(ctx, reason, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyNotFound, err)
	}

	if key, ok := fresh.Lookup(kid); ok {
		return key, nil
	}

	if c.logger != nil {
		c.logger.Debug("kid not present after refresh", "kid", kid)
	}
	return nil, ErrKeyNotFound
}

// Refresh loads the document unconditionally, e.g. to warm the cache at startup.
// It is not subject to the miss rate limit.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err := c.refresh(ctx, reasonManual, nil)
	return err
}

// refresh loads a new document. seen is the document the caller looked at; if
// another refresh has replaced it with a usable one in the meantime, that one
// is returned without fetching.
func (c *Cache) refresh(ctx context.Context, reason refreshReason, seen *Document) (*Document, error) {
	ch := c.group.DoChan(refreshGroupKey, func() (any, error) {
		if reason != reasonManual {
			if cur := c.doc.Load(); cur != nil && cur != seen && !cur.Expired(c.now()) {
				return cur, nil
			}
		}

		// The fetch is shared by every waiter, so it must not die with the
		// context of whichever caller happened to start it.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return c.load(fetchCtx, reason)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Document), nil
	}
}

func (c *Cache) load(ctx context.Context, reason refreshReason) (*Document, error) {
	now := c.now()

	// A miss means the shared copy is probably as old as ours, so go to the
	// network. Everything else may be served by a fresh shared copy.
	if c.store != nil && reason != reasonMiss {
		if doc, ok := c.loadFromStore(ctx, now); ok {
			c.doc.Store(doc)
			return doc, nil
		}
	}

	raw, doc, err := c.fetch(ctx, now)
	if err != nil {
		c.incCounter(MetricFetchTotal, map[string]string{"result": "error"})
		if c.logger != nil {
			c.logger.Error("jwks fetch failed", "url", c.url, "reason", string(reason), "error", err)
		}
		return nil, err
	}
	c.incCounter(MetricFetchTotal, map[string]string{"result": "success"})
	c.doc.Store(doc)

	if c.logger != nil {
		c.logger.Debug("jwks refreshed", "url", c.url, "reason", string(reason), "keys", doc.Keys.Len())
	}

	if c.store != nil {
		if err := c.store.Save(ctx, c.url, raw, doc.FetchedAt); err != nil && c.logger != nil {
			c.logger.Warn("failed to save jwks to store", "error", err)
		}
	}

	return doc, nil
}

func (c *Cache) loadFromStore(ctx context.Context, now time.Time) (*Document, bool) {
	raw, fetchedAt, err := c.store.Load(ctx, c.url)
	if err != nil {
		if !errors.Is(err, ErrStoreMiss) && c.logger != nil {
			c.logger.Warn("failed to load jwks from store", "error", err)
		}
		return nil, false
	}
	if c.storeTTL > 0 && now.Sub(fetchedAt) > c.storeTTL {
		return nil, false
	}

	set, err := jwk.Parse(raw)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("discarding unparsable jwks from store", "error", err)
		}
		return nil, false
	}

	doc := &Document{Keys: set, FetchedAt: fetchedAt}
	if c.expiry > 0 {
		doc.ExpiresAt = fetchedAt.Add(c.expiry)
		if doc.Expired(now) {
			return nil, false
		}
	}

	c.incCounter(MetricStoreHit, nil)
	return doc, true
}

func (c *Cache) fetch(ctx context.Context, now time.Time) ([]byte, *Document, error) {
	resp, err := transport.Fetch(ctx, c.doer, c.url, http.Header{"Accept": []string{"application/json"}})
	if err != nil {
		return nil, nil, fmt.Errorf("could not fetch JWKS: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("could not fetch JWKS: request returned status %d, expected 200", resp.StatusCode)
	}

	set, err := jwk.Parse(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}

	doc := &Document{Keys: set, FetchedAt: now}
	if c.expiry > 0 {
		ttl := c.expiry
		if maxAge := parseCacheControl(resp.Header.Get("Cache-Control")); maxAge > ttl {
			ttl = maxAge
		}
		doc.ExpiresAt = now.Add(ttl)
	}

	return resp.Body, doc, nil
}

func (c *Cache) incCounter(name string, tags map[string]string) {
	if c.metrics != nil {
		c.metrics.IncCounter(name, tags)
	}
}

// parseCacheControl extracts max-age from a Cache-Control header.
// Values outside 1s..7d are ignored.
func parseCacheControl(cacheControl string) time.Duration {
	const (
		maxAgePrefix = "max-age="
		minTTL       = time.Second
		maxTTL       = 7 * 24 * time.Hour
	)

	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if !strings.HasPrefix(directive, maxAgePrefix) {
			continue
		}
		seconds, err := strconv.ParseInt(strings.TrimPrefix(directive, maxAgePrefix), 10, 64)
		if err != nil || seconds <= 0 {
			continue
		}
		ttl := time.Duration(seconds) * time.Second
		if ttl < minTTL || ttl > maxTTL {
			return 0
		}
		return ttl
	}

	return 0
}
