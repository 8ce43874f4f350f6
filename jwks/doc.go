/*
Package jwks fetches and caches the JSON Web Key Set a Passage application
publishes, for use when verifying its signed tokens.

# Overview

A Cache holds one immutable Document (the parsed key set plus its fetch and
expiry times) and swaps it atomically when it refreshes. Lookups never see a
half-built document.

A refresh is started when:
  - nothing has been loaded yet
  - the document has expired (only when WithExpiry is set)
  - the requested key id is not in the document

The last case is the one an attacker controls: every forged token can carry a
new kid. Those refreshes go through a token bucket limiter (10 per second by
default). When it is exhausted the lookup fails immediately with
ErrKeyNotFound and no request is made.

Only one refresh is ever in flight. Concurrent callers share its result, and
each caller stops waiting when its own context ends. The fetch itself runs
under WithFetchTimeout regardless of which caller started it.

A failed fetch leaves the previous document in place and fails the lookup
that triggered it.

# Basic Usage

	cache, err := jwks.New(
	    jwks.URLForApp("", "my-app-id"),
	    jwks.WithExpiry(time.Hour),
	)
	if err != nil {
	    log.Fatal(err)
	}

	key, err := cache.Key(ctx, kid)
	if errors.Is(err, jwks.ErrKeyNotFound) {
	    // reject the token
	}

# Sharing Between Instances

WithStore adds a second tier consulted before the network on initial and
expiry-driven loads, so a fleet of instances does not all hit the provider
at once. RedisStore implements it on top of go-redis:

	store, err := jwks.NewRedisStoreFromURL("redis://localhost:6379/0")
	if err != nil {
	    log.Fatal(err)
	}

	cache, err := jwks.New(url, jwks.WithStore(store))

Misses always go to the network, and the fetched document is written back.
*/
package jwks
