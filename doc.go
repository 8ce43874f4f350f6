/*
Package passage authenticates HTTP requests against Passage, the passkey
identity provider, and binds the authenticated user to the request context.

A request carries a Passage auth token either in the psg_auth_token cookie
(StrategyCookie, the default) or in an "Authorization: <scheme> <token>"
header (StrategyHeader). The token is a JWT signed with one of the keys
published at the application's JWKS URL:

	https://auth.passage.id/v1/apps/<app id>/.well-known/jwks.json

# Quick Start

	import (
	    "github.com/go-passage/passage"
	    "github.com/go-passage/passage/jwks"
	    "github.com/go-passage/passage/validator"
	)

	func main() {
	    cache, err := jwks.New(jwks.URLForApp("", appID), jwks.WithExpiry(time.Hour))
	    if err != nil {
	        log.Fatal(err)
	    }

	    v, err := validator.New(validator.WithKeySource(cache))
	    if err != nil {
	        log.Fatal(err)
	    }

	    mw, err := passage.New(
	        passage.WithValidator(v),
	        passage.WithAuthStrategy(passage.StrategyHeader),
	    )
	    if err != nil {
	        log.Fatal(err)
	    }

	    http.Handle("/api/", mw.HandlerFunc(apiHandler))
	    http.ListenAndServe(":8080", nil)
	}

	func apiHandler(w http.ResponseWriter, r *http.Request) {
	    userID := passage.MustGetUserID(r.Context())
	    fmt.Fprintf(w, "hello %s", userID)
	}

# Failures

A request that fails authentication never reaches the wrapped handler. The
DefaultErrorHandler answers 401 with

	{"error":true,"message":"Auth token is invalid."}

where the message is one of:

  - "Auth token is invalid." for every verification failure
  - "Header authorization not found." (StrategyHeader, no header)
  - "Authorization header is malformed." (StrategyHeader, not "<scheme> <token>")
  - "Could not find authentication cookie \"psg_auth_token\"." (StrategyCookie)

There is no fallback from one strategy to the other.

# Logging, Metrics and Tracing

Logger matches log/slog; NewLogrusLogger, NewZapLogger and NewZerologLogger
adapt the other common loggers. PrometheusMetrics records
passage_auth_requests_total{result} and passage_auth_duration_seconds, and
OpenTelemetryTracer wraps each authentication in a "passage.authenticate"
span.

# Frameworks

The framework/gin, framework/echo and framework/grpc packages apply the same
contract to those stacks.
*/
package passage
