package passage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-passage/passage/core"
)

// Result labels used in metrics and traces.
const (
	resultSuccess = "success"
	resultSkipped = "skipped"
)

// Middleware authenticates requests against Passage and binds the UserID to
// the request context.
type Middleware struct {
	core                *core.Core
	errorHandler        ErrorHandler
	strategy            AuthStrategy
	tokenExtractor      TokenExtractor
	validateOnOptions   bool
	exclusionURLHandler ExclusionURLHandler
	logger              Logger
	metrics             Metrics
	tracer              Tracer

	// Used during construction only.
	validator core.Validator
}

// ExclusionURLHandler reports whether a request skips authentication.
type ExclusionURLHandler func(r *http.Request) bool

// New constructs a Middleware. Either WithValidator or WithCore is required.
//
// Example:
//
//	cache, _ := jwks.New(jwks.URLForApp("", appID))
//	v, _ := validator.New(validator.WithKeySource(cache))
//	mw, err := passage.New(
//	    passage.WithValidator(v),
//	    passage.WithAuthStrategy(passage.StrategyHeader),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
//	http.Handle("/api/", mw.Handler(api))
func New(opts ...Option) (*Middleware, error) {
	m := &Middleware{
		strategy:          StrategyCookie,
		validateOnOptions: true,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if m.core == nil {
		if m.validator == nil {
			return nil, fmt.Errorf("invalid middleware configuration: %w", ErrValidatorNil)
		}
		coreOpts := []core.Option{core.WithValidator(m.validator)}
		if m.logger != nil {
			coreOpts = append(coreOpts, core.WithLogger(m.logger))
		}
		c, err := core.New(coreOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create core: %w", err)
		}
		m.core = c
	}
	m.validator = nil

	if m.errorHandler == nil {
		m.errorHandler = DefaultErrorHandler
	}
	if m.tokenExtractor == nil {
		m.tokenExtractor = ExtractorFor(m.strategy)
	}
	if m.metrics == nil {
		m.metrics = &NoopMetrics{}
	}
	if m.tracer == nil {
		m.tracer = &NoopTracer{}
	}

	return m, nil
}

// Strategy returns the configured auth strategy.
func (m *Middleware) Strategy() AuthStrategy {
	return m.strategy
}

// Authenticate runs extraction and verification for r once.
func (m *Middleware) Authenticate(r *http.Request) (core.UserID, error) {
	userID, _, err := m.AuthenticateRequest(r)
	return userID, err
}

// AuthenticateRequest is Authenticate that also returns the verified claims.
func (m *Middleware) AuthenticateRequest(r *http.Request) (core.UserID, any, error) {
	return m.authenticate(r.Context(), func() (string, error) {
		return m.tokenExtractor(r)
	})
}

// AuthenticateToken runs verification for a token read by source. Framework
// adapters that do not work on *http.Request use it.
func (m *Middleware) AuthenticateToken(ctx context.Context, source core.TokenSource) (core.UserID, any, error) {
	return m.authenticate(ctx, source)
}

func (m *Middleware) authenticate(ctx context.Context, source core.TokenSource) (core.UserID, any, error) {
	ctx, span := m.tracer.StartSpan(ctx, SpanAuthenticate)
	defer span.Finish()

	start := time.Now()
	userID, claims, err := m.core.AuthenticateWithClaims(ctx, source)
	m.metrics.ObserveHistogram(MetricAuthDuration, time.Since(start).Seconds(), nil)

	result := resultSuccess
	if err != nil {
		result = string(core.ReasonOf(err))
		span.RecordError(err)
	}
	span.SetTag("passage.result", result)
	m.metrics.IncCounter(MetricAuthRequests, map[string]string{"result": result})

	return userID, claims, err
}

// Skip reports whether r bypasses authentication.
func (m *Middleware) Skip(r *http.Request) bool {
	if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
		return true
	}
	return !m.validateOnOptions && r.Method == http.MethodOptions
}

// RecordSkip records a request that bypassed authentication. Adapters
// that call Skip themselves use it to keep the request counter complete.
func (m *Middleware) RecordSkip(r *http.Request) {
	if m.logger != nil {
		m.logger.Debug("skipping authentication",
			"method", r.Method,
			"path", r.URL.Path)
	}
	m.metrics.IncCounter(MetricAuthRequests, map[string]string{"result": resultSkipped})
}

// HandleError logs a rejected request and answers it with the configured
// ErrorHandler. Framework adapters call it for their failures too.
func (m *Middleware) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if m.logger != nil {
		m.logger.Warn("request rejected",
			"reason", string(core.ReasonOf(err)),
			"method", r.Method,
			"path", r.URL.Path)
	}
	m.errorHandler(w, r, err)
}

// Handler wraps next so that it only runs for authenticated requests.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Skip(r) {
			m.RecordSkip(r)
			next.ServeHTTP(w, r)
			return
		}

		userID, claims, err := m.AuthenticateRequest(r)
		if err != nil {
			m.HandleError(w, r, err)
			return
		}

		ctx := core.SetUserID(r.Context(), userID)
		ctx = core.SetClaims(ctx, claims)
		next.ServeHTTP(w, r.Clone(ctx))
	})
}

// HandlerFunc is Handler for a plain function.
func (m *Middleware) HandlerFunc(next http.HandlerFunc) http.Handler {
	return m.Handler(next)
}

// GetUserID returns the UserID bound by the middleware.
func GetUserID(ctx context.Context) (core.UserID, error) {
	return core.UserIDFrom(ctx)
}

// MustGetUserID returns the UserID bound by the middleware or panics.
// Use only in handlers that are always behind the middleware.
func MustGetUserID(ctx context.Context) core.UserID {
	return core.MustUserID(ctx)
}

// GetClaims retrieves the verified claims bound by the middleware.
//
// Example:
//
//	claims, err := passage.GetClaims[*validator.VerifiedClaims](r.Context())
//	if err != nil {
//	    http.Error(w, "failed to get claims", http.StatusInternalServerError)
//	    return
//	}
//	fmt.Println(claims.Extra["email"])
func GetClaims[T any](ctx context.Context) (T, error) {
	return core.GetClaims[T](ctx)
}
