package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/go-passage/passage"
	"github.com/go-passage/passage/config"
	passagegin "github.com/go-passage/passage/framework/gin"
	"github.com/go-passage/passage/identity"
	"github.com/go-passage/passage/internal/oidc"
	"github.com/go-passage/passage/jwks"
	"github.com/go-passage/passage/transport"
	"github.com/go-passage/passage/validator"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server", "start"},
		Short:   "Start the HTTP server",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var paths []string
			if *configPath != "" {
				paths = append(paths, *configPath)
			}
			cfg, err := config.Load(paths...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func newLogger(level string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// app holds everything the HTTP handlers need.
type app struct {
	mw       *passage.Middleware
	users    userGetter
	gatherer prometheus.Gatherer
	logger   logrus.FieldLogger
}

type userGetter interface {
	GetUser(ctx context.Context, userID string) (*identity.User, error)
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := passage.NewLogrusLogger(logger)
	logger.WithField("config", cfg.String()).Info("loaded config")

	strategy, err := cfg.Strategy()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := passage.NewPrometheusMetrics(registry)

	cacheOpts := []jwks.Option{
		jwks.WithFetchTimeout(cfg.FetchTimeout),
		jwks.WithMissRateLimit(cfg.MissRateLimit, cfg.MissRateBurst),
		jwks.WithLogger(log),
		jwks.WithMetrics(metrics),
	}
	if cfg.JWKSExpiry > 0 {
		cacheOpts = append(cacheOpts, jwks.WithExpiry(cfg.JWKSExpiry))
	}
	if cfg.RedisURL != "" {
		store, err := jwks.NewRedisStoreFromURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer store.Close()
		cacheOpts = append(cacheOpts, jwks.WithStore(store))
	}

	jwksURL, err := resolveJWKSURL(ctx, cfg)
	if err != nil {
		return err
	}
	cache, err := jwks.New(jwksURL, cacheOpts...)
	if err != nil {
		return fmt.Errorf("failed to set up the JWKS cache: %w", err)
	}
	if err := cache.Refresh(ctx); err != nil {
		// Keys are fetched again on the first request.
		logger.WithError(err).Warn("initial JWKS fetch failed")
	}

	tokenValidator, err := validator.New(validator.WithKeySource(cache))
	if err != nil {
		return fmt.Errorf("failed to set up the token validator: %w", err)
	}

	mw, err := passage.New(
		passage.WithValidator(tokenValidator),
		passage.WithAuthStrategy(strategy),
		passage.WithExclusionURLs("/healthz", "/metrics"),
		passage.WithLogger(log),
		passage.WithMetrics(metrics),
		passage.WithTracer(passage.NewOpenTelemetryTracer(otel.Tracer("passage"))),
	)
	if err != nil {
		return fmt.Errorf("failed to set up the middleware: %w", err)
	}

	users, err := identity.New(cfg.AppID, cfg.APIKey,
		identity.WithBaseURL(cfg.APIURL),
		identity.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("failed to set up the identity client: %w", err)
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := newRouter(&app{mw: mw, users: users, gatherer: registry, logger: logger})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":     cfg.ListenAddr,
			"strategy": strategy.String(),
			"jwks_url": cache.URL(),
		}).Info("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// resolveJWKSURL returns the application's JWKS URL, or the one published by
// the configured discovery document.
func resolveJWKSURL(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.DiscoveryURL == "" {
		return jwks.URLForApp(cfg.AuthURL, cfg.AppID), nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()
	uri, err := oidc.DiscoverJWKSURI(ctx, transport.NewHTTPDoer(nil), cfg.DiscoveryURL)
	if err != nil {
		return "", fmt.Errorf("failed to discover the JWKS URL: %w", err)
	}
	return uri, nil
}

func newRouter(a *app) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), passagegin.New(a.mw))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})))
	router.GET("/me", a.me)

	return router
}

func (a *app) me(c *gin.Context) {
	userID, err := passagegin.GetUserID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, passage.ErrorResponse{Error: true, Message: err.Error()})
		return
	}

	user, err := a.users.GetUser(c.Request.Context(), userID.String())
	if err != nil {
		a.logger.WithError(err).WithField("user_id", userID.String()).Warn("failed to fetch user")

		status := http.StatusBadGateway
		var apiErr *identity.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			status = http.StatusNotFound
		}
		c.AbortWithStatusJSON(status, passage.ErrorResponse{Error: true, Message: identity.ErrFailedToRetrieveUser.Error()})
		return
	}

	c.JSON(http.StatusOK, user)
}
