package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/deal-scorer/internal/api/handlers"
	"github.com/donaldgifford/deal-scorer/internal/api/middleware"
	"github.com/donaldgifford/deal-scorer/internal/config"
	"github.com/donaldgifford/deal-scorer/internal/engine"
	"github.com/donaldgifford/deal-scorer/internal/tracing"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and rescoring scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("flushing traces", "error", err)
		}
	}()

	_, shutdownMetrics, err := tracing.SetupMetrics(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("setting up OTLP metrics: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(sctx); err != nil {
			log.Warn("flushing metrics", "error", err)
		}
	}()

	c, err := buildComponents(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.close(log)

	if err := c.store.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	var sched *engine.Scheduler
	if !cfg.Schedule.Disabled {
		sched, err = engine.NewScheduler(c.engine, c.store,
			cfg.Schedule.RescoreInterval,
			max(cfg.Schedule.FullRescoreInterval, 0),
			log.With("component", "scheduler"),
		)
		if err != nil {
			return fmt.Errorf("creating scheduler: %w", err)
		}
		sched.Start(ctx)
	}

	e := newServer(cfg, c, tp, log)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", srv.Addr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		select {
		case <-sched.Stop().Done():
		case <-shutdownCtx.Done():
			log.Warn("scheduler jobs still running at shutdown")
		}
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// newServer builds the Echo instance with middleware, probes, metrics and
// the Huma API routes.
func newServer(cfg *config.Config, c *components, tp trace.TracerProvider, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(
		middleware.Recovery(log),
		middleware.RequestLog(log),
		middleware.Metrics(),
		middleware.Tracing(tp),
	)

	deps := []handlers.Pinger{c.store}
	if c.redis != nil {
		deps = append(deps, handlers.PingFunc(func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		}))
	}
	health := handlers.NewHealthHandler(deps...)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("Deal Scorer API", Version))
	registerRoutes(api, c)

	log.Debug("routes registered", "routes", len(e.Routes()), "redis", cfg.Redis.Enabled)
	return e
}

func registerRoutes(api huma.API, c *components) {
	handlers.RegisterListingRoutes(api, handlers.NewListingsHandler(c.store, c.engine))
	handlers.RegisterScoreRoutes(api, handlers.NewScoreHandler(c.engine))
	handlers.RegisterRescoreRoutes(api, handlers.NewRescoreHandler(c.engine))
	handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(c.store))

	// A typed nil *RedisMarketPrices must not reach the handler as a non-nil
	// interface.
	var shared handlers.SharedCache
	if c.shared != nil {
		shared = c.shared
	}
	handlers.RegisterMarketPriceRoutes(api, handlers.NewMarketPricesHandler(c.prices, shared))
}
