package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicore/schedengine/internal/api"
	"github.com/clinicore/schedengine/internal/app/bootstrap"
	"github.com/clinicore/schedengine/internal/blocks"
	"github.com/clinicore/schedengine/internal/bookings"
	appconfig "github.com/clinicore/schedengine/internal/config"
	"github.com/clinicore/schedengine/internal/exceptions"
	"github.com/clinicore/schedengine/internal/observability/metrics"
	"github.com/clinicore/schedengine/internal/resources"
	"github.com/clinicore/schedengine/internal/rules"
	"github.com/clinicore/schedengine/internal/scheduling"
	"github.com/clinicore/schedengine/internal/series"
	"github.com/clinicore/schedengine/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting schedengine API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	schedulingMetrics := metrics.NewSchedulingMetrics(prometheus.DefaultRegisterer)
	slotCache := bootstrap.BuildSlotCache(ctx, cfg, logger)
	if slotCache != nil {
		logger.Info("slot cache enabled", "ttl", cfg.SlotCacheTTL.String())
	}

	resourceStore := resources.NewStore(pool)
	bookingStore := bookings.NewStore(pool)
	blockStore := blocks.NewStore(pool)
	ruleStore := rules.NewStore(pool)
	exceptionStore := exceptions.NewStore(pool)

	scheduler := scheduling.NewService(
		resourceStore, bookingStore, blockStore,
		logger.WithComponent("scheduling"),
		scheduling.WithSlotCache(slotCache),
		scheduling.WithMetrics(schedulingMetrics),
		scheduling.WithDefaultSlotStep(cfg.DefaultSlotStepMinutes),
	)
	seriesService := series.NewService(
		resourceStore, ruleStore, bookingStore, blockStore, exceptionStore,
		logger.WithComponent("series"),
		series.WithMetrics(schedulingMetrics),
		series.WithDefaultHorizon(cfg.DefaultHorizon),
	)

	handler := api.NewHandler(scheduler, seriesService, resourceStore, logger.WithComponent("api"))
	statsHandler := api.NewStatsHandler(prometheus.DefaultGatherer, logger.WithComponent("api"))
	router := api.NewRouter(&api.RouterConfig{
		Logger:         logger,
		Handler:        handler,
		StatsHandler:   statsHandler,
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
