package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/wishlify/wishlify-backend/api/routes"
	"github.com/wishlify/wishlify-backend/internal/clicks"
	"github.com/wishlify/wishlify-backend/internal/outbound"
	"github.com/wishlify/wishlify-backend/internal/wishlist"
	"github.com/wishlify/wishlify-backend/pkg/config"
	"github.com/wishlify/wishlify-backend/pkg/db"
	"github.com/wishlify/wishlify-backend/pkg/logger"
	"github.com/wishlify/wishlify-backend/pkg/metrics"
	"github.com/wishlify/wishlify-backend/pkg/migrate"
	"github.com/wishlify/wishlify-backend/pkg/outbox"
	"github.com/wishlify/wishlify-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	outboundMetrics := metrics.NewOutboundMetrics(registry)

	var lookup outbound.WishLookup = wishlist.NewRepository(dbClient.DB())
	var redisPinger redis.Pinger
	if cfg.Redis.Enabled() {
		redisClient, rerr := redis.New(bootCtx, cfg.Redis, logg)
		if rerr != nil {
			return fmt.Errorf("bootstrap redis: %w", rerr)
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		lookup = wishlist.NewCachedLookup(lookup, redisClient, cfg.Outbound.LookupCacheTTL, logg)
		redisPinger = redisClient
	}

	rules, err := outbound.DefaultRules(cfg.Outbound)
	if err != nil {
		return fmt.Errorf("affiliate rules: %w", err)
	}
	resolver := outbound.NewResolver(lookup, rules, outbound.TrackingPolicyFromConfig(cfg.Outbound), outbound.ResolverOptions{
		SiteRoot:      cfg.Outbound.SiteRoot,
		LookupTimeout: cfg.Outbound.LookupTimeout,
		Logger:        logg,
		Metrics:       outboundMetrics,
	})

	var emitter clicks.EventEmitter
	if cfg.FeatureFlags.ExportClickAnalytics {
		emitter = outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	}
	recorder := outbound.NewRecorder(clicks.NewRepository(dbClient, emitter), outbound.RecorderOptions{
		QueueSize:    cfg.Outbound.ClickQueueSize,
		Workers:      cfg.Outbound.ClickWorkers,
		WriteTimeout: cfg.Outbound.ClickWriteTimeout,
		Logger:       logg,
		Metrics:      outboundMetrics,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, outbound.NewService(resolver, recorder), resolver, dbClient, redisPinger, registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":             cfg.App.Env,
		"addr":            addr,
		"instance":        id,
		"click_analytics": cfg.FeatureFlags.ExportClickAnalytics,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(ctx, "api server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Stop taking requests first so no click is enqueued after the drain starts.
		serr := server.Shutdown(shutdownCtx)
		return multierr.Append(serr, recorder.Shutdown(shutdownCtx))
	})

	return g.Wait()
}
