package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mvxid/indexer/internal/api"
	"github.com/mvxid/indexer/internal/cache"
	"github.com/mvxid/indexer/internal/config"
	"github.com/mvxid/indexer/internal/database"
	"github.com/mvxid/indexer/internal/gateway"
	"github.com/mvxid/indexer/internal/ingest"
	"github.com/mvxid/indexer/internal/lock"
	"github.com/mvxid/indexer/internal/logger"
	"github.com/mvxid/indexer/internal/pricewatch"
	"github.com/mvxid/indexer/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	envFile := flag.String("envFile", ".env", "Path to .env file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("No .env file found at %s, using environment variables", *envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		logg.Fatal().Err(err).Msg("Failed to connect to database")
	}

	redisCache, err := cache.NewRedisCache(cfg.RedisURL, logg)
	if err != nil {
		logg.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer redisCache.Close()

	domains, err := store.New(db)
	if err != nil {
		logg.Fatal().Err(err).Msg("Failed to initialize store")
	}

	locker := lock.NewRedisLocker(redisCache.Client(), logg)
	chain := gateway.NewClient(cfg, logg)
	processor := ingest.NewProcessor(domains, redisCache, logg)
	poller := ingest.NewPoller(chain, processor, redisCache, locker, cfg.PollInterval, logg)
	watcher := pricewatch.NewWatcher(chain, redisCache, locker, cfg.PollInterval, logg)

	apiServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewServer(domains, redisCache, logg).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error { return watcher.Run(ctx) })
	group.Go(func() error { return poller.Run(ctx) })

	group.Go(func() error {
		logg.Info().Str("addr", apiServer.Addr).Msg("Starting API server")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logg.Info().Str("addr", metricsServer.Addr).Msg("Starting metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logg.Error().Err(err).Msg("API server shutdown failed")
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logg.Error().Err(err).Msg("Metrics server shutdown failed")
		}
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Fatal().Err(err).Msg("Indexer stopped with error")
	}
	logg.Info().Msg("Indexer stopped")
}
