package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/cpi-lookup-service/internal/adapter/bls"
	"github.com/couchcryptid/cpi-lookup-service/internal/adapter/cache"
	httpadapter "github.com/couchcryptid/cpi-lookup-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/cpi-lookup-service/internal/adapter/kafka"
	"github.com/couchcryptid/cpi-lookup-service/internal/config"
	"github.com/couchcryptid/cpi-lookup-service/internal/domain"
	"github.com/couchcryptid/cpi-lookup-service/internal/lookup"
	"github.com/couchcryptid/cpi-lookup-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store   lookup.Store
		closers []func() error
	)
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		rs := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		store = rs
		closers = append(closers, rs.Close)
		logger.Info("redis cache enabled", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	default:
		ms := cache.NewMemoryStore(nil, metrics)
		store = ms
		go ms.Run(ctx, cfg.CacheSweepInterval)
		logger.Info("in-memory cache enabled", "sweep_interval", cfg.CacheSweepInterval)
	}

	opts := lookup.Options{
		SeriesID: cfg.BLSSeriesID,
		TTL:      cfg.CacheTTL,
		Dedup:    cfg.FetchDedup,
	}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		opts.Publisher = writer
		closers = append(closers, writer.Close)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	client := bls.NewClient(cfg.BLSAPIURL, cfg.BLSSeriesID, cfg.BLSTimeout, metrics, logger)
	svc := lookup.New(domain.DefaultCalendar(), store, client, logger, metrics, opts)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, cfg.BLSTimeout, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
