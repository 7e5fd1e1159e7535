package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrussa/orderbridge/internal/cache"
	"github.com/mrussa/orderbridge/internal/config"
	"github.com/mrussa/orderbridge/internal/db"
	"github.com/mrussa/orderbridge/internal/httpapi"
	"github.com/mrussa/orderbridge/internal/logger"
	"github.com/mrussa/orderbridge/internal/repo"
	"github.com/mrussa/orderbridge/internal/telemetry"
)

const serviceName = "orderbridge-api"

var version = "dev"

func main() {
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Fatalf("[CFG] %v", err)
	}

	zl := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = zl.Sync() }()
	logf := logger.Printf(zl)
	logf("[CFG] http=%s dsn_present=%t cache_warm=%d", cfg.HTTPAddr, cfg.PostgresDSN != "", cfg.CacheWarmLimit)

	startCtx := context.Background()
	shutdownTracer, err := telemetry.InitTracerProvider(startCtx, serviceName, version, cfg.OTLPEndpoint)
	if err != nil {
		zl.Sugar().Fatalf("[OTEL] tracer: %v", err)
	}
	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, version, nil)
	if err != nil {
		zl.Sugar().Fatalf("[OTEL] meter: %v", err)
	}

	pool, err := db.Open(startCtx, cfg.PostgresDSN, logf)
	if err != nil {
		zl.Sugar().Fatalf("[DB] %v", err)
	}
	defer pool.Close()

	rpo := repo.NewRunsRepo(pool)
	c := cache.New(max(cache.DefaultCapacity, cfg.CacheWarmLimit))

	if cfg.CacheWarmLimit > 0 {
		warmCtx, cancel := context.WithTimeout(startCtx, 15*time.Second)
		ok, failed, err := c.Warm(warmCtx, rpo, cfg.CacheWarmLimit)
		cancel()
		if err != nil {
			logf("[CACHE] warm: %v", err)
		}
		logf("[CACHE] warmed: %d ok, %d failed, size=%d", ok, failed, c.Len())
	}

	api := httpapi.New(rpo, c, logf, version, metricsHandler)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logf("[HTTP] listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Sugar().Fatalf("[HTTP] %v", err)
		}
	}()

	<-ctx.Done()
	logf("[HTTP] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logf("[HTTP] shutdown error: %v", err)
	}
	if err := shutdownMeter(shutdownCtx); err != nil {
		logf("[OTEL] meter shutdown: %v", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logf("[OTEL] tracer shutdown: %v", err)
	}
	logf("[HTTP] bye")
}
