package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/mohammadpnp/person-registry/internal/bootstrap"
	"github.com/mohammadpnp/person-registry/internal/config"
	"github.com/mohammadpnp/person-registry/internal/infrastructure/db"
	"github.com/mohammadpnp/person-registry/internal/platform/logging"
	"github.com/mohammadpnp/person-registry/internal/platform/metrics"
	"github.com/mohammadpnp/person-registry/internal/platform/tracing"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Setup(os.Stderr, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Options{
		ServiceName: cfg.Trace.ServiceName,
		Endpoint:    cfg.Trace.Endpoint,
		Insecure:    cfg.Trace.Insecure,
		SampleRatio: cfg.Trace.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	gateway, err := db.OpenPostgres(ctx, cfg.Database.URL, db.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime.Std(),
		AcquireTimeout:  cfg.Database.AcquireTimeout.Std(),
		SlowThreshold:   cfg.Database.SlowThreshold.Std(),
		Logger:          logger,
		Observer:        m,
	})
	if err != nil {
		return err
	}
	defer gateway.Close()

	if cfg.Database.EnsureSchema {
		if err := gateway.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	services, err := bootstrap.NewServices(gateway, cfg.Records, logger, m)
	if err != nil {
		return err
	}

	server := bootstrap.NewHTTPServer(bootstrap.ServerDeps{
		Persons:     services.Persons,
		Addresses:   services.Addresses,
		Store:       gateway,
		Gatherer:    registry,
		Logger:      logger,
		ServiceName: cfg.Trace.ServiceName,
		BodyLimit:   cfg.Server.BodyLimit,
		RetryAfter:  cfg.Server.RetryAfter.Std(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening",
			"port", cfg.Server.Port,
			"delete_policy", cfg.Records.DeletePolicy,
		)
		if err := server.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
		defer cancel()
		logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
