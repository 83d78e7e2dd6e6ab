package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YeyeJames/jiale15/internal/backup"
	"github.com/YeyeJames/jiale15/internal/catalog"
	"github.com/YeyeJames/jiale15/internal/iam"
	"github.com/YeyeJames/jiale15/internal/reporting"
	"github.com/YeyeJames/jiale15/internal/scheduling"
	"github.com/YeyeJames/jiale15/internal/server"
	"github.com/YeyeJames/jiale15/internal/store"
	"github.com/YeyeJames/jiale15/pkg/config"
	"github.com/YeyeJames/jiale15/pkg/logger"
	"github.com/YeyeJames/jiale15/pkg/monitoring"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a config file (default: search ./config.yaml, ./config, /etc/jiale)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.WithFields(map[string]interface{}{
		"version": version,
		"driver":  cfg.Storage.Driver,
	}).Info("Starting Scheduling Service")

	ctx := context.Background()

	metrics := monitoring.NewMetricsCollector(cfg.Monitoring.ServiceName)
	tracing, err := monitoring.NewTracingManager(&monitoring.TracingConfig{
		ServiceName:    cfg.Monitoring.ServiceName,
		ServiceVersion: version,
		JaegerEndpoint: cfg.Monitoring.JaegerEndpoint,
		SamplingRate:   cfg.Monitoring.SamplingRate,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize tracing")
	}

	// Open the slot store
	persistence, db, err := store.NewPersistence(ctx, &cfg.Storage, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open storage")
	}

	st, err := store.Open(ctx, persistence, store.DefaultSeed(), log,
		store.WithMetrics(metrics),
		store.WithTracing(tracing),
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to load clinic data")
	}
	defer st.Close()

	health := monitoring.NewHealthManager(cfg.Monitoring.ServiceName, version)
	health.SetTimeout(5 * time.Second)
	health.RegisterChecker("store", monitoring.NewSnapshotHealthChecker(st.Counts))
	health.RegisterChecker("persistence", monitoring.NewPingHealthChecker(st.Health))
	if db != nil {
		health.RegisterChecker("database", monitoring.NewDatabaseHealthChecker(db.DB))
	}

	srv := server.New(cfg, server.Services{
		IAM:        iam.NewService(st, cfg.Auth, log, metrics),
		Catalog:    catalog.New(st, log),
		Scheduling: scheduling.New(st, log, metrics),
		Reporting:  reporting.New(st, cfg.Report, log, metrics),
		Backup:     backup.New(st, log, metrics),
	}, log, metrics, tracing, health)

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.WithError(err).Fatal("HTTP server stopped")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down Scheduling Service")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to shutdown server gracefully")
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Failed to flush traces")
	}

	log.Info("Scheduling Service stopped")
}
