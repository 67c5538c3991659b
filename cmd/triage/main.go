package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Meridian-Contracting/Triage/internal/analytics"
	"github.com/Meridian-Contracting/Triage/internal/api"
	"github.com/Meridian-Contracting/Triage/internal/config"
	"github.com/Meridian-Contracting/Triage/internal/engine"
	"github.com/Meridian-Contracting/Triage/internal/enrich"
	"github.com/Meridian-Contracting/Triage/internal/events"
	"github.com/Meridian-Contracting/Triage/internal/opportunity"
	"github.com/Meridian-Contracting/Triage/internal/scheduler"
	"github.com/Meridian-Contracting/Triage/internal/spending"
	"github.com/Meridian-Contracting/Triage/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := engine.WeightsFromConfig(cfg.Engine.Weights).Validate(); err != nil {
		logger.Error("invalid factor weights", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Events (optional)
	var eventsClient events.Client
	if cfg.Events.URL != "" {
		ec, err := events.NewNATSClient(ctx, cfg.Events.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to event bus, running without events", "error", err)
		} else {
			eventsClient = ec
			defer ec.Close()
			logger.Info("connected to event bus")
		}
	}

	// Collaborator clients
	oppsClient := opportunity.NewHTTPClient(cfg.Opportunity.URL, cfg.Opportunity.APIKey)
	spendClient := spending.NewHTTPClient(cfg.Spending.URL)

	// Enrichment chain
	providers := make([]enrich.Provider, 0, len(cfg.Enrichment.Providers))
	for _, p := range cfg.Enrichment.Providers {
		providers = append(providers, enrich.NewHTTPProvider(p.Name, p.URL, p.APIKey, p.Model))
	}
	chain := enrich.NewChain(providers, cfg.EnrichmentTimeout(), logger)

	// Engine
	eng, err := engine.New(db, oppsClient, spendClient, chain, eventsClient, cfg.Engine, logger)
	if err != nil {
		logger.Error("failed to build engine", "error", err)
		os.Exit(1)
	}

	// Scheduler
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(eng, oppsClient, cfg.Scheduler, logger)
		if err := sched.Start(); err != nil {
			logger.Error("failed to start scheduler", "error", err)
			os.Exit(1)
		}
		defer sched.Stop()
	}

	// Analytics
	agg := analytics.NewAggregator(db, logger)

	// API server
	router := api.NewRouter(db, eng, agg, cfg.Server.AdminToken, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}
