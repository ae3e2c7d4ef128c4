// Package main provides the entry point for the LinkPulse tracking service.
package main

import (
	"LinkPulse-Backend/internal/config"
	"LinkPulse-Backend/internal/database"
	httpHandler "LinkPulse-Backend/internal/handler/http"
	"LinkPulse-Backend/internal/maintenance"
	"LinkPulse-Backend/internal/repository"
	"LinkPulse-Backend/internal/repository/memory"
	"LinkPulse-Backend/internal/repository/postgres"
	"LinkPulse-Backend/internal/service"
	"LinkPulse-Backend/pkg/logger"
	"LinkPulse-Backend/pkg/useragent"
	"context"
	"fmt"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting LinkPulse tracking service",
		zap.String("env", cfg.Env),
		zap.String("storage_backend", cfg.Database.Backend))

	// Initialize storage backend
	var storage repository.Storage
	switch cfg.Database.Backend {
	case "postgres":
		db, err := database.NewConnection(&cfg.Database, log)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		defer func() {
			if err := database.Close(db, log); err != nil {
				log.Error("failed to close database connection", zap.Error(err))
			}
		}()

		if cfg.Database.AutoMigrate {
			if err := database.AutoMigrate(db, log); err != nil {
				log.Fatal("failed to run database migrations", zap.Error(err))
			}
		} else {
			log.Info("skipping database migrations (auto_migrate: false)")
		}

		storage = postgres.New(db, log)
	case "memory":
		storage = memory.New()
	default:
		log.Fatal("unknown storage backend", zap.String("backend", cfg.Database.Backend))
	}

	// Initialize User-Agent parser (best effort, keyword fallback otherwise)
	regexesPath := "assets/regexes.yaml"
	if err := useragent.InitGlobalParser(regexesPath, log); err != nil {
		log.Warn("failed to initialize User-Agent parser, using fallback", zap.Error(err))
	}

	// Initialize tracking service
	tracker := service.NewLinkTracker(storage, &cfg.Tracker, log)

	// Start the expiry reaper
	reaperCtx, reaperCancel := context.WithCancel(context.Background())
	defer reaperCancel()
	reaper := maintenance.NewReaper(storage, cfg.Reaper.Schedule, log)
	if err := reaper.Start(reaperCtx); err != nil {
		log.Fatal("failed to start expiry reaper", zap.Error(err))
	}

	// Create HTTP server
	httpAPIServer := httpHandler.NewServer(storage, tracker, &cfg.Tracker, log)
	httpMux := httpAPIServer.SetupRoutes()

	addr := fmt.Sprintf(":%d", cfg.HTTPServer.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      httpMux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("starting HTTP server", zap.String("address", addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down LinkPulse service...")

	reaperCancel()

	// Gracefully stop HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}
}
