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

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/season-simulator/internal/api"
	"github.com/utakatalp/season-simulator/internal/cache"
	"github.com/utakatalp/season-simulator/internal/config"
	"github.com/utakatalp/season-simulator/internal/jobs"
	"github.com/utakatalp/season-simulator/internal/logger"
	"github.com/utakatalp/season-simulator/internal/projection"
	"github.com/utakatalp/season-simulator/internal/simulation"
	"github.com/utakatalp/season-simulator/internal/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	structuredLogger := logger.New(logger.Options{Level: cfg.LogLevel, Development: cfg.IsDevelopment()})
	log := logger.Component(structuredLogger, "server")
	log.WithFields(logrus.Fields{
		"environment": cfg.Env,
		"port":        cfg.Port,
		"season":      cfg.CurrentSeason,
	}).Info("Starting season simulator")

	ctx := context.Background()

	db, err := store.NewStore(ctx, cfg.DatabaseURL, logger.Component(structuredLogger, "store"))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Projections still work without Redis, only uncached.
	var projCache projection.Cache
	if cfg.RedisURL != "" {
		c, err := cache.Connect(ctx, cfg.RedisURL, cache.Config{
			DefaultTTL:       cfg.CacheTTL,
			BreakerThreshold: uint32(cfg.CacheBreakerThreshold),
			BreakerTimeout:   cfg.CacheBreakerTimeout,
		}, structuredLogger)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, running without projection cache")
		} else {
			defer c.Close()
			projCache = c
		}
	}

	sim := simulation.New(
		simulation.WithPlayoffTeams(cfg.PlayoffTeams),
		simulation.WithWorkers(cfg.SimWorkers),
		simulation.WithLogger(logger.Component(structuredLogger, "simulation")),
	)
	svc := projection.NewService(db, projCache, sim, projection.Options{
		DefaultIterations: cfg.SimIterations,
		MaxIterations:     cfg.SimMaxIterations,
		MatchupIterations: cfg.MatchupIterations,
		Timeout:           cfg.SimulationTimeout,
	}, logger.Component(structuredLogger, "projection"))

	if cfg.EnableBackgroundJobs {
		job := jobs.NewRefreshJob(svc, cfg.CurrentSeason, cfg.RefreshSchedule, cfg.SimulationTimeout, structuredLogger)
		if err := job.Start(); err != nil {
			log.Fatalf("Failed to start refresh job: %v", err)
		}
		defer job.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           api.NewRouter(svc, logger.Component(structuredLogger, "api")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	log.Info("Server exited")
}
