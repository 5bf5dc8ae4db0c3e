package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/worldstate-engine/internal/app"
	"github.com/jwebster45206/worldstate-engine/internal/config"
	"github.com/jwebster45206/worldstate-engine/internal/logger"
	"github.com/jwebster45206/worldstate-engine/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting World State Worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL,
		"store", cfg.StoreBackend,
		"events", cfg.EventsBackend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, startCancel := context.WithTimeout(ctx, 2*time.Minute)
	defer startCancel()

	a, err := app.New(startCtx, cfg, log)
	if err != nil {
		log.Error("Failed to initialise", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("Error closing connections", "error", err)
		}
	}()

	if err := a.Store.Ping(startCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	if err := a.Redis().Ping(startCtx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Redis connection established successfully")

	processor := worker.NewSignalProcessor(a.Store, a.Extractor, a.Validator, a.Publisher, log)
	w := worker.New(a.Queue(), processor, a.Redis(), log, os.Getenv("WORKER_ID"))

	log.Info("Worker started, waiting for requests...", "worker_id", w.ID())
	if err := w.Run(ctx); err != nil {
		log.Error("Worker error", "error", err)
	}
	log.Info("Worker exited")
}
