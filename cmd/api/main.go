package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/worldstate-engine/internal/app"
	"github.com/jwebster45206/worldstate-engine/internal/config"
	"github.com/jwebster45206/worldstate-engine/internal/handlers"
	"github.com/jwebster45206/worldstate-engine/internal/logger"
	"github.com/jwebster45206/worldstate-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting World State API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"helper_model", cfg.HelperModel,
		"store", cfg.StoreBackend,
		"events", cfg.EventsBackend)

	startCtx, startCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer startCancel()

	a, err := app.New(startCtx, cfg, log)
	if err != nil {
		log.Error("Failed to initialise", "error", err)
		os.Exit(1)
	}

	if rs, ok := a.Store.(*storage.RedisStore); ok {
		if err := rs.WaitForConnection(startCtx, 30, 2*time.Second); err != nil {
			log.Error("Failed to connect to storage", "error", err)
			os.Exit(1)
		}
	} else if err := a.Store.Ping(startCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	var balance handlers.BalanceProvider
	if a.Balance != nil {
		balance = a.Balance
	}

	// Streaming reads what the redis publisher writes.
	var stream *redis.Client
	if strings.EqualFold(cfg.EventsBackend, "redis") {
		stream = a.Redis()
	}

	router := handlers.NewRouter(handlers.Handlers{
		Health:   handlers.NewHealthHandler(a.Store, log),
		Signals:  handlers.NewSignalsHandler(a.Extractor, a.Store, a.Publisher, log),
		Validate: handlers.NewValidateHandler(a.Validator, a.Publisher, log),
		Balance:  handlers.NewBalanceHandler(balance, log),
		Jobs:     handlers.NewJobsHandler(a.Queue(), log),
		Stream:   handlers.NewStreamHandler(stream, log),
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := a.Close(); err != nil {
		log.Error("Error closing connections", "error", err)
	}

	log.Info("Server exited")
}
