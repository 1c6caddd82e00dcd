package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gloomdelve/server/internal/config"
	"github.com/gloomdelve/server/internal/engine"
	"github.com/gloomdelve/server/internal/logger"
	"github.com/gloomdelve/server/internal/server"
	"github.com/gloomdelve/server/internal/session"
	"github.com/gloomdelve/server/internal/store"
)

func main() {
	configFile := flag.String("config", "data/server.yaml", "Path to server config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	seed := flag.Int64("seed", 0, "Floor generation seed (default: random based on current time)")
	flag.Parse()

	// Initialize logger first (before any logging)
	logConfig, _ := logger.LoadConfig(*loggingConfig)
	logger.Initialize(logConfig)

	logger.Info("Starting Gloomdelve server")

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Warning("Server config not fully loaded, using defaults", "error", err)
	}

	genSeed := *seed
	if genSeed == 0 {
		genSeed = time.Now().UnixNano()
	}
	logger.Info("Generation seed selected", "seed", genSeed)

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Durable store unavailable", "url", cfg.DatabaseURL, "error", err)
		os.Exit(1)
	}

	sessions := session.NewManager(st, cfg.Session)
	eng := engine.New(genSeed)
	srv := server.New(cfg, st, sessions, eng)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Handler(),
	}

	go func() {
		logger.Info("Listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Drain on SIGINT/SIGTERM: stop accepting, flush every cached session
	// to the store, close transports, exit 0.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warning("HTTP shutdown incomplete", "error", err)
	}

	sessions.DrainAll()

	if err := st.Close(); err != nil {
		logger.Warning("Store close failed", "error", err)
	}

	logger.Info("Shutdown complete")
}
