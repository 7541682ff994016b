package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reviewlens/reviewlens/internal/api/rest"
	"github.com/reviewlens/reviewlens/internal/docstore"
	"github.com/reviewlens/reviewlens/internal/runner"
	"github.com/reviewlens/reviewlens/internal/runstore"
	"github.com/reviewlens/reviewlens/internal/shared/config"
	"github.com/reviewlens/reviewlens/internal/shared/logging"
)

func main() {
	configPath := flag.String("config", "", "configuration file to read from")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.New(logging.ParseLevel("info"), "text").Fatal("Failed to load config", "error", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	runs, err := runstore.Open(cfg.History.Path)
	if err != nil {
		logger.Fatal("Failed to open run history", "path", cfg.History.Path, "error", err)
	}
	defer runs.Close()

	store := docstore.NewClient(cfg.Store.BaseURL, cfg.Store.Timeout)
	pipeline := runner.New(store, runs, cfg.Pipeline, cfg.Query, logger)
	api := rest.NewAPI(pipeline, runs, logger)
	server := rest.NewServer(cfg.Server, api, logger)

	go func() {
		logger.Info("Starting API server", "addr", cfg.Server.Addr, "store", cfg.Store.BaseURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	// Give the server 30 seconds to finish serving ongoing requests
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}
