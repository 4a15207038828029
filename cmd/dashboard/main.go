package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mzielinski/goalcast/internal/dashboard"
	"github.com/mzielinski/goalcast/internal/pkg/config"
	"github.com/mzielinski/goalcast/internal/pkg/logging"
	"github.com/mzielinski/goalcast/internal/pkg/storage"
)

const defaultConfigPath = "configs/production.yaml"

func main() {
	var configPath string

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if _, err := logging.SetupLogger(&cfg.Logging, "dashboard"); err != nil {
		log.Printf("Warning: failed to setup logging: %v, continuing with default logger", err)
	}

	store, err := storage.Open(&cfg.Database)
	if err != nil {
		slog.Error("Failed to open prediction storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Error closing storage", "error", err)
		}
	}()

	server, err := dashboard.NewServer(cfg, store)
	if err != nil {
		slog.Error("Failed to build dashboard", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("pong\n"))
	})
	server.RegisterHTTP(mux)

	srv := &http.Server{
		Addr:              cfg.Dashboard.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping dashboard")
		cancel()
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Dashboard listening", "addr", cfg.Dashboard.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Dashboard server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Dashboard stopped")
}
