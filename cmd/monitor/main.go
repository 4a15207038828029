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

	"github.com/mzielinski/goalcast/internal/fetcher"
	"github.com/mzielinski/goalcast/internal/monitor"
	"github.com/mzielinski/goalcast/internal/pkg/config"
	"github.com/mzielinski/goalcast/internal/pkg/logging"
	"github.com/mzielinski/goalcast/internal/pkg/storage"
	"github.com/mzielinski/goalcast/internal/predictor"
)

const defaultConfigPath = "configs/production.yaml"

func main() {
	var configPath string
	var healthAddr string

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.StringVar(&healthAddr, "health-addr", ":8080", "Health server listen address (e.g. :8080)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if _, err := logging.SetupLogger(&cfg.Logging, "monitor"); err != nil {
		log.Printf("Warning: failed to setup logging: %v, continuing with default logger", err)
	}
	slog.Info("Config loaded", "path", configPath)

	if cfg.APIKeys.FootballDataOrg == "" {
		slog.Error("football-data.org API key is required (config api_keys.football_data_org or FOOTBALL_DATA_API_KEY)")
		os.Exit(1)
	}
	if len(cfg.Leagues) == 0 {
		slog.Error("at least one league must be configured")
		os.Exit(1)
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

	model, err := predictor.Load(cfg.Model.Dir)
	if err != nil {
		slog.Error("Failed to load pre-trained model, train first", "dir", cfg.Model.Dir, "error", err)
		os.Exit(1)
	}
	slog.Info("Model loaded", "dir", cfg.Model.Dir, "trained_at", model.TrainedAt)

	var notifier *monitor.TelegramNotifier
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		notifier = monitor.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if notifier != nil {
			defer notifier.Stop()
		}
	} else {
		slog.Info("Telegram alerts disabled")
	}

	client := fetcher.NewClient(cfg.APIKeys.FootballDataOrg)
	mon := monitor.New(cfg, client, model, store, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping monitor")
		cancel()
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("pong\n"))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if mon.IsRunning() {
			_, _ = w.Write([]byte("ok\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("stopped\n"))
	})

	srv := &http.Server{
		Addr:              healthAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		slog.Info("Health server listening", "addr", healthAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Health server error", "error", err)
		}
	}()

	slog.Info("Starting real-time monitor")
	if err := mon.Start(ctx); err != nil {
		slog.Error("Monitor failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Real-time monitor stopped")
}
