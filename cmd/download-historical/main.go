package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mzielinski/goalcast/internal/fetcher"
	"github.com/mzielinski/goalcast/internal/pkg/config"
	"github.com/mzielinski/goalcast/internal/pkg/logging"
)

func main() {
	var outputDir string
	flag.StringVar(&outputDir, "output-dir", "data/raw", "Directory for downloaded CSVs")
	flag.Parse()

	if _, err := logging.SetupLogger(&config.LoggingConfig{}, "download-historical"); err != nil {
		log.Printf("Warning: failed to setup logging: %v, continuing with default logger", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := fetcher.NewHistDataClient()
	slog.Info("Downloading historical data from football-data.co.uk", "output_dir", outputDir)
	if err := client.DownloadAll(ctx, outputDir); err != nil {
		slog.Error("Download failed", "error", err)
		os.Exit(1)
	}

	files, _ := filepath.Glob(filepath.Join(outputDir, "*.csv"))
	slog.Info("Download complete", "csv_files", len(files))
}
