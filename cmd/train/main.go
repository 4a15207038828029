package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/mzielinski/goalcast/internal/pkg/config"
	"github.com/mzielinski/goalcast/internal/pkg/logging"
	"github.com/mzielinski/goalcast/internal/train"
)

const defaultConfigPath = "configs/production.yaml"

func main() {
	var configPath string
	var dataDir string

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.StringVar(&dataDir, "data-dir", "data/raw", "Directory with downloaded historical CSVs")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if _, err := logging.SetupLogger(&cfg.Logging, "train"); err != nil {
		log.Printf("Warning: failed to setup logging: %v, continuing with default logger", err)
	}

	opts := train.DefaultOptions()
	opts.DataDir = dataDir
	opts.ModelDir = cfg.Model.Dir

	slog.Info("Training hybrid Over 2.5 model", "data_dir", opts.DataDir, "model_dir", opts.ModelDir)
	_, metrics, err := train.Run(opts)
	if err != nil {
		slog.Error("Training failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Samples:        %d\n", metrics.Samples)
	fmt.Printf("Train accuracy: %.3f\n", metrics.TrainAccuracy)
	fmt.Printf("Test accuracy:  %.3f\n", metrics.TestAccuracy)
	fmt.Printf("CV accuracy:    %.3f (+/- %.3f)\n", metrics.CVMean, metrics.CVStd)
	slog.Info("Model trained and saved", "dir", opts.ModelDir)
}
