package storage

import (
	"context"
	"fmt"

	"github.com/mzielinski/goalcast/internal/pkg/config"
	"github.com/mzielinski/goalcast/internal/pkg/models"
)

// PredictionStorage persists predictions and settled results.
type PredictionStorage interface {
	// SavePrediction inserts or replaces the prediction for its fixture.
	SavePrediction(ctx context.Context, p *models.Prediction) error
	// PredictionExists reports whether the fixture has already been predicted.
	PredictionExists(ctx context.Context, fixtureID int) (bool, error)
	// ActivePredictions returns future predictions with Over 2.5 probability
	// of at least minProb, best first.
	ActivePredictions(ctx context.Context, minProb float64) ([]models.Prediction, error)
	// SaveResult records the actual score and marks the prediction finished.
	SaveResult(ctx context.Context, fixtureID, homeGoals, awayGoals int) error
	// ResultExists reports whether the fixture has already been settled.
	ResultExists(ctx context.Context, fixtureID int) (bool, error)
	// AccuracyStats computes hit rates over the last `days` days of settled
	// predictions, using the 0.65 / 0.60 decision thresholds.
	AccuracyStats(ctx context.Context, days int) (models.AccuracyStats, error)
	Close() error
}

// Open builds the storage backend selected by the config.
func Open(cfg *config.DatabaseConfig) (PredictionStorage, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLiteStorage(cfg.Path)
	case "postgres":
		return NewPostgresStorage(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
