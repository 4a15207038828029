package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mzielinski/goalcast/internal/pkg/models"
)

// Ensure SQLiteStorage implements PredictionStorage
var _ PredictionStorage = (*SQLiteStorage)(nil)

// SQLiteStorage stores predictions and results in a local SQLite file.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// modernc sqlite does not support concurrent writers
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("SQLite prediction storage initialized", "path", path)
	return s, nil
}

func (s *SQLiteStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS predictions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fixture_id INTEGER UNIQUE,
		predicted_at TIMESTAMP,
		home_team TEXT,
		away_team TEXT,
		league TEXT,
		kickoff_utc TIMESTAMP,
		over25_prob REAL,
		over25_confidence TEXT,
		btts_prob REAL,
		expected_goals REAL,
		home_form REAL,
		away_form REAL,
		status TEXT DEFAULT 'PENDING'
	);

	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fixture_id INTEGER,
		home_goals INTEGER,
		away_goals INTEGER,
		over25_actual INTEGER,
		btts_actual INTEGER,
		recorded_at TIMESTAMP,
		FOREIGN KEY (fixture_id) REFERENCES predictions(fixture_id)
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_kickoff ON predictions(kickoff_utc);
	CREATE INDEX IF NOT EXISTS idx_predictions_over25 ON predictions(over25_prob DESC);
	CREATE INDEX IF NOT EXISTS idx_results_fixture ON results(fixture_id);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *SQLiteStorage) SavePrediction(ctx context.Context, p *models.Prediction) error {
	predictedAt := p.PredictedAt
	if predictedAt.IsZero() {
		predictedAt = time.Now()
	}
	status := p.Status
	if status == "" {
		status = models.PredictionPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO predictions
		(fixture_id, predicted_at, home_team, away_team, league, kickoff_utc,
		 over25_prob, over25_confidence, btts_prob, expected_goals, home_form, away_form, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.FixtureID,
		predictedAt.UTC().Format(time.RFC3339),
		p.HomeTeam,
		p.AwayTeam,
		p.League,
		p.KickoffUTC.UTC().Format(time.RFC3339),
		p.Over25Prob,
		p.Over25Confidence,
		p.BTTSProb,
		p.ExpectedGoals,
		p.HomeForm,
		p.AwayForm,
		status,
	)
	if err != nil {
		return fmt.Errorf("failed to save prediction for fixture %d: %w", p.FixtureID, err)
	}
	return nil
}

func (s *SQLiteStorage) PredictionExists(ctx context.Context, fixtureID int) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM predictions WHERE fixture_id = ?", fixtureID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check prediction for fixture %d: %w", fixtureID, err)
	}
	return count > 0, nil
}

func (s *SQLiteStorage) ActivePredictions(ctx context.Context, minProb float64) ([]models.Prediction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fixture_id, predicted_at, home_team, away_team, league, kickoff_utc,
		       over25_prob, over25_confidence, btts_prob, expected_goals, home_form, away_form, status
		FROM predictions
		WHERE over25_prob >= ?
		AND kickoff_utc > ?
		ORDER BY over25_prob DESC`,
		minProb, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query active predictions: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

func (s *SQLiteStorage) SaveResult(ctx context.Context, fixtureID, homeGoals, awayGoals int) error {
	over25 := 0
	if homeGoals+awayGoals > 2 {
		over25 = 1
	}
	btts := 0
	if homeGoals > 0 && awayGoals > 0 {
		btts = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO results (fixture_id, home_goals, away_goals, over25_actual, btts_actual, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		fixtureID, homeGoals, awayGoals, over25, btts, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save result for fixture %d: %w", fixtureID, err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE predictions SET status = ? WHERE fixture_id = ?",
		models.PredictionFinished, fixtureID)
	if err != nil {
		return fmt.Errorf("failed to update prediction status for fixture %d: %w", fixtureID, err)
	}

	return tx.Commit()
}

func (s *SQLiteStorage) ResultExists(ctx context.Context, fixtureID int) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM results WHERE fixture_id = ?", fixtureID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check result for fixture %d: %w", fixtureID, err)
	}
	return count > 0, nil
}

func (s *SQLiteStorage) AccuracyStats(ctx context.Context, days int) (models.AccuracyStats, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	var stats models.AccuracyStats
	var correctOver25, correctBTTS sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) as total,
			SUM(CASE WHEN (r.over25_actual = 1 AND p.over25_prob >= 0.65) OR
			              (r.over25_actual = 0 AND p.over25_prob < 0.65) THEN 1 ELSE 0 END),
			SUM(CASE WHEN (r.btts_actual = 1 AND p.btts_prob >= 0.60) OR
			              (r.btts_actual = 0 AND p.btts_prob < 0.60) THEN 1 ELSE 0 END)
		FROM predictions p
		JOIN results r ON p.fixture_id = r.fixture_id
		WHERE p.predicted_at >= ?`, since).Scan(&stats.Total, &correctOver25, &correctBTTS)
	if err != nil {
		return models.AccuracyStats{}, fmt.Errorf("failed to compute accuracy stats: %w", err)
	}

	if stats.Total > 0 {
		stats.AccuracyOver25 = float64(correctOver25.Int64) / float64(stats.Total)
		stats.AccuracyBTTS = float64(correctBTTS.Int64) / float64(stats.Total)
	}
	return stats, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func scanPredictions(rows *sql.Rows) ([]models.Prediction, error) {
	var predictions []models.Prediction
	for rows.Next() {
		var p models.Prediction
		var predictedAt, kickoff string
		if err := rows.Scan(
			&p.FixtureID, &predictedAt, &p.HomeTeam, &p.AwayTeam, &p.League, &kickoff,
			&p.Over25Prob, &p.Over25Confidence, &p.BTTSProb, &p.ExpectedGoals,
			&p.HomeForm, &p.AwayForm, &p.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, predictedAt); err == nil {
			p.PredictedAt = t
		}
		if t, err := time.Parse(time.RFC3339, kickoff); err == nil {
			p.KickoffUTC = t
		}
		predictions = append(predictions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate predictions: %w", err)
	}
	return predictions, nil
}
