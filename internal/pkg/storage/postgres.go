package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/mzielinski/goalcast/internal/pkg/models"
)

// Ensure PostgresStorage implements PredictionStorage
var _ PredictionStorage = (*PostgresStorage)(nil)

// PostgresStorage stores predictions and results in PostgreSQL, for
// deployments where several services share one database.
type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(dsn string) (*PostgresStorage, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresStorage{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL prediction storage initialized")
	return s, nil
}

func (s *PostgresStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS predictions (
		id SERIAL PRIMARY KEY,
		fixture_id INTEGER UNIQUE,
		predicted_at TIMESTAMP,
		home_team VARCHAR(200),
		away_team VARCHAR(200),
		league VARCHAR(100),
		kickoff_utc TIMESTAMP,
		over25_prob DECIMAL(6, 4),
		over25_confidence VARCHAR(20),
		btts_prob DECIMAL(6, 4),
		expected_goals DECIMAL(6, 2),
		home_form DECIMAL(6, 2),
		away_form DECIMAL(6, 2),
		status VARCHAR(20) DEFAULT 'PENDING'
	);

	CREATE TABLE IF NOT EXISTS results (
		id SERIAL PRIMARY KEY,
		fixture_id INTEGER REFERENCES predictions(fixture_id),
		home_goals INTEGER,
		away_goals INTEGER,
		over25_actual INTEGER,
		btts_actual INTEGER,
		recorded_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_kickoff ON predictions(kickoff_utc);
	CREATE INDEX IF NOT EXISTS idx_predictions_over25 ON predictions(over25_prob DESC);
	CREATE INDEX IF NOT EXISTS idx_results_fixture ON results(fixture_id);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *PostgresStorage) SavePrediction(ctx context.Context, p *models.Prediction) error {
	predictedAt := p.PredictedAt
	if predictedAt.IsZero() {
		predictedAt = time.Now().UTC()
	}
	status := p.Status
	if status == "" {
		status = models.PredictionPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO predictions
		(fixture_id, predicted_at, home_team, away_team, league, kickoff_utc,
		 over25_prob, over25_confidence, btts_prob, expected_goals, home_form, away_form, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (fixture_id) DO UPDATE SET
			predicted_at = EXCLUDED.predicted_at,
			over25_prob = EXCLUDED.over25_prob,
			over25_confidence = EXCLUDED.over25_confidence,
			btts_prob = EXCLUDED.btts_prob,
			expected_goals = EXCLUDED.expected_goals,
			home_form = EXCLUDED.home_form,
			away_form = EXCLUDED.away_form,
			status = EXCLUDED.status`,
		p.FixtureID,
		predictedAt,
		p.HomeTeam,
		p.AwayTeam,
		p.League,
		p.KickoffUTC.UTC(),
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

func (s *PostgresStorage) PredictionExists(ctx context.Context, fixtureID int) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM predictions WHERE fixture_id = $1", fixtureID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check prediction for fixture %d: %w", fixtureID, err)
	}
	return count > 0, nil
}

func (s *PostgresStorage) ActivePredictions(ctx context.Context, minProb float64) ([]models.Prediction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fixture_id, predicted_at, home_team, away_team, league, kickoff_utc,
		       over25_prob, over25_confidence, btts_prob, expected_goals, home_form, away_form, status
		FROM predictions
		WHERE over25_prob >= $1
		AND kickoff_utc > NOW()
		ORDER BY over25_prob DESC`, minProb)
	if err != nil {
		return nil, fmt.Errorf("failed to query active predictions: %w", err)
	}
	defer rows.Close()

	var predictions []models.Prediction
	for rows.Next() {
		var p models.Prediction
		if err := rows.Scan(
			&p.FixtureID, &p.PredictedAt, &p.HomeTeam, &p.AwayTeam, &p.League, &p.KickoffUTC,
			&p.Over25Prob, &p.Over25Confidence, &p.BTTSProb, &p.ExpectedGoals,
			&p.HomeForm, &p.AwayForm, &p.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate predictions: %w", err)
	}
	return predictions, nil
}

func (s *PostgresStorage) SaveResult(ctx context.Context, fixtureID, homeGoals, awayGoals int) error {
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
		VALUES ($1, $2, $3, $4, $5, $6)`,
		fixtureID, homeGoals, awayGoals, over25, btts, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save result for fixture %d: %w", fixtureID, err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE predictions SET status = $1 WHERE fixture_id = $2",
		models.PredictionFinished, fixtureID)
	if err != nil {
		return fmt.Errorf("failed to update prediction status for fixture %d: %w", fixtureID, err)
	}

	return tx.Commit()
}

func (s *PostgresStorage) ResultExists(ctx context.Context, fixtureID int) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM results WHERE fixture_id = $1", fixtureID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check result for fixture %d: %w", fixtureID, err)
	}
	return count > 0, nil
}

func (s *PostgresStorage) AccuracyStats(ctx context.Context, days int) (models.AccuracyStats, error) {
	var stats models.AccuracyStats
	var correctOver25, correctBTTS sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			SUM(CASE WHEN (r.over25_actual = 1 AND p.over25_prob >= 0.65) OR
			              (r.over25_actual = 0 AND p.over25_prob < 0.65) THEN 1 ELSE 0 END),
			SUM(CASE WHEN (r.btts_actual = 1 AND p.btts_prob >= 0.60) OR
			              (r.btts_actual = 0 AND p.btts_prob < 0.60) THEN 1 ELSE 0 END)
		FROM predictions p
		JOIN results r ON p.fixture_id = r.fixture_id
		WHERE p.predicted_at >= NOW() - ($1 || ' days')::interval`,
		days).Scan(&stats.Total, &correctOver25, &correctBTTS)
	if err != nil {
		return models.AccuracyStats{}, fmt.Errorf("failed to compute accuracy stats: %w", err)
	}

	if stats.Total > 0 {
		stats.AccuracyOver25 = float64(correctOver25.Int64) / float64(stats.Total)
		stats.AccuracyBTTS = float64(correctBTTS.Int64) / float64(stats.Total)
	}
	return stats, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
