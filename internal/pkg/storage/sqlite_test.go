package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzielinski/goalcast/internal/pkg/config"
	"github.com/mzielinski/goalcast/internal/pkg/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testPrediction(fixtureID int, over25, btts float64, kickoff time.Time) *models.Prediction {
	return &models.Prediction{
		FixtureID:        fixtureID,
		PredictedAt:      time.Now().UTC(),
		HomeTeam:         "Arsenal",
		AwayTeam:         "Chelsea",
		League:           "Premier League",
		KickoffUTC:       kickoff,
		Over25Prob:       over25,
		Over25Confidence: models.ConfidenceMedium,
		BTTSProb:         btts,
		ExpectedGoals:    2.9,
		HomeForm:         9,
		AwayForm:         4,
	}
}

func TestSaveAndExists(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	exists, err := s.PredictionExists(ctx, 101)
	require.NoError(t, err)
	assert.False(t, exists)

	kickoff := time.Now().UTC().Add(24 * time.Hour)
	require.NoError(t, s.SavePrediction(ctx, testPrediction(101, 0.72, 0.61, kickoff)))

	exists, err = s.PredictionExists(ctx, 101)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSavePredictionUpsert(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	kickoff := time.Now().UTC().Add(24 * time.Hour)

	require.NoError(t, s.SavePrediction(ctx, testPrediction(101, 0.66, 0.61, kickoff)))
	require.NoError(t, s.SavePrediction(ctx, testPrediction(101, 0.81, 0.70, kickoff)))

	active, err := s.ActivePredictions(ctx, 0.5)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.InDelta(t, 0.81, active[0].Over25Prob, 1e-9)
}

func TestActivePredictionsFilterAndOrder(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	future := time.Now().UTC().Add(24 * time.Hour)
	past := time.Now().UTC().Add(-24 * time.Hour)

	require.NoError(t, s.SavePrediction(ctx, testPrediction(1, 0.70, 0.6, future)))
	require.NoError(t, s.SavePrediction(ctx, testPrediction(2, 0.90, 0.6, future)))
	require.NoError(t, s.SavePrediction(ctx, testPrediction(3, 0.60, 0.6, future))) // below threshold
	require.NoError(t, s.SavePrediction(ctx, testPrediction(4, 0.95, 0.6, past)))   // already kicked off

	active, err := s.ActivePredictions(ctx, 0.65)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, 2, active[0].FixtureID, "highest probability first")
	assert.Equal(t, 1, active[1].FixtureID)
	assert.Equal(t, models.PredictionPending, active[0].Status)
}

func TestSaveResultSettlesPrediction(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	kickoff := time.Now().UTC().Add(24 * time.Hour)

	require.NoError(t, s.SavePrediction(ctx, testPrediction(55, 0.72, 0.61, kickoff)))

	settled, err := s.ResultExists(ctx, 55)
	require.NoError(t, err)
	assert.False(t, settled)

	require.NoError(t, s.SaveResult(ctx, 55, 2, 1))

	settled, err = s.ResultExists(ctx, 55)
	require.NoError(t, err)
	assert.True(t, settled)

	active, err := s.ActivePredictions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, models.PredictionFinished, active[0].Status)
}

func TestSavePredictionKeepsStatus(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	kickoff := time.Now().UTC().Add(24 * time.Hour)

	p := testPrediction(42, 0.72, 0.61, kickoff)
	p.Status = models.PredictionFinished
	require.NoError(t, s.SavePrediction(ctx, p))

	active, err := s.ActivePredictions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, models.PredictionFinished, active[0].Status, "upsert must not revert an explicit status")

	// and an empty status still defaults to pending
	require.NoError(t, s.SavePrediction(ctx, testPrediction(43, 0.72, 0.61, kickoff)))
	active, err = s.ActivePredictions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, got := range active {
		if got.FixtureID == 43 {
			assert.Equal(t, models.PredictionPending, got.Status)
		}
	}
}

func TestSavePredictionNormalisesTimezone(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	zone := time.FixedZone("CEST", 2*60*60)
	predictedAt := time.Now().In(zone).Truncate(time.Second)
	p := testPrediction(77, 0.72, 0.61, time.Now().UTC().Add(24*time.Hour))
	p.PredictedAt = predictedAt
	require.NoError(t, s.SavePrediction(ctx, p))
	require.NoError(t, s.SaveResult(ctx, 77, 2, 1))

	// stored as UTC, so the windowed string comparison still matches
	stats, err := s.AccuracyStats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)

	active, err := s.ActivePredictions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].PredictedAt.Equal(predictedAt))
	assert.Equal(t, time.UTC, active[0].PredictedAt.Location())
}

func TestAccuracyStats(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	kickoff := time.Now().UTC().Add(24 * time.Hour)

	// predicted over (0.72 >= 0.65) and was over: correct
	require.NoError(t, s.SavePrediction(ctx, testPrediction(1, 0.72, 0.70, kickoff)))
	require.NoError(t, s.SaveResult(ctx, 1, 2, 1))

	// predicted over but finished under: wrong; BTTS 0.40 < 0.60 and no BTTS: correct
	require.NoError(t, s.SavePrediction(ctx, testPrediction(2, 0.70, 0.40, kickoff)))
	require.NoError(t, s.SaveResult(ctx, 2, 1, 0))

	stats, err := s.AccuracyStats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.InDelta(t, 0.5, stats.AccuracyOver25, 1e-9)
	assert.InDelta(t, 1.0, stats.AccuracyBTTS, 1e-9)
}

func TestAccuracyStatsEmpty(t *testing.T) {
	s := newTestStorage(t)

	stats, err := s.AccuracyStats(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Zero(t, stats.AccuracyOver25)
	assert.Zero(t, stats.AccuracyBTTS)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "bogus"})
	assert.Error(t, err)
}
