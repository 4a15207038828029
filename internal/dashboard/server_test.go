package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzielinski/goalcast/internal/pkg/config"
	"github.com/mzielinski/goalcast/internal/pkg/models"
	"github.com/mzielinski/goalcast/internal/pkg/storage"
)

func newTestServer(t *testing.T) (*Server, storage.PredictionStorage) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{
		Thresholds: config.ThresholdsConfig{
			Over25MinProbability: 0.65,
			BTTSMinProbability:   0.60,
		},
		Dashboard: config.DashboardConfig{
			RefreshSeconds: 30,
			QueryTimeout:   5 * time.Second,
		},
	}

	srv, err := NewServer(cfg, store)
	require.NoError(t, err)
	return srv, store
}

func seedPrediction(t *testing.T, store storage.PredictionStorage, fixtureID int, over25 float64) {
	t.Helper()
	require.NoError(t, store.SavePrediction(context.Background(), &models.Prediction{
		FixtureID:        fixtureID,
		PredictedAt:      time.Now().UTC(),
		HomeTeam:         "Arsenal",
		AwayTeam:         "Chelsea",
		League:           "Premier League",
		KickoffUTC:       time.Now().UTC().Add(24 * time.Hour),
		Over25Prob:       over25,
		Over25Confidence: models.ConfidenceHigh,
		BTTSProb:         0.70,
		ExpectedGoals:    3.1,
	}))
}

func serveRequest(srv *Server, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	srv.RegisterHTTP(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestIndexRendersPredictions(t *testing.T) {
	srv, store := newTestServer(t)
	seedPrediction(t, store, 1, 0.82)

	rec := serveRequest(srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, "Arsenal")
	assert.Contains(t, body, "Chelsea")
	assert.Contains(t, body, "Premier League")
}

func TestIndexFilterQuery(t *testing.T) {
	srv, store := newTestServer(t)
	seedPrediction(t, store, 1, 0.70)
	seedPrediction(t, store, 2, 0.90)

	rec := serveRequest(srv, "/?min_prob=0.85")
	require.Equal(t, http.StatusOK, rec.Code)

	// only the 0.90 prediction clears the filter, so exactly one table row
	assert.Equal(t, 1, strings.Count(rec.Body.String(), "Arsenal"))
}

func TestIndexActiveCountMatchesTable(t *testing.T) {
	srv, store := newTestServer(t)
	seedPrediction(t, store, 1, 0.82) // BTTS 0.70
	require.NoError(t, store.SavePrediction(context.Background(), &models.Prediction{
		FixtureID:        2,
		PredictedAt:      time.Now().UTC(),
		HomeTeam:         "Everton",
		AwayTeam:         "Fulham",
		League:           "Premier League",
		KickoffUTC:       time.Now().UTC().Add(24 * time.Hour),
		Over25Prob:       0.80,
		Over25Confidence: models.ConfidenceHigh,
		BTTSProb:         0.30, // filtered out below
		ExpectedGoals:    2.8,
	}))

	rec := serveRequest(srv, "/?min_btts=0.5")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Arsenal")
	assert.NotContains(t, body, "Everton")
	assert.Contains(t, body, `<div class="label">Active predictions</div><div class="value">1</div>`)
}

func TestIndexUnknownPath(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := serveRequest(srv, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPredictionsJSON(t *testing.T) {
	srv, store := newTestServer(t)
	seedPrediction(t, store, 1, 0.82)

	rec := serveRequest(srv, "/api/predictions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var payload struct {
		Predictions []models.Prediction `json:"predictions"`
		Meta        struct {
			Count   int     `json:"count"`
			MinProb float64 `json:"min_prob"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Predictions, 1)
	assert.Equal(t, 1, payload.Meta.Count)
	assert.InDelta(t, 0.65, payload.Meta.MinProb, 1e-9)
	assert.Equal(t, "Arsenal", payload.Predictions[0].HomeTeam)
}

func TestAccuracyJSON(t *testing.T) {
	srv, store := newTestServer(t)
	seedPrediction(t, store, 1, 0.82)
	require.NoError(t, store.SaveResult(context.Background(), 1, 2, 1))

	rec := serveRequest(srv, "/api/accuracy?days=30")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Days  int                  `json:"days"`
		Stats models.AccuracyStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 30, payload.Days)
	assert.Equal(t, 1, payload.Stats.Total)
}

func TestExportCSV(t *testing.T) {
	srv, store := newTestServer(t)
	seedPrediction(t, store, 1, 0.82)

	rec := serveRequest(srv, "/export.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "predictions.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "over25_prob")
	assert.Contains(t, lines[1], "Arsenal")
	assert.Contains(t, lines[1], "0.8200")
}

func TestParseProbFallback(t *testing.T) {
	assert.Equal(t, 0.65, parseProb("", 0.65))
	assert.Equal(t, 0.65, parseProb("not-a-number", 0.65))
	assert.Equal(t, 0.65, parseProb("1.5", 0.65))
	assert.Equal(t, 0.8, parseProb("0.8", 0.65))
}

func TestRowClass(t *testing.T) {
	assert.Equal(t, "high", rowClass(0.80))
	assert.Equal(t, "medium", rowClass(0.68))
	assert.Equal(t, "", rowClass(0.50))
}
