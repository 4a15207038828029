package dashboard

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mzielinski/goalcast/internal/pkg/config"
	"github.com/mzielinski/goalcast/internal/pkg/models"
	"github.com/mzielinski/goalcast/internal/pkg/storage"
)

// accuracyWindowDays is the window shown in the accuracy metric.
const accuracyWindowDays = 7

// Server renders the live prediction dashboard and its JSON/CSV API.
type Server struct {
	cfg   *config.Config
	store storage.PredictionStorage
	tmpl  *template.Template
}

func NewServer(cfg *config.Config, store storage.PredictionStorage) (*Server, error) {
	tmpl, err := template.New("dashboard").Parse(dashboardTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	return &Server{cfg: cfg, store: store, tmpl: tmpl}, nil
}

// RegisterHTTP mounts the dashboard routes on mux.
func (s *Server) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/predictions", s.handlePredictions)
	mux.HandleFunc("/api/accuracy", s.handleAccuracy)
	mux.HandleFunc("/export.csv", s.handleExportCSV)
}

type pageData struct {
	Predictions    []predictionRow
	ActiveCount    int
	Accuracy       *models.AccuracyStats
	AccuracyPct    float64
	MinProb        float64
	MinBTTS        float64
	RefreshSeconds int
	UpdatedAt      string
}

type predictionRow struct {
	HomeTeam      string
	AwayTeam      string
	League        string
	Kickoff       string
	Over25Pct     float64
	BTTSPct       float64
	Confidence    string
	ExpectedGoals float64
	RowClass      string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	minProb := parseProb(r.URL.Query().Get("min_prob"), s.cfg.Thresholds.Over25MinProbability)
	minBTTS := parseProb(r.URL.Query().Get("min_btts"), s.cfg.Thresholds.BTTSMinProbability)

	ctx, cancel := s.queryContext(r)
	defer cancel()

	predictions, err := s.store.ActivePredictions(ctx, minProb)
	if err != nil {
		slog.Error("Dashboard: failed to load predictions", "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}

	data := pageData{
		MinProb:        minProb,
		MinBTTS:        minBTTS,
		RefreshSeconds: s.cfg.Dashboard.RefreshSeconds,
		UpdatedAt:      time.Now().UTC().Format("15:04:05"),
	}
	for _, p := range predictions {
		if p.BTTSProb < minBTTS {
			continue
		}
		data.Predictions = append(data.Predictions, predictionRow{
			HomeTeam:      p.HomeTeam,
			AwayTeam:      p.AwayTeam,
			League:        p.League,
			Kickoff:       p.KickoffUTC.UTC().Format("02.01 15:04"),
			Over25Pct:     p.Over25Prob * 100,
			BTTSPct:       p.BTTSProb * 100,
			Confidence:    p.Over25Confidence,
			ExpectedGoals: p.ExpectedGoals,
			RowClass:      rowClass(p.Over25Prob),
		})
	}
	// the metric must agree with the rendered table
	data.ActiveCount = len(data.Predictions)

	if stats, err := s.store.AccuracyStats(ctx, accuracyWindowDays); err == nil && stats.Total > 0 {
		data.Accuracy = &stats
		data.AccuracyPct = stats.AccuracyOver25 * 100
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		slog.Error("Dashboard: failed to render template", "error", err)
	}
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	minProb := parseProb(r.URL.Query().Get("min_prob"), s.cfg.Thresholds.Over25MinProbability)

	ctx, cancel := s.queryContext(r)
	defer cancel()

	predictions, err := s.store.ActivePredictions(ctx, minProb)
	if err != nil {
		slog.Error("Dashboard: failed to load predictions", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "database error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"predictions": predictions,
		"meta": map[string]any{
			"count":    len(predictions),
			"min_prob": minProb,
		},
	})
}

func (s *Server) handleAccuracy(w http.ResponseWriter, r *http.Request) {
	days := accuracyWindowDays
	if v := r.URL.Query().Get("days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			days = parsed
		}
	}

	ctx, cancel := s.queryContext(r)
	defer cancel()

	stats, err := s.store.AccuracyStats(ctx, days)
	if err != nil {
		slog.Error("Dashboard: failed to load accuracy stats", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "database error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"days":  days,
		"stats": stats,
	})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	minProb := parseProb(r.URL.Query().Get("min_prob"), s.cfg.Thresholds.Over25MinProbability)

	ctx, cancel := s.queryContext(r)
	defer cancel()

	predictions, err := s.store.ActivePredictions(ctx, minProb)
	if err != nil {
		slog.Error("Dashboard: failed to load predictions for export", "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="predictions.csv"`)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"home_team", "away_team", "league", "kickoff_utc",
		"over25_prob", "btts_prob", "confidence", "expected_goals",
	})
	for _, p := range predictions {
		_ = writer.Write([]string{
			p.HomeTeam,
			p.AwayTeam,
			p.League,
			p.KickoffUTC.UTC().Format(time.RFC3339),
			strconv.FormatFloat(p.Over25Prob, 'f', 4, 64),
			strconv.FormatFloat(p.BTTSProb, 'f', 4, 64),
			p.Over25Confidence,
			strconv.FormatFloat(p.ExpectedGoals, 'f', 2, 64),
		})
	}
	writer.Flush()
}

func (s *Server) queryContext(r *http.Request) (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.cfg.Dashboard.QueryTimeout)
}

func parseProb(value string, fallback float64) float64 {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 || parsed > 1 {
		return fallback
	}
	return parsed
}

func rowClass(over25Prob float64) string {
	switch {
	case over25Prob >= 0.75:
		return "high"
	case over25Prob >= 0.65:
		return "medium"
	default:
		return ""
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
