package models

import "time"

// Prediction statuses.
const (
	PredictionPending  = "PENDING"
	PredictionFinished = "FINISHED"
)

// Confidence labels for the Over 2.5 probability.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// Prediction is a stored Over 2.5 / BTTS forecast for one fixture.
type Prediction struct {
	FixtureID        int       `json:"fixture_id"`
	PredictedAt      time.Time `json:"predicted_at"`
	HomeTeam         string    `json:"home_team"`
	AwayTeam         string    `json:"away_team"`
	League           string    `json:"league"`
	KickoffUTC       time.Time `json:"kickoff_utc"`
	Over25Prob       float64   `json:"over25_prob"`
	Over25Confidence string    `json:"over25_confidence"`
	BTTSProb         float64   `json:"btts_prob"`
	ExpectedGoals    float64   `json:"expected_goals"`
	HomeForm         float64   `json:"home_form"`
	AwayForm         float64   `json:"away_form"`
	Status           string    `json:"status"`
}

// Result is the recorded outcome of a predicted fixture.
type Result struct {
	FixtureID  int       `json:"fixture_id"`
	HomeGoals  int       `json:"home_goals"`
	AwayGoals  int       `json:"away_goals"`
	Over25     bool      `json:"over25_actual"`
	BTTS       bool      `json:"btts_actual"`
	RecordedAt time.Time `json:"recorded_at"`
}

// AccuracyStats summarises prediction accuracy over the settled fixtures of a window.
type AccuracyStats struct {
	Total          int     `json:"total"`
	AccuracyOver25 float64 `json:"accuracy_over25"`
	AccuracyBTTS   float64 `json:"accuracy_btts"`
}
