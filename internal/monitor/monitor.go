package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mzielinski/goalcast/internal/features"
	"github.com/mzielinski/goalcast/internal/pkg/config"
	"github.com/mzielinski/goalcast/internal/pkg/models"
	"github.com/mzielinski/goalcast/internal/pkg/storage"
	"github.com/mzielinski/goalcast/internal/predictor"
)

// errorBackoff is the pause after a failed scan before the loop resumes.
const errorBackoff = time.Minute

// resultsLookBackDays is how far back each cycle looks for finished fixtures
// whose predictions still need settling.
const resultsLookBackDays = 3

// MatchFetcher is the slice of the football-data.org client the monitor needs.
type MatchFetcher interface {
	CompetitionMatches(ctx context.Context, competitionID int, from, to time.Time) ([]models.Match, error)
	TeamMatches(ctx context.Context, teamID, limit int) ([]models.Match, error)
}

// Monitor is the continuous worker: it scans the configured leagues for
// upcoming fixtures, generates predictions and stores the ones above threshold.
type Monitor struct {
	cfg      *config.Config
	client   MatchFetcher
	model    *predictor.Model
	store    storage.PredictionStorage
	notifier *TelegramNotifier

	mu      sync.RWMutex
	ticker  *time.Ticker
	stopped bool
	cancel  context.CancelFunc
}

func New(cfg *config.Config, client MatchFetcher, model *predictor.Model, store storage.PredictionStorage, notifier *TelegramNotifier) *Monitor {
	return &Monitor{
		cfg:      cfg,
		client:   client,
		model:    model,
		store:    store,
		notifier: notifier,
	}
}

// Start runs the monitor loop until ctx is cancelled. The first scan happens
// immediately, later ones on the configured interval.
func (m *Monitor) Start(ctx context.Context) error {
	interval := m.cfg.Monitoring.ScanInterval

	m.mu.Lock()
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.ticker = time.NewTicker(interval)
	m.stopped = false
	m.mu.Unlock()

	slog.Info("Real-time monitor started", "scan_interval", interval, "leagues", len(m.cfg.Leagues))

	m.runScan(loopCtx)

	for {
		select {
		case <-loopCtx.Done():
			slog.Info("Monitor stopping")
			m.Stop()
			return nil
		case <-m.ticker.C:
			m.mu.RLock()
			stopped := m.stopped
			m.mu.RUnlock()
			if stopped {
				return nil
			}
			m.runScan(loopCtx)
		}
	}
}

// Stop halts the loop. Safe to call more than once.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.stopped && m.ticker != nil {
		m.stopped = true
		m.ticker.Stop()
		if m.cancel != nil {
			m.cancel()
		}
		slog.Info("Monitor stopped")
	}
}

// IsRunning reports whether the scan loop is active.
func (m *Monitor) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ticker != nil && !m.stopped
}

func (m *Monitor) runScan(ctx context.Context) {
	if err := m.ScanUpcomingMatches(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("Scan failed, backing off", "error", err, "backoff", errorBackoff)
		select {
		case <-ctx.Done():
		case <-time.After(errorBackoff):
		}
		return
	}

	if err := m.RecordResults(ctx, resultsLookBackDays); err != nil {
		slog.Error("Failed to record results", "error", err)
	}
}

// ScanUpcomingMatches walks every configured league once, predicting each
// upcoming fixture that has not been predicted yet.
func (m *Monitor) ScanUpcomingMatches(ctx context.Context) error {
	slog.Info("Scanning upcoming matches")

	now := time.Now().UTC()
	from := now
	to := now.AddDate(0, 0, m.cfg.Monitoring.LookAheadDays)

	var scanErr error
	for code, league := range m.cfg.Leagues {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Info("Scanning league", "code", code, "league", league.Name)

		matches, err := m.client.CompetitionMatches(ctx, league.ID, from, to)
		if err != nil {
			slog.Error("Failed to fetch league fixtures", "league", league.Name, "error", err)
			scanErr = err
			continue
		}

		for _, match := range matches {
			if !match.IsUpcoming() || !match.UTCDate.After(now) {
				continue
			}

			exists, err := m.store.PredictionExists(ctx, match.ID)
			if err != nil {
				slog.Error("Failed to check existing prediction", "fixture_id", match.ID, "error", err)
				continue
			}
			if exists {
				continue
			}

			prediction, err := m.predictMatch(ctx, match, league.Name)
			if err != nil {
				slog.Error("Failed to predict match",
					"home", match.HomeTeam.Name, "away", match.AwayTeam.Name, "error", err)
				continue
			}
			if prediction == nil {
				// below the Over 2.5 threshold or not enough history
				continue
			}

			if err := m.store.SavePrediction(ctx, prediction); err != nil {
				slog.Error("Failed to save prediction", "fixture_id", prediction.FixtureID, "error", err)
				continue
			}
			slog.Info("Prediction stored",
				"home", prediction.HomeTeam,
				"away", prediction.AwayTeam,
				"over25_prob", fmt.Sprintf("%.2f", prediction.Over25Prob),
				"btts_prob", fmt.Sprintf("%.2f", prediction.BTTSProb))

			if m.notifier != nil && prediction.Over25Prob >= m.cfg.Thresholds.AlertMinProbability {
				if err := m.notifier.SendPredictionAlert(ctx, prediction); err != nil {
					slog.Warn("Failed to queue telegram alert", "fixture_id", prediction.FixtureID, "error", err)
				}
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.cfg.Monitoring.RateLimitDelay):
			}
		}
	}

	slog.Info("Scan complete")
	return scanErr
}

// predictMatch fetches both teams' history and runs the model. Returns nil
// without error when the fixture does not clear the Over 2.5 threshold.
func (m *Monitor) predictMatch(ctx context.Context, match models.Match, league string) (*models.Prediction, error) {
	historyLimit := m.cfg.Monitoring.HistoryLimit

	homeHistory, err := m.client.TeamMatches(ctx, match.HomeTeam.ID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch home history: %w", err)
	}
	awayHistory, err := m.client.TeamMatches(ctx, match.AwayTeam.ID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch away history: %w", err)
	}
	if len(homeHistory) == 0 || len(awayHistory) == 0 {
		return nil, nil
	}

	f := features.Extract(match.HomeTeam.Name, match.AwayTeam.Name, homeHistory, awayHistory, league)

	over25, err := m.model.PredictOver25(f)
	if err != nil {
		return nil, err
	}
	bttsProb := m.model.PredictBTTS(f.LambdaHome, f.LambdaAway, 1.0)

	if over25.Probability < m.cfg.Thresholds.Over25MinProbability {
		return nil, nil
	}

	return &models.Prediction{
		FixtureID:        match.ID,
		PredictedAt:      time.Now().UTC(),
		HomeTeam:         match.HomeTeam.Name,
		AwayTeam:         match.AwayTeam.Name,
		League:           league,
		KickoffUTC:       match.UTCDate,
		Over25Prob:       over25.Probability,
		Over25Confidence: over25.Confidence,
		BTTSProb:         bttsProb,
		ExpectedGoals:    f.ExpectedTotalGoals,
		HomeForm:         f.HomePointsForm5,
		AwayForm:         f.AwayPointsForm3,
		Status:           models.PredictionPending,
	}, nil
}

// RecordResults settles predictions whose fixtures have finished. It walks the
// configured leagues over the past few days and records full-time scores for
// fixtures that were predicted but not yet settled.
func (m *Monitor) RecordResults(ctx context.Context, daysBack int) error {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -daysBack)

	for _, league := range m.cfg.Leagues {
		matches, err := m.client.CompetitionMatches(ctx, league.ID, from, now)
		if err != nil {
			slog.Error("Failed to fetch finished fixtures", "league", league.Name, "error", err)
			continue
		}
		for _, match := range matches {
			if match.Status != models.StatusFinished || !match.HasFullTimeScore() {
				continue
			}
			exists, err := m.store.PredictionExists(ctx, match.ID)
			if err != nil || !exists {
				continue
			}
			settled, err := m.store.ResultExists(ctx, match.ID)
			if err != nil || settled {
				continue
			}
			if err := m.store.SaveResult(ctx, match.ID, *match.Score.FullTime.Home, *match.Score.FullTime.Away); err != nil {
				slog.Error("Failed to save result", "fixture_id", match.ID, "error", err)
			}
		}
	}
	return nil
}
