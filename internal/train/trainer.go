package train

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/mzielinski/goalcast/internal/features"
	"github.com/mzielinski/goalcast/internal/fetcher"
	"github.com/mzielinski/goalcast/internal/pkg/models"
	"github.com/mzielinski/goalcast/internal/predictor"
)

// Options controls the training pipeline.
type Options struct {
	// DataDir holds the downloaded football-data.co.uk CSVs.
	DataDir string
	// ModelDir is where the trained model is saved.
	ModelDir string
	// MinHistory is the minimum prior matches required per team for a sample.
	MinHistory int
	// HistoryWindow is how many prior matches per team feed the features.
	HistoryWindow int
	// MinSamples aborts training when the dataset is too small to be useful.
	MinSamples int
	// TestFraction is the held-out share for the final accuracy report.
	TestFraction float64
	// CVFolds is the fold count for the cross-validation report.
	CVFolds int
	// Seed fixes the train/test shuffle.
	Seed int64
}

func DefaultOptions() Options {
	return Options{
		DataDir:       "data/raw",
		ModelDir:      "pretrained",
		MinHistory:    10,
		HistoryWindow: 15,
		MinSamples:    100,
		TestFraction:  0.2,
		CVFolds:       5,
		Seed:          42,
	}
}

// Metrics is the training report.
type Metrics struct {
	Samples       int
	TrainAccuracy float64
	TestAccuracy  float64
	CVMean        float64
	CVStd         float64
}

// Run executes the full pipeline: load CSVs, build samples, fit the calibrated
// ensemble for Over 2.5 and save it.
func Run(opts Options) (*predictor.Model, Metrics, error) {
	var metrics Metrics

	slog.Info("Loading historical data", "dir", opts.DataDir)
	historical, err := fetcher.LoadResultsDir(opts.DataDir)
	if err != nil {
		return nil, metrics, err
	}
	slog.Info("Loaded historical matches", "count", len(historical))

	X, yOver25, _ := BuildSamples(historical, opts.MinHistory, opts.HistoryWindow)
	metrics.Samples = len(X)
	slog.Info("Created training samples", "count", len(X))

	if len(X) < opts.MinSamples {
		return nil, metrics, fmt.Errorf("not enough training samples: have %d, need at least %d", len(X), opts.MinSamples)
	}

	trainX, trainY, testX, testY := split(X, yOver25, opts.TestFraction, opts.Seed)

	slog.Info("Training hybrid model", "train_samples", len(trainX), "test_samples", len(testX))
	model := predictor.NewModel()
	if err := model.Fit(trainX, trainY); err != nil {
		return nil, metrics, err
	}

	metrics.TrainAccuracy = accuracy(model, trainX, trainY)
	metrics.TestAccuracy = accuracy(model, testX, testY)
	slog.Info("Model evaluation",
		"train_accuracy", fmt.Sprintf("%.3f", metrics.TrainAccuracy),
		"test_accuracy", fmt.Sprintf("%.3f", metrics.TestAccuracy))

	metrics.CVMean, metrics.CVStd, err = crossValidate(trainX, trainY, opts.CVFolds)
	if err != nil {
		return nil, metrics, err
	}
	slog.Info("Cross-validation",
		"cv_accuracy", fmt.Sprintf("%.3f", metrics.CVMean),
		"cv_std", fmt.Sprintf("%.3f", metrics.CVStd))

	if opts.ModelDir != "" {
		if err := model.Save(opts.ModelDir); err != nil {
			return nil, metrics, err
		}
	}
	return model, metrics, nil
}

// BuildSamples converts raw results into feature vectors with Over 2.5 and
// BTTS labels. Each sample only sees matches played before it.
func BuildSamples(historical []fetcher.HistoricalMatch, minHistory, window int) ([][]float64, []int, []int) {
	sorted := make([]fetcher.HistoricalMatch, len(historical))
	copy(sorted, historical)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Date.Before(sorted[b].Date)
	})

	// per-team history, oldest first
	teamHistory := make(map[string][]models.Match)

	var X [][]float64
	var yOver25, yBTTS []int

	for _, hm := range sorted {
		homeHistory := recentFirst(teamHistory[hm.HomeTeam], window)
		awayHistory := recentFirst(teamHistory[hm.AwayTeam], window)

		if len(homeHistory) >= minHistory && len(awayHistory) >= minHistory {
			f := features.Extract(hm.HomeTeam, hm.AwayTeam, homeHistory, awayHistory, hm.League)
			X = append(X, f.Vector())

			if hm.HomeGoals+hm.AwayGoals > 2 {
				yOver25 = append(yOver25, 1)
			} else {
				yOver25 = append(yOver25, 0)
			}
			if hm.HomeGoals > 0 && hm.AwayGoals > 0 {
				yBTTS = append(yBTTS, 1)
			} else {
				yBTTS = append(yBTTS, 0)
			}
		}

		played := toMatch(hm)
		teamHistory[hm.HomeTeam] = append(teamHistory[hm.HomeTeam], played)
		teamHistory[hm.AwayTeam] = append(teamHistory[hm.AwayTeam], played)
	}
	return X, yOver25, yBTTS
}

// recentFirst returns the last `window` entries newest first.
func recentFirst(history []models.Match, window int) []models.Match {
	if len(history) > window {
		history = history[len(history)-window:]
	}
	out := make([]models.Match, len(history))
	for i, m := range history {
		out[len(history)-1-i] = m
	}
	return out
}

func toMatch(hm fetcher.HistoricalMatch) models.Match {
	home, away := hm.HomeGoals, hm.AwayGoals
	return models.Match{
		UTCDate:  hm.Date,
		Status:   models.StatusFinished,
		HomeTeam: models.Team{Name: hm.HomeTeam},
		AwayTeam: models.Team{Name: hm.AwayTeam},
		Score: models.Score{
			FullTime: models.ScoreLine{Home: &home, Away: &away},
		},
	}
}

func split(X [][]float64, y []int, testFraction float64, seed int64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	rng := rand.New(rand.NewSource(seed))
	indices := rng.Perm(len(X))

	testSize := int(float64(len(X)) * testFraction)
	for i, idx := range indices {
		if i < testSize {
			testX = append(testX, X[idx])
			testY = append(testY, y[idx])
		} else {
			trainX = append(trainX, X[idx])
			trainY = append(trainY, y[idx])
		}
	}
	return trainX, trainY, testX, testY
}

func accuracy(model *predictor.Model, X [][]float64, y []int) float64 {
	if len(X) == 0 {
		return 0
	}
	correct := 0
	for i, row := range X {
		p := model.PredictVector(row)
		if (p >= 0.5 && y[i] == 1) || (p < 0.5 && y[i] == 0) {
			correct++
		}
	}
	return float64(correct) / float64(len(X))
}

func crossValidate(X [][]float64, y []int, folds int) (mean, std float64, err error) {
	if folds < 2 || len(X) < folds {
		return 0, 0, fmt.Errorf("cross-validation needs at least %d samples, got %d", folds, len(X))
	}

	scores := make([]float64, 0, folds)
	for fold := 0; fold < folds; fold++ {
		var trainX, holdX [][]float64
		var trainY, holdY []int
		for i := range X {
			if i%folds == fold {
				holdX = append(holdX, X[i])
				holdY = append(holdY, y[i])
			} else {
				trainX = append(trainX, X[i])
				trainY = append(trainY, y[i])
			}
		}

		foldModel := predictor.NewModel()
		if err := foldModel.Fit(trainX, trainY); err != nil {
			return 0, 0, fmt.Errorf("cross-validation fold %d: %w", fold, err)
		}
		scores = append(scores, accuracy(foldModel, holdX, holdY))
	}

	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))
	for _, s := range scores {
		std += (s - mean) * (s - mean)
	}
	std = math.Sqrt(std / float64(len(scores)))
	return mean, std, nil
}
