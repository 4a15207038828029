package predictor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/mzielinski/goalcast/internal/features"
)

const (
	modelFile  = "over25_model.json"
	scalerFile = "feature_scaler.json"
)

// calibrationFolds is the number of folds used to collect out-of-fold scores
// for Platt calibration.
const calibrationFolds = 5

// Over25Prediction is the calibrated Over 2.5 output for one fixture.
type Over25Prediction struct {
	Probability float64 `json:"probability"`
	Confidence  string  `json:"confidence"`
	LowerBound  float64 `json:"lower_bound"`
	UpperBound  float64 `json:"upper_bound"`
}

// Model is the trained hybrid predictor: scaled features into a calibrated
// voting ensemble for Over 2.5, adaptive Poisson for BTTS.
type Model struct {
	Scaler     *StandardScaler    `json:"-"`
	Ensemble   *VotingEnsemble    `json:"ensemble"`
	Calibrator *SigmoidCalibrator `json:"calibrator"`

	FeatureNames []string  `json:"feature_names"`
	TrainedAt    time.Time `json:"trained_at"`
}

// NewModel builds an untrained model with the current feature layout.
func NewModel() *Model {
	return &Model{
		Scaler:       &StandardScaler{},
		Ensemble:     NewOver25Ensemble(),
		Calibrator:   NewSigmoidCalibrator(),
		FeatureNames: append([]string{}, features.Names...),
	}
}

// Fit trains the scaler, the ensemble and the calibrator. Calibration is fit
// on out-of-fold ensemble scores, then the ensemble is refit on all data.
func (m *Model) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("model: invalid training data: %d rows, %d labels", len(X), len(y))
	}

	if err := m.Scaler.Fit(X); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	scaled := m.Scaler.TransformAll(X)

	oofScores, oofLabels, err := m.outOfFoldScores(scaled, y)
	if err != nil {
		return err
	}
	if err := m.Calibrator.Fit(oofScores, oofLabels); err != nil {
		return fmt.Errorf("model: %w", err)
	}

	if err := m.Ensemble.Fit(scaled, y); err != nil {
		return err
	}
	m.TrainedAt = time.Now().UTC()
	return nil
}

func (m *Model) outOfFoldScores(scaled [][]float64, y []int) ([]float64, []int, error) {
	folds := calibrationFolds
	if len(scaled) < folds {
		return nil, nil, fmt.Errorf("model: need at least %d samples for calibration, got %d", folds, len(scaled))
	}

	scores := make([]float64, 0, len(scaled))
	labels := make([]int, 0, len(scaled))
	for fold := 0; fold < folds; fold++ {
		var trainX, holdX [][]float64
		var trainY []int
		var holdY []int
		for i := range scaled {
			if i%folds == fold {
				holdX = append(holdX, scaled[i])
				holdY = append(holdY, y[i])
			} else {
				trainX = append(trainX, scaled[i])
				trainY = append(trainY, y[i])
			}
		}

		foldEnsemble := m.Ensemble.clone()
		if err := foldEnsemble.Fit(trainX, trainY); err != nil {
			return nil, nil, fmt.Errorf("model: calibration fold %d: %w", fold, err)
		}
		for i, x := range holdX {
			scores = append(scores, foldEnsemble.PredictProba(x))
			labels = append(labels, holdY[i])
		}
	}
	return scores, labels, nil
}

// PredictOver25 returns the calibrated Over 2.5 probability with a confidence
// label and ±0.08 bounds.
func (m *Model) PredictOver25(f features.MatchFeatures) (Over25Prediction, error) {
	if m.Ensemble == nil || len(m.Ensemble.LogReg.Weights) == 0 {
		return Over25Prediction{}, fmt.Errorf("model not trained")
	}

	x := m.Scaler.Transform(f.Vector())
	proba := m.Calibrator.Calibrate(m.Ensemble.PredictProba(x))

	confidence := "Low"
	switch {
	case proba >= 0.75:
		confidence = "High"
	case proba >= 0.65:
		confidence = "Medium"
	}

	return Over25Prediction{
		Probability: proba,
		Confidence:  confidence,
		LowerBound:  math.Max(0, proba-0.08),
		UpperBound:  math.Min(1, proba+0.08),
	}, nil
}

// PredictVector returns the calibrated Over 2.5 probability for a raw
// (unscaled) feature vector. Used by training evaluation.
func (m *Model) PredictVector(x []float64) float64 {
	scaled := m.Scaler.Transform(x)
	return m.Calibrator.Calibrate(m.Ensemble.PredictProba(scaled))
}

// PredictBTTS is the adaptive Poisson BTTS probability: both sides score at
// least once, damped for low-scoring matchups.
func (m *Model) PredictBTTS(lambdaHome, lambdaAway, contextMultiplier float64) float64 {
	pHomeScores := 1 - features.PoissonPMF(lambdaHome*contextMultiplier, 0)
	pAwayScores := 1 - features.PoissonPMF(lambdaAway*contextMultiplier, 0)
	pBTTS := pHomeScores * pAwayScores

	if lambdaHome < 1.0 || lambdaAway < 1.0 {
		pBTTS *= 0.92
	}
	return pBTTS
}

// Save writes the trained model and scaler as JSON files under dir.
func (m *Model) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("model: failed to create %s: %w", dir, err)
	}
	if err := writeJSON(filepath.Join(dir, modelFile), m); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, scalerFile), m.Scaler); err != nil {
		return err
	}
	slog.Info("Model saved", "dir", dir)
	return nil
}

// Load reads a previously saved model and scaler from dir.
func Load(dir string) (*Model, error) {
	model := NewModel()
	if err := readJSON(filepath.Join(dir, modelFile), model); err != nil {
		return nil, err
	}
	scaler := &StandardScaler{}
	if err := readJSON(filepath.Join(dir, scalerFile), scaler); err != nil {
		return nil, err
	}
	model.Scaler = scaler

	if len(model.FeatureNames) != features.Count {
		return nil, fmt.Errorf("model: feature layout mismatch: saved %d features, expected %d",
			len(model.FeatureNames), features.Count)
	}
	return model, nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("model: failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("model: failed to write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("model: failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("model: failed to decode %s: %w", path, err)
	}
	return nil
}
