package predictor

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableData builds a two-cluster dataset: negatives around -1, positives
// around +1 on both axes.
func separableData(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, 0, n)
	y := make([]int, 0, n)
	for i := 0; i < n; i++ {
		label := i % 2
		centre := -1.0
		if label == 1 {
			centre = 1.0
		}
		X = append(X, []float64{
			centre + rng.NormFloat64()*0.3,
			centre + rng.NormFloat64()*0.3,
		})
		y = append(y, label)
	}
	return X, y
}

func TestStandardScaler(t *testing.T) {
	X := [][]float64{{1, 10}, {2, 10}, {3, 10}}
	s := &StandardScaler{}
	require.NoError(t, s.Fit(X))

	assert.InDelta(t, 2.0, s.Mean[0], 1e-9)
	// constant feature keeps std 1 so transforms stay finite
	assert.Equal(t, 1.0, s.Std[1])

	scaled := s.Transform([]float64{2, 10})
	assert.InDelta(t, 0, scaled[0], 1e-9)
	assert.InDelta(t, 0, scaled[1], 1e-9)
}

func TestStandardScalerEmpty(t *testing.T) {
	s := &StandardScaler{}
	assert.Error(t, s.Fit(nil))
}

func TestLogisticRegressionSeparable(t *testing.T) {
	X, y := separableData(200, 1)
	m := NewLogisticRegression()
	require.NoError(t, m.Fit(X, y))

	assert.Greater(t, m.PredictProba([]float64{1, 1}), 0.8)
	assert.Less(t, m.PredictProba([]float64{-1, -1}), 0.2)
}

func TestRandomForestSeparable(t *testing.T) {
	X, y := separableData(200, 2)
	m := NewRandomForest()
	m.NumTrees = 25 // keep the test fast
	require.NoError(t, m.Fit(X, y))

	assert.Greater(t, m.PredictProba([]float64{1, 1}), 0.7)
	assert.Less(t, m.PredictProba([]float64{-1, -1}), 0.3)
}

func TestGradientBoostingSeparable(t *testing.T) {
	X, y := separableData(200, 3)
	m := NewGradientBoosting()
	m.NumRounds = 30 // keep the test fast
	require.NoError(t, m.Fit(X, y))

	assert.Greater(t, m.PredictProba([]float64{1, 1}), 0.7)
	assert.Less(t, m.PredictProba([]float64{-1, -1}), 0.3)
}

func TestSigmoidCalibrator(t *testing.T) {
	// overconfident scores: calibrator should keep ordering, fix scale
	scores := []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9}
	y := []int{0, 0, 0, 1, 1, 1}

	c := NewSigmoidCalibrator()
	require.NoError(t, c.Fit(scores, y))

	low := c.Calibrate(0.1)
	high := c.Calibrate(0.9)
	assert.Less(t, low, high, "calibration must preserve ordering")
	assert.Less(t, low, 0.5)
	assert.Greater(t, high, 0.5)
}

func TestEnsembleWeights(t *testing.T) {
	e := NewOver25Ensemble()
	assert.Equal(t, [3]float64{0.40, 0.35, 0.25}, e.Weights)
	assert.InDelta(t, 1.0, e.Weights[0]+e.Weights[1]+e.Weights[2], 1e-9)
}

func TestEnsembleSeparable(t *testing.T) {
	X, y := separableData(200, 4)
	e := NewOver25Ensemble()
	e.Forest.NumTrees = 25
	e.Boosting.NumRounds = 30
	require.NoError(t, e.Fit(X, y))

	assert.Greater(t, e.PredictProba([]float64{1, 1}), 0.7)
	assert.Less(t, e.PredictProba([]float64{-1, -1}), 0.3)
}

func TestPredictBTTS(t *testing.T) {
	m := NewModel()

	// high lambdas: both sides very likely to score
	high := m.PredictBTTS(2.5, 2.5, 1.0)
	assert.Greater(t, high, 0.7)

	// low lambdas get the 0.92 damping
	pHome := 1 - math.Exp(-0.5)
	pAway := 1 - math.Exp(-0.5)
	want := pHome * pAway * 0.92
	assert.InDelta(t, want, m.PredictBTTS(0.5, 0.5, 1.0), 1e-9)

	// context multiplier scales the lambdas
	boosted := m.PredictBTTS(1.2, 1.2, 1.5)
	plain := m.PredictBTTS(1.2, 1.2, 1.0)
	assert.Greater(t, boosted, plain)
}

func TestPredictOver25Untrained(t *testing.T) {
	m := NewModel()
	_, err := m.PredictOver25(testFeatures())
	assert.Error(t, err)
}

func TestModelSaveLoadRoundTrip(t *testing.T) {
	X, y := trainingFeatures(60, 5)
	m := NewModel()
	m.Ensemble.Forest.NumTrees = 10
	m.Ensemble.Boosting.NumRounds = 10
	require.NoError(t, m.Fit(X, y))

	dir := t.TempDir()
	require.NoError(t, m.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)

	pred, err := loaded.PredictOver25(testFeatures())
	require.NoError(t, err)
	orig, err := m.PredictOver25(testFeatures())
	require.NoError(t, err)

	assert.InDelta(t, orig.Probability, pred.Probability, 1e-9)
	assert.Equal(t, orig.Confidence, pred.Confidence)
	assert.InDelta(t, math.Max(0, pred.Probability-0.08), pred.LowerBound, 1e-9)
	assert.InDelta(t, math.Min(1, pred.Probability+0.08), pred.UpperBound, 1e-9)
}

func TestLoadMissingModel(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
