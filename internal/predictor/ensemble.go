package predictor

import (
	"fmt"
	"log/slog"
)

// VotingEnsemble soft-votes three base classifiers: logistic regression,
// random forest and gradient-boosted trees.
type VotingEnsemble struct {
	LogReg   *LogisticRegression `json:"logreg"`
	Forest   *RandomForest       `json:"forest"`
	Boosting *GradientBoosting   `json:"boosting"`
	Weights  [3]float64          `json:"weights"`
}

// NewOver25Ensemble builds the untrained Over 2.5 ensemble.
func NewOver25Ensemble() *VotingEnsemble {
	return &VotingEnsemble{
		LogReg:   NewLogisticRegression(),
		Forest:   NewRandomForest(),
		Boosting: NewGradientBoosting(),
		Weights:  [3]float64{0.40, 0.35, 0.25},
	}
}

func (e *VotingEnsemble) Fit(X [][]float64, y []int) error {
	slog.Debug("Fitting ensemble", "samples", len(X))
	if err := e.LogReg.Fit(X, y); err != nil {
		return fmt.Errorf("ensemble: %w", err)
	}
	if err := e.Forest.Fit(X, y); err != nil {
		return fmt.Errorf("ensemble: %w", err)
	}
	if err := e.Boosting.Fit(X, y); err != nil {
		return fmt.Errorf("ensemble: %w", err)
	}
	return nil
}

// PredictProba returns the weighted average of the base classifier probabilities.
func (e *VotingEnsemble) PredictProba(x []float64) float64 {
	total := e.Weights[0] + e.Weights[1] + e.Weights[2]
	p := e.Weights[0]*e.LogReg.PredictProba(x) +
		e.Weights[1]*e.Forest.PredictProba(x) +
		e.Weights[2]*e.Boosting.PredictProba(x)
	return p / total
}

func (e *VotingEnsemble) clone() *VotingEnsemble {
	clone := NewOver25Ensemble()
	clone.Weights = e.Weights
	clone.LogReg.C = e.LogReg.C
	clone.LogReg.MaxIter = e.LogReg.MaxIter
	clone.LogReg.LearningRate = e.LogReg.LearningRate
	clone.Forest.NumTrees = e.Forest.NumTrees
	clone.Forest.MaxDepth = e.Forest.MaxDepth
	clone.Forest.MinSamplesSplit = e.Forest.MinSamplesSplit
	clone.Forest.Seed = e.Forest.Seed
	clone.Boosting.NumRounds = e.Boosting.NumRounds
	clone.Boosting.MaxDepth = e.Boosting.MaxDepth
	clone.Boosting.LearningRate = e.Boosting.LearningRate
	clone.Boosting.PosClassWeight = e.Boosting.PosClassWeight
	clone.Boosting.Seed = e.Boosting.Seed
	return clone
}
