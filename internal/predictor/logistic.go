package predictor

import (
	"fmt"
	"math"
)

// LogisticRegression is an L2-regularised binary classifier trained with
// full-batch gradient descent and balanced class weights.
type LogisticRegression struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`

	C            float64 `json:"c"`
	MaxIter      int     `json:"max_iter"`
	LearningRate float64 `json:"learning_rate"`
}

func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		C:            1.0,
		MaxIter:      500,
		LearningRate: 0.1,
	}
}

func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("logistic regression: invalid training data: %d rows, %d labels", len(X), len(y))
	}
	dims := len(X[0])
	m.Weights = make([]float64, dims)
	m.Bias = 0

	weights := balancedSampleWeights(y)
	n := float64(len(X))
	lambda := 1 / m.C

	gradW := make([]float64, dims)
	for iter := 0; iter < m.MaxIter; iter++ {
		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0

		for i, row := range X {
			p := m.PredictProba(row)
			resid := (p - float64(y[i])) * weights[i]
			for j, v := range row {
				gradW[j] += resid * v
			}
			gradB += resid
		}

		for j := range m.Weights {
			grad := gradW[j]/n + lambda*m.Weights[j]/n
			m.Weights[j] -= m.LearningRate * grad
		}
		m.Bias -= m.LearningRate * gradB / n
	}
	return nil
}

// PredictProba returns the probability of the positive class.
func (m *LogisticRegression) PredictProba(x []float64) float64 {
	z := m.Bias
	for j, v := range x {
		z += m.Weights[j] * v
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	// clamp to keep exp from overflowing
	if z > 35 {
		return 1
	}
	if z < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}

// balancedSampleWeights mirrors class_weight="balanced": each class gets
// total weight n/2 regardless of its frequency.
func balancedSampleWeights(y []int) []float64 {
	pos := 0
	for _, label := range y {
		if label == 1 {
			pos++
		}
	}
	neg := len(y) - pos
	n := float64(len(y))

	posWeight, negWeight := 1.0, 1.0
	if pos > 0 {
		posWeight = n / (2 * float64(pos))
	}
	if neg > 0 {
		negWeight = n / (2 * float64(neg))
	}

	weights := make([]float64, len(y))
	for i, label := range y {
		if label == 1 {
			weights[i] = posWeight
		} else {
			weights[i] = negWeight
		}
	}
	return weights
}
