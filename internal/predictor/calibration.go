package predictor

import "fmt"

// SigmoidCalibrator maps raw ensemble scores to calibrated probabilities with
// Platt scaling: p = sigmoid(A*score + B).
type SigmoidCalibrator struct {
	A float64 `json:"a"`
	B float64 `json:"b"`

	MaxIter      int     `json:"max_iter"`
	LearningRate float64 `json:"learning_rate"`
}

func NewSigmoidCalibrator() *SigmoidCalibrator {
	return &SigmoidCalibrator{
		A:            1,
		B:            0,
		MaxIter:      2000,
		LearningRate: 0.1,
	}
}

// Fit minimises the log loss of sigmoid(A*score+B) against the labels by
// gradient descent. Scores should be out-of-fold to avoid optimistic calibration.
func (c *SigmoidCalibrator) Fit(scores []float64, y []int) error {
	if len(scores) == 0 || len(scores) != len(y) {
		return fmt.Errorf("calibrator: invalid training data: %d scores, %d labels", len(scores), len(y))
	}

	n := float64(len(scores))
	for iter := 0; iter < c.MaxIter; iter++ {
		gradA, gradB := 0.0, 0.0
		for i, s := range scores {
			p := sigmoid(c.A*s + c.B)
			resid := p - float64(y[i])
			gradA += resid * s
			gradB += resid
		}
		c.A -= c.LearningRate * gradA / n
		c.B -= c.LearningRate * gradB / n
	}
	return nil
}

// Calibrate maps a raw score to a calibrated probability.
func (c *SigmoidCalibrator) Calibrate(score float64) float64 {
	return sigmoid(c.A*score + c.B)
}
