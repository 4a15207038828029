package predictor

import (
	"fmt"
	"math"
	"math/rand"
)

// GradientBoosting is a boosted ensemble of shallow regression trees on the
// logistic loss, with an extra weight on positive samples.
type GradientBoosting struct {
	InitScore float64     `json:"init_score"`
	Trees     []*TreeNode `json:"trees"`

	NumRounds      int     `json:"num_rounds"`
	MaxDepth       int     `json:"max_depth"`
	LearningRate   float64 `json:"learning_rate"`
	PosClassWeight float64 `json:"pos_class_weight"`
	Seed           int64   `json:"seed"`
}

func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{
		NumRounds:      150,
		MaxDepth:       8,
		LearningRate:   0.1,
		PosClassWeight: 1.5,
		Seed:           42,
	}
}

func (m *GradientBoosting) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("gradient boosting: invalid training data: %d rows, %d labels", len(X), len(y))
	}

	n := len(X)
	weight := make([]float64, n)
	wPos, wTotal := 0.0, 0.0
	for i, label := range y {
		weight[i] = 1
		if label == 1 {
			weight[i] = m.PosClassWeight
			wPos += weight[i]
		}
		wTotal += weight[i]
	}

	// initial score is the weighted base-rate log odds
	p0 := wPos / wTotal
	p0 = math.Min(math.Max(p0, 1e-6), 1-1e-6)
	m.InitScore = math.Log(p0 / (1 - p0))

	score := make([]float64, n)
	for i := range score {
		score[i] = m.InitScore
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	residual := make([]float64, n)
	rng := rand.New(rand.NewSource(m.Seed))

	m.Trees = make([]*TreeNode, 0, m.NumRounds)
	for round := 0; round < m.NumRounds; round++ {
		for i := range residual {
			residual[i] = float64(y[i]) - sigmoid(score[i])
		}
		params := treeParams{
			maxDepth:        m.MaxDepth,
			minSamplesSplit: 2,
			rng:             rng,
		}
		tree := buildTree(X, residual, weight, indices, 0, params)
		m.Trees = append(m.Trees, tree)

		for i, row := range X {
			score[i] += m.LearningRate * tree.Predict(row)
		}
	}
	return nil
}

// PredictProba returns the positive-class probability for one sample.
func (m *GradientBoosting) PredictProba(x []float64) float64 {
	score := m.InitScore
	for _, tree := range m.Trees {
		score += m.LearningRate * tree.Predict(x)
	}
	return sigmoid(score)
}
