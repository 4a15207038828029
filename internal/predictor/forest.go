package predictor

import (
	"fmt"
	"math"
	"math/rand"
)

// RandomForest is a bagged ensemble of probability trees with balanced class
// weights and sqrt-feature subsampling at each split.
type RandomForest struct {
	Trees []*TreeNode `json:"trees"`

	NumTrees        int   `json:"num_trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	Seed            int64 `json:"seed"`
}

func NewRandomForest() *RandomForest {
	return &RandomForest{
		NumTrees:        200,
		MaxDepth:        15,
		MinSamplesSplit: 10,
		Seed:            42,
	}
}

func (m *RandomForest) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("random forest: invalid training data: %d rows, %d labels", len(X), len(y))
	}

	rng := rand.New(rand.NewSource(m.Seed))
	n := len(X)
	dims := len(X[0])
	maxFeatures := int(math.Sqrt(float64(dims)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	target := make([]float64, n)
	for i, label := range y {
		target[i] = float64(label)
	}
	weight := balancedSampleWeights(y)

	m.Trees = make([]*TreeNode, 0, m.NumTrees)
	for t := 0; t < m.NumTrees; t++ {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = rng.Intn(n)
		}
		params := treeParams{
			maxDepth:        m.MaxDepth,
			minSamplesSplit: m.MinSamplesSplit,
			maxFeatures:     maxFeatures,
			rng:             rng,
		}
		m.Trees = append(m.Trees, buildTree(X, target, weight, indices, 0, params))
	}
	return nil
}

// PredictProba averages the per-tree leaf probabilities.
func (m *RandomForest) PredictProba(x []float64) float64 {
	if len(m.Trees) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, tree := range m.Trees {
		sum += tree.Predict(x)
	}
	return sum / float64(len(m.Trees))
}
