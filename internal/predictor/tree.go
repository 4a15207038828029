package predictor

import (
	"math/rand"
	"sort"
)

// TreeNode is one node of a binary regression tree. Leaves carry the weighted
// mean target of their samples, which doubles as a class-1 probability when
// targets are 0/1.
type TreeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
	Value     float64   `json:"value"`
	Leaf      bool      `json:"leaf"`
}

// Predict walks the tree for one sample.
func (n *TreeNode) Predict(x []float64) float64 {
	node := n
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// treeParams controls tree growth.
type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	// maxFeatures limits the candidate features per split; 0 means all.
	maxFeatures int
	rng         *rand.Rand
}

// buildTree grows a regression tree on weighted targets by variance reduction.
// For 0/1 targets the weighted variance criterion coincides with gini impurity.
func buildTree(X [][]float64, target, weight []float64, indices []int, depth int, p treeParams) *TreeNode {
	node := &TreeNode{Value: weightedMean(target, weight, indices), Leaf: true}

	if depth >= p.maxDepth || len(indices) < p.minSamplesSplit {
		return node
	}

	feature, threshold, ok := bestSplit(X, target, weight, indices, p)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range indices {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return node
	}

	node.Leaf = false
	node.Feature = feature
	node.Threshold = threshold
	node.Left = buildTree(X, target, weight, left, depth+1, p)
	node.Right = buildTree(X, target, weight, right, depth+1, p)
	return node
}

func bestSplit(X [][]float64, target, weight []float64, indices []int, p treeParams) (int, float64, bool) {
	dims := len(X[0])
	candidates := make([]int, dims)
	for j := range candidates {
		candidates[j] = j
	}
	if p.maxFeatures > 0 && p.maxFeatures < dims {
		p.rng.Shuffle(dims, func(a, b int) {
			candidates[a], candidates[b] = candidates[b], candidates[a]
		})
		candidates = candidates[:p.maxFeatures]
	}

	bestImpurity := weightedSSE(target, weight, indices)
	if bestImpurity <= 1e-12 {
		return 0, 0, false
	}
	bestFeature, bestThreshold, found := 0, 0.0, false

	sorted := make([]int, len(indices))
	for _, feature := range candidates {
		copy(sorted, indices)
		sort.Slice(sorted, func(a, b int) bool {
			return X[sorted[a]][feature] < X[sorted[b]][feature]
		})

		// running weighted sums from the left
		var wLeft, sLeft, sqLeft float64
		wTotal, sTotal, sqTotal := weightedSums(target, weight, indices)

		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			w := weight[i]
			wLeft += w
			sLeft += w * target[i]
			sqLeft += w * target[i] * target[i]

			// only split between distinct feature values
			if X[sorted[k]][feature] == X[sorted[k+1]][feature] {
				continue
			}

			wRight := wTotal - wLeft
			if wLeft <= 0 || wRight <= 0 {
				continue
			}
			sRight := sTotal - sLeft
			sqRight := sqTotal - sqLeft

			impurity := (sqLeft - sLeft*sLeft/wLeft) + (sqRight - sRight*sRight/wRight)
			if impurity < bestImpurity-1e-12 {
				bestImpurity = impurity
				bestFeature = feature
				bestThreshold = (X[sorted[k]][feature] + X[sorted[k+1]][feature]) / 2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func weightedSums(target, weight []float64, indices []int) (w, s, sq float64) {
	for _, i := range indices {
		w += weight[i]
		s += weight[i] * target[i]
		sq += weight[i] * target[i] * target[i]
	}
	return w, s, sq
}

func weightedMean(target, weight []float64, indices []int) float64 {
	w, s, _ := weightedSums(target, weight, indices)
	if w == 0 {
		return 0
	}
	return s / w
}

func weightedSSE(target, weight []float64, indices []int) float64 {
	w, s, sq := weightedSums(target, weight, indices)
	if w == 0 {
		return 0
	}
	return sq - s*s/w
}
