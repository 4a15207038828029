package predictor

import (
	"math/rand"

	"github.com/mzielinski/goalcast/internal/features"
)

// testFeatures is a plausible mid-table fixture feature set.
func testFeatures() features.MatchFeatures {
	return features.MatchFeatures{
		HomeGoalsAvg5:       1.6,
		AwayGoalsAvg5:       1.2,
		HomeGoalsAvg10:      1.5,
		AwayGoalsAvg10:      1.1,
		HomePointsForm3:     6,
		AwayPointsForm3:     4,
		HomePointsForm5:     9,
		HomeAttackStrength:  1.06,
		AwayAttackStrength:  0.78,
		HomeDefenseStrength: 0.92,
		AwayDefenseStrength: 1.1,
		HomeAdvantage:       1,
		LeagueAvgGoals:      2.82,
		HomeRestDays:        7,
		AwayRestDays:        7,
		H2HGoalsAvg:         2.75,
		H2HBTTSRate:         0.5,
		LambdaHome:          1.64,
		LambdaAway:          1.01,
		ExpectedTotalGoals:  2.65,
		PoissonOver25:       0.52,
		HomeWinsPct:         0.5,
		AwayWinsPct:         0.3,
		HomeOver25Rate:      0.5,
		AwayOver25Rate:      0.4,
		HomeBTTSRate:        0.5,
		AwayBTTSRate:        0.4,
		HomeCleanSheetRate:  0.3,
		AwayCleanSheetRate:  0.2,
		CombinedForm:        6.5,
	}
}

// trainingFeatures builds full-width feature vectors whose label follows the
// expected-goals column, with noise elsewhere.
func trainingFeatures(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, 0, n)
	y := make([]int, 0, n)
	for i := 0; i < n; i++ {
		label := i % 2
		row := make([]float64, features.Count)
		for j := range row {
			row[j] = rng.NormFloat64() * 0.1
		}
		// expected_total_goals and poisson_over25 carry the signal
		if label == 1 {
			row[25] = 3.2 + rng.NormFloat64()*0.2
			row[26] = 0.7 + rng.NormFloat64()*0.05
		} else {
			row[25] = 1.8 + rng.NormFloat64()*0.2
			row[26] = 0.3 + rng.NormFloat64()*0.05
		}
		X = append(X, row)
		y = append(y, label)
	}
	return X, y
}
