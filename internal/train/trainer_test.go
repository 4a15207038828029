package train

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzielinski/goalcast/internal/features"
	"github.com/mzielinski/goalcast/internal/fetcher"
	"github.com/mzielinski/goalcast/internal/pkg/models"
)

func day(n int) time.Time {
	return time.Date(2023, 8, 1, 15, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// roundRobin generates a schedule where every team plays every other team
// once per cycle, with scores that make labels deterministic.
func roundRobin(teams []string, cycles int) []fetcher.HistoricalMatch {
	var out []fetcher.HistoricalMatch
	d := 0
	for c := 0; c < cycles; c++ {
		for i := range teams {
			for j := range teams {
				if i == j {
					continue
				}
				out = append(out, fetcher.HistoricalMatch{
					Date:      day(d),
					League:    "Premier League",
					HomeTeam:  teams[i],
					AwayTeam:  teams[j],
					HomeGoals: (i + c) % 3,
					AwayGoals: (j + c) % 2,
				})
				d++
			}
		}
	}
	return out
}

func TestBuildSamplesMinHistory(t *testing.T) {
	teams := []string{"A", "B", "C", "D"}
	historical := roundRobin(teams, 3) // each team plays 18 matches

	X, yOver25, yBTTS := BuildSamples(historical, 4, 10)
	require.NotEmpty(t, X)
	assert.Len(t, yOver25, len(X))
	assert.Len(t, yBTTS, len(X))

	for _, row := range X {
		assert.Len(t, row, features.Count)
	}

	// with a higher floor, fewer matches qualify
	strictX, _, _ := BuildSamples(historical, 10, 10)
	assert.Less(t, len(strictX), len(X))
}

func TestBuildSamplesLabels(t *testing.T) {
	teams := []string{"A", "B", "C", "D"}
	historical := roundRobin(teams, 3)

	// reproduce the label rule against the chronologically sorted tail
	X, yOver25, yBTTS := BuildSamples(historical, 4, 10)
	require.NotEmpty(t, X)
	for _, label := range yOver25 {
		assert.Contains(t, []int{0, 1}, label)
	}
	for _, label := range yBTTS {
		assert.Contains(t, []int{0, 1}, label)
	}
}

func TestBuildSamplesChronological(t *testing.T) {
	// a team's first matches never produce samples, regardless of input order
	historical := roundRobin([]string{"A", "B"}, 2)
	// shuffle: feed newest first
	reversed := make([]fetcher.HistoricalMatch, len(historical))
	for i, hm := range historical {
		reversed[len(historical)-1-i] = hm
	}

	X1, y1, _ := BuildSamples(historical, 2, 10)
	X2, y2, _ := BuildSamples(reversed, 2, 10)
	assert.Equal(t, y1, y2)
	assert.Equal(t, X1, X2)
}

func TestRecentFirst(t *testing.T) {
	history := []models.Match{
		{ID: 1, UTCDate: day(0)},
		{ID: 2, UTCDate: day(1)},
		{ID: 3, UTCDate: day(2)},
	}

	out := recentFirst(history, 2)
	require.Len(t, out, 2)
	assert.Equal(t, 3, out[0].ID, "newest match first")
	assert.Equal(t, 2, out[1].ID)

	// window larger than history keeps everything
	all := recentFirst(history, 10)
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[0].ID)
	assert.Equal(t, 1, all[2].ID)
}

func TestToMatch(t *testing.T) {
	hm := fetcher.HistoricalMatch{
		Date:      day(0),
		HomeTeam:  "Arsenal",
		AwayTeam:  "Chelsea",
		HomeGoals: 2,
		AwayGoals: 1,
	}
	m := toMatch(hm)

	assert.Equal(t, models.StatusFinished, m.Status)
	assert.True(t, m.HasFullTimeScore())
	assert.Equal(t, 3, m.TotalGoals())
	assert.True(t, m.BothTeamsScored())

	goals, ok := m.GoalsFor("Arsenal")
	require.True(t, ok)
	assert.Equal(t, 2, goals)
}

func TestSplit(t *testing.T) {
	X := make([][]float64, 10)
	y := make([]int, 10)
	for i := range X {
		X[i] = []float64{float64(i)}
		y[i] = i % 2
	}

	trainX, trainY, testX, testY := split(X, y, 0.2, 42)
	assert.Len(t, testX, 2)
	assert.Len(t, trainX, 8)
	assert.Len(t, trainY, 8)
	assert.Len(t, testY, 2)

	// no sample lost or duplicated
	seen := map[float64]bool{}
	for _, row := range append(trainX, testX...) {
		assert.False(t, seen[row[0]])
		seen[row[0]] = true
	}
	assert.Len(t, seen, 10)
}
