package features

import (
	"math"

	"github.com/mzielinski/goalcast/internal/pkg/models"
)

// Count is the size of the feature vector. Training and inference both rely on
// Vector producing exactly this many values in the order of Names.
const Count = 36

// defaultLeagueAvgGoals is used for leagues without a known per-season average.
const defaultLeagueAvgGoals = 2.75

// leagueAvgGoals holds average total goals per match for the supported leagues.
var leagueAvgGoals = map[string]float64{
	"Premier League": 2.82,
	"La Liga":        2.63,
	"Serie A":        2.89,
	"Bundesliga":     3.11,
	"Ligue 1":        2.71,
}

// Names lists the feature vector layout. The order is load-bearing: a model
// trained against one layout must never be fed another.
var Names = []string{
	"home_goals_avg_5",
	"away_goals_avg_5",
	"home_goals_avg_10",
	"away_goals_avg_10",
	"home_points_form_3",
	"away_points_form_3",
	"home_points_form_5",
	"home_attack_strength",
	"away_attack_strength",
	"home_defense_strength",
	"away_defense_strength",
	"home_goals_trend",
	"away_goals_trend",
	"home_conceded_trend",
	"away_conceded_trend",
	"home_advantage",
	"league_avg_goals",
	"home_rest_days",
	"away_rest_days",
	"h2h_goals_avg",
	"h2h_btts_rate",
	"home_goal_diff",
	"away_goal_diff",
	"lambda_home",
	"lambda_away",
	"expected_total_goals",
	"poisson_over25",
	"home_wins_pct",
	"away_wins_pct",
	"home_over25_rate",
	"away_over25_rate",
	"home_btts_rate",
	"away_btts_rate",
	"home_clean_sheet_rate",
	"away_clean_sheet_rate",
	"combined_form",
}

// MatchFeatures is the full engineered feature set for one fixture.
type MatchFeatures struct {
	HomeGoalsAvg5  float64
	AwayGoalsAvg5  float64
	HomeGoalsAvg10 float64
	AwayGoalsAvg10 float64

	HomePointsForm3 float64
	AwayPointsForm3 float64
	HomePointsForm5 float64

	HomeAttackStrength  float64
	AwayAttackStrength  float64
	HomeDefenseStrength float64
	AwayDefenseStrength float64

	HomeGoalsTrend    float64
	AwayGoalsTrend    float64
	HomeConcededTrend float64
	AwayConcededTrend float64

	HomeAdvantage  float64
	LeagueAvgGoals float64
	HomeRestDays   float64
	AwayRestDays   float64

	H2HGoalsAvg float64
	H2HBTTSRate float64

	HomeGoalDiff float64
	AwayGoalDiff float64

	LambdaHome         float64
	LambdaAway         float64
	ExpectedTotalGoals float64
	PoissonOver25      float64

	HomeWinsPct        float64
	AwayWinsPct        float64
	HomeOver25Rate     float64
	AwayOver25Rate     float64
	HomeBTTSRate       float64
	AwayBTTSRate       float64
	HomeCleanSheetRate float64
	AwayCleanSheetRate float64
	CombinedForm       float64
}

// Extract computes all 36 features for a fixture. Histories must be ordered
// most recent first; partially recorded matches are skipped per-stat.
func Extract(homeTeam, awayTeam string, homeHistory, awayHistory []models.Match, league string) MatchFeatures {
	var f MatchFeatures

	// Form & momentum
	f.HomeGoalsAvg5 = goalsAvg(head(homeHistory, 5), homeTeam)
	f.AwayGoalsAvg5 = goalsAvg(head(awayHistory, 5), awayTeam)
	f.HomeGoalsAvg10 = goalsAvg(head(homeHistory, 10), homeTeam)
	f.AwayGoalsAvg10 = goalsAvg(head(awayHistory, 10), awayTeam)

	f.HomePointsForm3 = pointsForm(head(homeHistory, 3), homeTeam)
	f.AwayPointsForm3 = pointsForm(head(awayHistory, 3), awayTeam)
	f.HomePointsForm5 = pointsForm(head(homeHistory, 5), homeTeam)

	// Attack/defense strength, normalised by half the league average
	leagueAvg := leagueAvgGoals[league]
	if leagueAvg == 0 {
		leagueAvg = defaultLeagueAvgGoals
	}
	halfAvg := leagueAvg / 2

	f.HomeAttackStrength = f.HomeGoalsAvg10 / halfAvg
	f.AwayAttackStrength = f.AwayGoalsAvg10 / halfAvg
	f.HomeDefenseStrength = concededAvg(head(homeHistory, 10), homeTeam) / halfAvg
	f.AwayDefenseStrength = concededAvg(head(awayHistory, 10), awayTeam) / halfAvg

	f.HomeGoalsTrend = f.HomeGoalsAvg5 - goalsAvg(slice(homeHistory, 5, 10), homeTeam)
	f.AwayGoalsTrend = f.AwayGoalsAvg5 - goalsAvg(slice(awayHistory, 5, 10), awayTeam)
	f.HomeConcededTrend = concededAvg(head(homeHistory, 5), homeTeam) - concededAvg(slice(homeHistory, 5, 10), homeTeam)
	f.AwayConcededTrend = concededAvg(head(awayHistory, 5), awayTeam) - concededAvg(slice(awayHistory, 5, 10), awayTeam)

	// Match context
	f.HomeAdvantage = 1.0
	f.LeagueAvgGoals = leagueAvg
	f.HomeRestDays = 7
	f.AwayRestDays = 7

	combined := append(append([]models.Match{}, homeHistory...), awayHistory...)
	f.H2HGoalsAvg = h2hGoalsAvg(homeTeam, awayTeam, combined)
	f.H2HBTTSRate = h2hBTTSRate(homeTeam, awayTeam, combined)

	f.HomeGoalDiff = goalDifference(head(homeHistory, 10), homeTeam)
	f.AwayGoalDiff = goalDifference(head(awayHistory, 10), awayTeam)

	// Poisson parameters
	f.LambdaHome = f.HomeAttackStrength * f.AwayDefenseStrength * halfAvg
	f.LambdaAway = f.AwayAttackStrength * f.HomeDefenseStrength * halfAvg
	f.ExpectedTotalGoals = f.LambdaHome + f.LambdaAway
	f.PoissonOver25 = PoissonOverProb(f.LambdaHome, f.LambdaAway, 2.5)

	// Advanced stats
	f.HomeWinsPct = winRate(head(homeHistory, 10), homeTeam)
	f.AwayWinsPct = winRate(head(awayHistory, 10), awayTeam)
	f.HomeOver25Rate = overRate(head(homeHistory, 10), 2.5)
	f.AwayOver25Rate = overRate(head(awayHistory, 10), 2.5)
	f.HomeBTTSRate = bttsRate(head(homeHistory, 10))
	f.AwayBTTSRate = bttsRate(head(awayHistory, 10))
	f.HomeCleanSheetRate = cleanSheetRate(head(homeHistory, 10), homeTeam)
	f.AwayCleanSheetRate = cleanSheetRate(head(awayHistory, 10), awayTeam)
	f.CombinedForm = (f.HomePointsForm5 + f.AwayPointsForm3) / 2

	return f
}

// Vector flattens the features in the order of Names.
func (f MatchFeatures) Vector() []float64 {
	return []float64{
		f.HomeGoalsAvg5,
		f.AwayGoalsAvg5,
		f.HomeGoalsAvg10,
		f.AwayGoalsAvg10,
		f.HomePointsForm3,
		f.AwayPointsForm3,
		f.HomePointsForm5,
		f.HomeAttackStrength,
		f.AwayAttackStrength,
		f.HomeDefenseStrength,
		f.AwayDefenseStrength,
		f.HomeGoalsTrend,
		f.AwayGoalsTrend,
		f.HomeConcededTrend,
		f.AwayConcededTrend,
		f.HomeAdvantage,
		f.LeagueAvgGoals,
		f.HomeRestDays,
		f.AwayRestDays,
		f.H2HGoalsAvg,
		f.H2HBTTSRate,
		f.HomeGoalDiff,
		f.AwayGoalDiff,
		f.LambdaHome,
		f.LambdaAway,
		f.ExpectedTotalGoals,
		f.PoissonOver25,
		f.HomeWinsPct,
		f.AwayWinsPct,
		f.HomeOver25Rate,
		f.AwayOver25Rate,
		f.HomeBTTSRate,
		f.AwayBTTSRate,
		f.HomeCleanSheetRate,
		f.AwayCleanSheetRate,
		f.CombinedForm,
	}
}

func head(matches []models.Match, n int) []models.Match {
	if len(matches) < n {
		return matches
	}
	return matches[:n]
}

func slice(matches []models.Match, from, to int) []models.Match {
	if from >= len(matches) {
		return nil
	}
	if to > len(matches) {
		to = len(matches)
	}
	return matches[from:to]
}

func goalsAvg(matches []models.Match, team string) float64 {
	sum, n := 0, 0
	for _, m := range matches {
		if g, ok := m.GoalsFor(team); ok {
			sum += g
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func concededAvg(matches []models.Match, team string) float64 {
	sum, n := 0, 0
	for _, m := range matches {
		if g, ok := m.GoalsAgainst(team); ok {
			sum += g
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func pointsForm(matches []models.Match, team string) float64 {
	points := 0
	for _, m := range matches {
		if !m.HasFullTimeScore() {
			continue
		}
		hg, ag := *m.Score.FullTime.Home, *m.Score.FullTime.Away
		switch team {
		case m.HomeTeam.Name:
			if hg > ag {
				points += 3
			} else if hg == ag {
				points++
			}
		case m.AwayTeam.Name:
			if ag > hg {
				points += 3
			} else if ag == hg {
				points++
			}
		}
	}
	return float64(points)
}

func goalDifference(matches []models.Match, team string) float64 {
	diff := 0
	for _, m := range matches {
		gf, okFor := m.GoalsFor(team)
		ga, okAgainst := m.GoalsAgainst(team)
		if okFor && okAgainst {
			diff += gf - ga
		}
	}
	return float64(diff)
}

func h2hMatches(home, away string, matches []models.Match) []models.Match {
	var out []models.Match
	for _, m := range matches {
		if (m.HomeTeam.Name == home && m.AwayTeam.Name == away) ||
			(m.HomeTeam.Name == away && m.AwayTeam.Name == home) {
			out = append(out, m)
		}
	}
	return out
}

func h2hGoalsAvg(home, away string, matches []models.Match) float64 {
	sum, n := 0, 0
	for _, m := range h2hMatches(home, away, matches) {
		if m.HasFullTimeScore() {
			sum += m.TotalGoals()
			n++
		}
	}
	if n == 0 {
		return defaultLeagueAvgGoals
	}
	return float64(sum) / float64(n)
}

func h2hBTTSRate(home, away string, matches []models.Match) float64 {
	h2h := h2hMatches(home, away, matches)
	if len(h2h) == 0 {
		return 0.5
	}
	count := 0
	for _, m := range h2h {
		if m.BothTeamsScored() {
			count++
		}
	}
	return float64(count) / float64(len(h2h))
}

func overRate(matches []models.Match, threshold float64) float64 {
	if len(matches) == 0 {
		return 0
	}
	count := 0
	for _, m := range matches {
		if float64(m.TotalGoals()) > threshold {
			count++
		}
	}
	return float64(count) / float64(len(matches))
}

func bttsRate(matches []models.Match) float64 {
	if len(matches) == 0 {
		return 0
	}
	count := 0
	for _, m := range matches {
		if m.BothTeamsScored() {
			count++
		}
	}
	return float64(count) / float64(len(matches))
}

func winRate(matches []models.Match, team string) float64 {
	if len(matches) == 0 {
		return 0
	}
	wins := 0
	for _, m := range matches {
		if !m.HasFullTimeScore() {
			continue
		}
		hg, ag := *m.Score.FullTime.Home, *m.Score.FullTime.Away
		if m.HomeTeam.Name == team && hg > ag {
			wins++
		} else if m.HomeTeam.Name != team && ag > hg {
			wins++
		}
	}
	return float64(wins) / float64(len(matches))
}

func cleanSheetRate(matches []models.Match, team string) float64 {
	if len(matches) == 0 {
		return 0
	}
	cs := 0
	for _, m := range matches {
		if !m.HasFullTimeScore() {
			continue
		}
		hg, ag := *m.Score.FullTime.Home, *m.Score.FullTime.Away
		if m.HomeTeam.Name == team && ag == 0 {
			cs++
		} else if m.HomeTeam.Name != team && hg == 0 {
			cs++
		}
	}
	return float64(cs) / float64(len(matches))
}

// PoissonOverProb is the analytic probability of total goals exceeding the
// threshold given independent Poisson goal counts for both sides.
func PoissonOverProb(lambdaHome, lambdaAway, threshold float64) float64 {
	limit := int(threshold) + 1
	probUnder := 0.0
	for h := 0; h <= limit; h++ {
		for a := 0; h+a <= limit; a++ {
			if float64(h+a) <= threshold {
				probUnder += PoissonPMF(lambdaHome, h) * PoissonPMF(lambdaAway, a)
			}
		}
	}
	return 1 - probUnder
}

// PoissonPMF calculates P(X = k) for X ~ Poisson(lambda) in log space for
// numerical stability.
func PoissonPMF(lambda float64, k int) float64 {
	if k < 0 {
		return 0
	}
	if lambda <= 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	logProb := float64(k)*math.Log(lambda) - lambda - logFactorial(k)
	return math.Exp(logProb)
}

func logFactorial(n int) float64 {
	if n <= 1 {
		return 0
	}
	result := 0.0
	for i := 2; i <= n; i++ {
		result += math.Log(float64(i))
	}
	return result
}
