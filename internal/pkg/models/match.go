package models

import "time"

// Match is a fixture as returned by the football-data.org v4 API.
type Match struct {
	ID       int       `json:"id"`
	UTCDate  time.Time `json:"utcDate"`
	Status   string    `json:"status"`
	HomeTeam Team      `json:"homeTeam"`
	AwayTeam Team      `json:"awayTeam"`
	Score    Score     `json:"score"`
}

type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Score struct {
	FullTime ScoreLine `json:"fullTime"`
}

// ScoreLine goals are pointers: the API omits them for unplayed fixtures.
type ScoreLine struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// Match statuses used by the monitor.
const (
	StatusScheduled = "SCHEDULED"
	StatusTimed     = "TIMED"
	StatusFinished  = "FINISHED"
)

// IsUpcoming reports whether the fixture is still awaiting kick-off.
func (m Match) IsUpcoming() bool {
	return m.Status == StatusScheduled || m.Status == StatusTimed
}

// HasFullTimeScore reports whether both full-time goal counts are present.
func (m Match) HasFullTimeScore() bool {
	return m.Score.FullTime.Home != nil && m.Score.FullTime.Away != nil
}

// GoalsFor returns the goals scored by the named team in this match.
// The second return value is false when the team did not play or the score is missing.
func (m Match) GoalsFor(teamName string) (int, bool) {
	switch teamName {
	case m.HomeTeam.Name:
		if m.Score.FullTime.Home != nil {
			return *m.Score.FullTime.Home, true
		}
	case m.AwayTeam.Name:
		if m.Score.FullTime.Away != nil {
			return *m.Score.FullTime.Away, true
		}
	}
	return 0, false
}

// GoalsAgainst returns the goals conceded by the named team in this match.
func (m Match) GoalsAgainst(teamName string) (int, bool) {
	switch teamName {
	case m.HomeTeam.Name:
		if m.Score.FullTime.Away != nil {
			return *m.Score.FullTime.Away, true
		}
	case m.AwayTeam.Name:
		if m.Score.FullTime.Home != nil {
			return *m.Score.FullTime.Home, true
		}
	}
	return 0, false
}

// TotalGoals returns home+away goals, treating missing scores as zero.
func (m Match) TotalGoals() int {
	total := 0
	if m.Score.FullTime.Home != nil {
		total += *m.Score.FullTime.Home
	}
	if m.Score.FullTime.Away != nil {
		total += *m.Score.FullTime.Away
	}
	return total
}

// BothTeamsScored treats missing scores as zero, matching TotalGoals.
func (m Match) BothTeamsScored() bool {
	return m.Score.FullTime.Home != nil && *m.Score.FullTime.Home > 0 &&
		m.Score.FullTime.Away != nil && *m.Score.FullTime.Away > 0
}
