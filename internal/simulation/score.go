package simulation

import (
	"github.com/utakatalp/season-simulator/internal/league"
	"github.com/utakatalp/season-simulator/internal/random"
)

// Bounds of the share of a simulated score drawn from the league distribution.
const (
	MinJitter = 0.05
	MaxJitter = 0.25
)

// SimulateScore draws one weekly score for a team, regressed toward the league distribution
// by a jitter fraction drawn fresh on every call.
func SimulateScore(src random.Source, team league.TeamStats, lg league.LeagueStats) float64 {
	jitter := random.Uniform(src, MinJitter, MaxJitter)
	teamSample := random.Normal(src, team.Average, team.StdDev)
	leagueSample := random.Normal(src, lg.Average, lg.StdDev)
	return (1-jitter)*teamSample + jitter*leagueSample
}

// Outcome is the result of a single game.
type Outcome struct {
	HomeWon bool
	Tie     bool
}

// AwayWon reports whether the away side won outright.
func (o Outcome) AwayWon() bool {
	return !o.HomeWon && !o.Tie
}

// Resolve decides a game from its two scores. Equal scores are a tie.
func Resolve(homeScore, awayScore float64) Outcome {
	switch {
	case homeScore > awayScore:
		return Outcome{HomeWon: true}
	case awayScore > homeScore:
		return Outcome{}
	default:
		return Outcome{Tie: true}
	}
}

// record applies a game's scores to both teams' regular-season tallies.
func record(home, away *league.SingleTeamResult, homeScore, awayScore float64) {
	home.PointsFor += homeScore
	home.PointsAgainst += awayScore
	away.PointsFor += awayScore
	away.PointsAgainst += homeScore

	outcome := Resolve(homeScore, awayScore)
	switch {
	case outcome.Tie:
		home.Ties++
		away.Ties++
	case outcome.HomeWon:
		home.Wins++
		away.Losses++
	default:
		away.Wins++
		home.Losses++
	}
}
