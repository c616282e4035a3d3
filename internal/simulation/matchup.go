package simulation

import (
	"gonum.org/v1/gonum/stat"

	"github.com/utakatalp/season-simulator/internal/league"
	"github.com/utakatalp/season-simulator/internal/random"
)

// MatchupProjection summarizes repeated simulations of a single game.
type MatchupProjection struct {
	HomeTeamID  league.TeamID `json:"home_team_id"`
	AwayTeamID  league.TeamID `json:"away_team_id"`
	Iterations  int           `json:"iterations"`
	HomeWinOdds float64       `json:"home_win_odds"`
	AwayWinOdds float64       `json:"away_win_odds"`
	TieOdds     float64       `json:"tie_odds"`
	HomeMean    float64       `json:"home_mean"`
	HomeStdDev  float64       `json:"home_std_dev"`
	AwayMean    float64       `json:"away_mean"`
	AwayStdDev  float64       `json:"away_std_dev"`
}

// MatchupOdds plays one game iterations times with the same score model the season
// engine uses.
func MatchupOdds(src random.Source, home, away league.TeamStats, lg league.LeagueStats, iterations int) (MatchupProjection, error) {
	var errs ValidationErrors
	if iterations <= 0 {
		errs.add("iterations", "must be positive, got %d", iterations)
	}
	if home.ID == away.ID {
		errs.add("matchup", "team %d cannot play itself", home.ID)
	}
	for _, t := range []league.TeamStats{home, away} {
		if !validMoment(t.Average) || !validMoment(t.StdDev) {
			errs.add("teams", "team %d: average and std_dev must be finite and non-negative", t.ID)
		}
	}
	if !validMoment(lg.Average) || !validMoment(lg.StdDev) {
		errs.add("league", "average and std_dev must be finite and non-negative")
	}
	if len(errs.Errors) > 0 {
		return MatchupProjection{}, errs
	}

	homeScores := make([]float64, iterations)
	awayScores := make([]float64, iterations)
	var homeWins, awayWins, ties int
	for i := 0; i < iterations; i++ {
		hs := SimulateScore(src, home, lg)
		as := SimulateScore(src, away, lg)
		homeScores[i], awayScores[i] = hs, as

		outcome := Resolve(hs, as)
		switch {
		case outcome.Tie:
			ties++
		case outcome.HomeWon:
			homeWins++
		default:
			awayWins++
		}
	}

	n := float64(iterations)
	p := MatchupProjection{
		HomeTeamID:  home.ID,
		AwayTeamID:  away.ID,
		Iterations:  iterations,
		HomeWinOdds: float64(homeWins) / n,
		AwayWinOdds: float64(awayWins) / n,
		TieOdds:     float64(ties) / n,
	}
	p.HomeMean, p.HomeStdDev = stat.PopMeanStdDev(homeScores, nil)
	p.AwayMean, p.AwayStdDev = stat.PopMeanStdDev(awayScores, nil)
	return p, nil
}

// MatchupOdds projects a single game using the simulator's seed configuration.
func (s *Simulator) MatchupOdds(home, away league.TeamStats, lg league.LeagueStats, iterations int) (MatchupProjection, error) {
	var src random.Source
	if s.seeded {
		src = random.NewSource(s.seed, 0)
	} else {
		src = random.NewRandomSource()
	}
	return MatchupOdds(src, home, away, lg, iterations)
}
