package simulation

import (
	"fmt"
	"math"

	"github.com/utakatalp/season-simulator/internal/league"
	"github.com/utakatalp/season-simulator/internal/random"
)

// game is a regular-season matchup resolved to roster indices.
type game struct {
	home, away int
	// fixed games replay their recorded scores instead of sampling
	fixed                bool
	homeScore, awayScore float64
}

type pair struct{ a, b int }

func pairOf(x, y int) pair {
	if x > y {
		x, y = y, x
	}
	return pair{x, y}
}

// recordedGame is a playoff result that bracket games between the same two teams reuse.
type recordedGame struct {
	home, away           int
	homeScore, awayScore float64
}

// season is one run's read-only view of the inputs, shared by every worker.
type season struct {
	teams        []league.TeamStats
	league       league.LeagueStats
	games        []game
	playoffGames map[pair]recordedGame
	playoffTeams int
}

// newSeason compiles validated inputs. Schedule weeks are numbered from 1.
func newSeason(in Input, params league.SimulationParams, playoffTeams int) *season {
	index := make(map[league.TeamID]int, len(in.Teams))
	for i, t := range in.Teams {
		index[t.ID] = i
	}

	s := &season{
		teams:        in.Teams,
		league:       in.League,
		playoffGames: make(map[pair]recordedGame),
		playoffTeams: playoffTeams,
	}
	for i, week := range in.Schedule {
		weekNumber := i + 1
		for _, m := range week {
			home, away := index[m.HomeTeamID], index[m.AwayTeamID]
			fixed := m.Completed || (params.UseActualResults && weekNumber < params.StartWeek && m.Scored())
			hs, as := m.Scores()

			if m.IsPlayoff {
				// Pending playoff games are placeholders; the bracket picks the pairings.
				if fixed {
					s.playoffGames[pairOf(home, away)] = recordedGame{home: home, away: away, homeScore: hs, awayScore: as}
				}
				continue
			}
			s.games = append(s.games, game{home: home, away: away, fixed: fixed, homeScore: hs, awayScore: as})
		}
	}
	return s
}

// run simulates one season into results, which must have one entry per team.
func (s *season) run(src random.Source, results []league.SingleTeamResult) {
	for i := range results {
		results[i] = league.SingleTeamResult{ID: s.teams[i].ID}
	}

	for _, g := range s.games {
		hs, as := g.homeScore, g.awayScore
		if !g.fixed {
			hs = SimulateScore(src, s.teams[g.home], s.league)
			as = SimulateScore(src, s.teams[g.away], s.league)
			assertFinite(hs, as)
		}
		record(&results[g.home], &results[g.away], hs, as)
	}

	order := RankStandings(results)
	AssignPlacements(results, order, s.playoffTeams)
	s.playoffs(src, results, order)
}

// playGame decides a bracket game between two roster indices. A recorded playoff result
// between the pair wins over sampling; ties advance the better seed, which is a.
func (s *season) playGame(src random.Source, a, b int) (winner, loser int) {
	var scoreA, scoreB float64
	if rec, ok := s.playoffGames[pairOf(a, b)]; ok {
		scoreA, scoreB = rec.homeScore, rec.awayScore
		if rec.home != a {
			scoreA, scoreB = scoreB, scoreA
		}
	} else {
		scoreA = SimulateScore(src, s.teams[a], s.league)
		scoreB = SimulateScore(src, s.teams[b], s.league)
		assertFinite(scoreA, scoreB)
	}
	if Resolve(scoreA, scoreB).AwayWon() {
		return b, a
	}
	return a, b
}

func assertFinite(a, b float64) {
	if !debugChecks {
		return
	}
	if math.IsNaN(a) || math.IsInf(a, 0) || math.IsNaN(b) || math.IsInf(b, 0) {
		panic(fmt.Sprintf("simulation: non-finite score (%v, %v)", a, b))
	}
}
