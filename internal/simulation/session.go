package simulation

import (
	"math"

	"github.com/utakatalp/season-simulator/internal/league"
	"github.com/utakatalp/season-simulator/internal/random"
)

// Session simulates seasons incrementally on a single goroutine so a caller can watch the
// projection settle. Epsilon tracks how far mean wins moved during the last step.
type Session struct {
	in      Input
	plan    *season
	src     random.Source
	totals  []*league.TeamResult
	results []league.SingleTeamResult
	epsilon float64
}

// NewSession validates the input and prepares an empty session. params.Iterations is
// ignored; Step decides how many seasons run.
func (s *Simulator) NewSession(in Input, params league.SimulationParams) (*Session, error) {
	var errs ValidationErrors
	validateInput(&errs, in, s.playoffTeams)
	if len(errs.Errors) > 0 {
		return nil, errs
	}

	var src random.Source
	if s.seeded {
		src = random.NewSource(s.seed, 0)
	} else {
		src = random.NewRandomSource()
	}

	totals := make([]*league.TeamResult, len(in.Teams))
	for i, t := range in.Teams {
		totals[i] = league.NewTeamResult(t.ID, 0)
	}
	return &Session{
		in:      in,
		plan:    newSeason(in, params, s.playoffTeams),
		src:     src,
		totals:  totals,
		results: make([]league.SingleTeamResult, len(in.Teams)),
	}, nil
}

// Step simulates n more seasons.
func (ss *Session) Step(n int) {
	if n <= 0 {
		return
	}
	before := ss.meanWins()
	for i := 0; i < n; i++ {
		ss.plan.run(ss.src, ss.results)
		for t := range ss.results {
			ss.totals[t].Add(ss.results[t])
		}
	}
	if before == nil {
		ss.epsilon = 0
		return
	}
	after := ss.meanWins()
	var sum float64
	for i := range after {
		d := after[i] - before[i]
		sum += d * d
	}
	ss.epsilon = math.Sqrt(sum)
}

// Iterations is the number of seasons simulated so far.
func (ss *Session) Iterations() int {
	if len(ss.totals) == 0 {
		return 0
	}
	return ss.totals[0].Iterations
}

// Epsilon is the Euclidean distance between the mean-wins vectors before and after the
// last step. It is 0 until at least two steps have run.
func (ss *Session) Epsilon() float64 { return ss.epsilon }

// Results returns the current aggregate for every team.
func (ss *Session) Results() map[league.TeamID]league.TeamScoringData {
	out := make(map[league.TeamID]league.TeamScoringData, len(ss.totals))
	for i, team := range ss.in.Teams {
		out[team.ID] = ss.totals[i].ScoringData(team, len(ss.in.Teams))
	}
	return out
}

func (ss *Session) meanWins() []float64 {
	if ss.Iterations() == 0 {
		return nil
	}
	wins := make([]float64, len(ss.totals))
	for i, t := range ss.totals {
		wins[i] = float64(t.Wins) / float64(t.Iterations)
	}
	return wins
}
