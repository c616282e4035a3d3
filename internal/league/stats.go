package league

import (
	"gonum.org/v1/gonum/stat"
)

// League-wide fallback distribution used when no scores have been recorded yet.
const (
	DefaultLeagueAverage = 100.0
	DefaultLeagueStdDev  = 15.0
)

// DeriveStats computes each team's scoring distribution and the league distribution from
// the recorded scores of completed matchups played before startWeek. If nothing was
// recorded before startWeek, every completed matchup in the schedule is used instead.
//
// roster supplies team identities and names; teams that appear only in the schedule are
// appended in order of first appearance. Teams without any recorded score inherit the
// league distribution.
func DeriveStats(roster []TeamStats, schedule Schedule, startWeek int) ([]TeamStats, LeagueStats) {
	scores := collectScores(schedule, startWeek)
	if len(scores) == 0 {
		scores = collectScores(schedule, 0)
	}

	teams := make([]TeamStats, 0, len(roster))
	seen := make(map[TeamID]bool, len(roster))
	for _, t := range roster {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		teams = append(teams, TeamStats{ID: t.ID, Name: t.Name})
	}
	for _, m := range schedule.Matchups() {
		for _, id := range []TeamID{m.HomeTeamID, m.AwayTeamID} {
			if !seen[id] {
				seen[id] = true
				teams = append(teams, TeamStats{ID: id})
			}
		}
	}

	var all []float64
	for _, t := range teams {
		all = append(all, scores[t.ID]...)
	}
	lg := LeagueStats{Average: DefaultLeagueAverage, StdDev: DefaultLeagueStdDev}
	if len(all) > 0 {
		lg.Average, lg.StdDev = stat.PopMeanStdDev(all, nil)
	}

	for i := range teams {
		s := scores[teams[i].ID]
		if len(s) == 0 {
			teams[i].Average, teams[i].StdDev = lg.Average, lg.StdDev
			continue
		}
		teams[i].Average, teams[i].StdDev = stat.PopMeanStdDev(s, nil)
	}
	return teams, lg
}

// collectScores gathers recorded scores per team. startWeek <= 0 means no week limit.
func collectScores(schedule Schedule, startWeek int) map[TeamID][]float64 {
	scores := make(map[TeamID][]float64)
	for i, week := range schedule {
		if startWeek > 0 && i+1 >= startWeek {
			break
		}
		for _, m := range week {
			if !m.Completed || !m.Scored() {
				continue
			}
			home, away := m.Scores()
			scores[m.HomeTeamID] = append(scores[m.HomeTeamID], home)
			scores[m.AwayTeamID] = append(scores[m.AwayTeamID], away)
		}
	}
	return scores
}
