package simulation

import (
	"sort"

	"github.com/utakatalp/season-simulator/internal/league"
)

// RankStandings returns result indices in regular-season order: wins, then points for.
//
// Teams level on both keys are not separated any further. They keep their input order,
// which is what decides a playoff cut or bracket seed that falls between them, and
// AssignPlacements gives them the same rank.
func RankStandings(results []league.SingleTeamResult) []int {
	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := results[order[i]], results[order[j]]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.PointsFor > b.PointsFor
	})
	return order
}

// Standings returns team IDs in regular-season order.
func Standings(results []league.SingleTeamResult) []league.TeamID {
	order := RankStandings(results)
	ids := make([]league.TeamID, len(order))
	for pos, idx := range order {
		ids[pos] = results[idx].ID
	}
	return ids
}

func level(a, b league.SingleTeamResult) bool {
	return a.Wins == b.Wins && a.PointsFor == b.PointsFor
}

// AssignPlacements sets each team's regular-season rank, playoff berth and last-place flag
// from a standings order. Exactly playoffTeams teams qualify. Level teams share a rank
// (1, 2, 2, 4). No team is marked last when the bottom of the table is level.
func AssignPlacements(results []league.SingleTeamResult, order []int, playoffTeams int) {
	for pos, idx := range order {
		rank := pos + 1
		if pos > 0 && level(results[idx], results[order[pos-1]]) {
			rank = results[order[pos-1]].RegularSeasonResult
		}
		results[idx].RegularSeasonResult = rank
		results[idx].MadePlayoffs = pos < playoffTeams
		results[idx].LastPlace = false
	}

	n := len(order)
	switch {
	case n == 1:
		results[order[0]].LastPlace = true
	case n > 1:
		bottom := order[n-1]
		if !level(results[bottom], results[order[n-2]]) {
			results[bottom].LastPlace = true
		}
	}
}
