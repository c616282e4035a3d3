// internal/league/logic.go
package league

import (
	"fmt"
	"io"
)

// GenerateSchedule returns a round-robin schedule of the given number of weeks.
// Every full cycle of the round robin swaps home and away relative to the previous one.
// With an odd number of teams one team sits out each week.
func GenerateSchedule(teams []TeamID, weeks int) Schedule {
	n := len(teams)
	if n < 2 || weeks <= 0 {
		return nil
	}

	// slots index into teams; -1 is the bye placeholder
	slots := make([]int, n)
	for i := range slots {
		slots[i] = i
	}
	if n%2 != 0 {
		slots = append(slots, -1)
		n++
	}
	cycle := n - 1

	schedule := make(Schedule, 0, weeks)
	for w := 0; w < weeks; w++ {
		swap := (w/cycle)%2 == 1
		week := make(Week, 0, n/2)
		for j := 0; j < n/2; j++ {
			home, away := slots[j], slots[n-1-j]
			if home < 0 || away < 0 {
				continue
			}
			if swap {
				home, away = away, home
			}
			week = append(week, Matchup{Week: w + 1, HomeTeamID: teams[home], AwayTeamID: teams[away]})
		}
		schedule = append(schedule, week)

		// Rotate every slot except the first
		last := slots[n-1]
		copy(slots[2:], slots[1:n-1])
		slots[1] = last
	}
	return schedule
}

// BuildSchedule groups matchups by their week number. Weeks without matchups are kept
// as empty bye weeks so that Schedule[i] is always week i+1.
func BuildSchedule(matchups []Matchup) (Schedule, error) {
	last := 0
	for _, m := range matchups {
		if m.Week < 1 {
			return nil, fmt.Errorf("matchup %d: invalid week %d", m.ID, m.Week)
		}
		if m.Week > last {
			last = m.Week
		}
	}

	schedule := make(Schedule, last)
	for _, m := range matchups {
		schedule[m.Week-1] = append(schedule[m.Week-1], m)
	}
	return schedule, nil
}

// PrintTable writes projected standings as a fixed-width table.
func PrintTable(w io.Writer, label string, table []TeamScoringData) {
	fmt.Fprintln(w, label)
	fmt.Fprintf(w, "%-20s %6s %6s %8s %8s %8s %8s %8s\n",
		"Team", "W", "L", "PF", "PA", "Playoff", "Last", "Champ")
	for _, entry := range table {
		name := entry.Name
		if name == "" {
			name = fmt.Sprintf("Team %d", entry.ID)
		}
		fmt.Fprintf(w, "%-20s %6.2f %6.2f %8.1f %8.1f %7.1f%% %7.1f%% %7.1f%%\n",
			name,
			entry.Wins,
			entry.Losses,
			entry.PointsFor,
			entry.PointsAgainst,
			entry.PlayoffOdds*100,
			entry.LastPlaceOdds*100,
			entry.ChampionshipOdds*100,
		)
	}
}
