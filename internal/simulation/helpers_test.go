package simulation

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/season-simulator/internal/league"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestSimulator(opts ...Option) *Simulator {
	base := []Option{WithSeed(42), WithWorkers(4), WithLogger(quietLogger())}
	return New(append(base, opts...)...)
}

func score(v float64) *float64 { return &v }

// testInput builds a league of n teams with spread-out averages playing a round robin.
func testInput(n, weeks int) Input {
	ids := make([]league.TeamID, n)
	teams := make([]league.TeamStats, n)
	for i := 0; i < n; i++ {
		ids[i] = league.TeamID(i + 1)
		teams[i] = league.TeamStats{ID: ids[i], Average: 90 + float64(i)*4, StdDev: 15}
	}
	return Input{
		Teams:    teams,
		League:   league.LeagueStats{Average: 100, StdDev: 18},
		Schedule: league.GenerateSchedule(ids, weeks),
	}
}

// scheduledGames counts regular-season games per team.
func scheduledGames(schedule league.Schedule) map[league.TeamID]int {
	games := make(map[league.TeamID]int)
	for _, m := range schedule.Matchups() {
		if m.IsPlayoff {
			continue
		}
		games[m.HomeTeamID]++
		games[m.AwayTeamID]++
	}
	return games
}
