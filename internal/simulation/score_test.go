package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/season-simulator/internal/league"
	"github.com/utakatalp/season-simulator/internal/random"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		home, away float64
		want       Outcome
	}{
		{"home win", 110.5, 98.2, Outcome{HomeWon: true}},
		{"away win", 87.1, 87.2, Outcome{}},
		{"tie", 100, 100, Outcome{Tie: true}},
		{"negative scores", -3, -4, Outcome{HomeWon: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.home, tt.away))
		})
	}
	assert.True(t, Resolve(1, 2).AwayWon())
	assert.False(t, Resolve(2, 2).AwayWon())
}

func TestRecord_TieCountsForNeither(t *testing.T) {
	var home, away league.SingleTeamResult
	record(&home, &away, 95, 95)

	assert.Equal(t, 0, home.Wins+home.Losses+away.Wins+away.Losses)
	assert.Equal(t, 1, home.Ties)
	assert.Equal(t, 1, away.Ties)
	assert.Equal(t, 95.0, home.PointsFor)
	assert.Equal(t, 95.0, away.PointsAgainst)
}

func TestSimulateScore_BlendStaysBetweenTeamAndLeague(t *testing.T) {
	src := random.NewSource(1, 1)
	strong := league.TeamStats{ID: 1, Average: 150}
	weak := league.TeamStats{ID: 2, Average: 50}
	lg := league.LeagueStats{Average: 100}

	for i := 0; i < 1000; i++ {
		s := SimulateScore(src, strong, lg)
		require.GreaterOrEqual(t, s, 150-MaxJitter*50)
		require.LessOrEqual(t, s, 150-MinJitter*50)

		w := SimulateScore(src, weak, lg)
		require.GreaterOrEqual(t, w, 50+MinJitter*50)
		require.LessOrEqual(t, w, 50+MaxJitter*50)
	}
}

func TestSimulateScore_JitterDrawnPerCall(t *testing.T) {
	src := random.NewSource(5, 5)
	team := league.TeamStats{ID: 1, Average: 120}
	lg := league.LeagueStats{Average: 100}

	first := SimulateScore(src, team, lg)
	second := SimulateScore(src, team, lg)
	assert.NotEqual(t, first, second, "each side must draw its own jitter")
}
