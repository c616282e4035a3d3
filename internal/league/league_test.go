package league

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestGenerateSchedule_RoundRobin(t *testing.T) {
	teams := []TeamID{1, 2, 3, 4}
	schedule := GenerateSchedule(teams, 6)
	require.Len(t, schedule, 6)

	pairs := make(map[[2]TeamID]int)
	for w, week := range schedule {
		require.Len(t, week, 2, "week %d", w+1)
		playing := make(map[TeamID]bool)
		for _, m := range week {
			assert.Equal(t, w+1, m.Week)
			assert.NotEqual(t, m.HomeTeamID, m.AwayTeamID)
			assert.False(t, playing[m.HomeTeamID])
			assert.False(t, playing[m.AwayTeamID])
			playing[m.HomeTeamID] = true
			playing[m.AwayTeamID] = true
			pairs[[2]TeamID{m.HomeTeamID, m.AwayTeamID}]++
		}
	}
	// Two full cycles: every ordered pairing appears exactly once.
	assert.Len(t, pairs, 12)
	for p, n := range pairs {
		assert.Equal(t, 1, n, "pairing %v", p)
	}
}

func TestGenerateSchedule_OddTeamsGetByes(t *testing.T) {
	schedule := GenerateSchedule([]TeamID{1, 2, 3, 4, 5}, 5)
	require.Len(t, schedule, 5)

	games := make(map[TeamID]int)
	for _, week := range schedule {
		assert.Len(t, week, 2)
		for _, m := range week {
			games[m.HomeTeamID]++
			games[m.AwayTeamID]++
		}
	}
	for id := TeamID(1); id <= 5; id++ {
		assert.Equal(t, 4, games[id], "team %d", id)
	}
}

func TestGenerateSchedule_Degenerate(t *testing.T) {
	assert.Nil(t, GenerateSchedule([]TeamID{1}, 4))
	assert.Nil(t, GenerateSchedule([]TeamID{1, 2}, 0))
}

func TestBuildSchedule(t *testing.T) {
	schedule, err := BuildSchedule([]Matchup{
		{ID: 1, Week: 3, HomeTeamID: 1, AwayTeamID: 2},
		{ID: 2, Week: 1, HomeTeamID: 3, AwayTeamID: 4},
		{ID: 3, Week: 1, HomeTeamID: 1, AwayTeamID: 3},
	})
	require.NoError(t, err)
	require.Len(t, schedule, 3)
	assert.Len(t, schedule[0], 2)
	assert.Empty(t, schedule[1])
	assert.Equal(t, 1, schedule[2][0].ID)
	assert.Len(t, schedule.Matchups(), 3)

	_, err = BuildSchedule([]Matchup{{ID: 9, Week: 0}})
	assert.Error(t, err)
}

func TestMatchup_Scores(t *testing.T) {
	m := Matchup{HomeScore: ptr(101.5)}
	assert.False(t, m.Scored())
	home, away := m.Scores()
	assert.Equal(t, 101.5, home)
	assert.Zero(t, away)

	m.AwayScore = ptr(99)
	assert.True(t, m.Scored())
}

func TestDeriveStats(t *testing.T) {
	schedule := Schedule{
		{
			{Week: 1, HomeTeamID: 1, AwayTeamID: 2, HomeScore: ptr(100), AwayScore: ptr(80), Completed: true},
		},
		{
			{Week: 2, HomeTeamID: 2, AwayTeamID: 1, HomeScore: ptr(120), AwayScore: ptr(110), Completed: true},
		},
		{
			{Week: 3, HomeTeamID: 1, AwayTeamID: 3},
		},
	}
	roster := []TeamStats{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Bravo"}}

	teams, lg := DeriveStats(roster, schedule, 3)
	require.Len(t, teams, 3)

	assert.Equal(t, "Alpha", teams[0].Name)
	assert.InDelta(t, 105, teams[0].Average, 1e-9)
	assert.InDelta(t, 5, teams[0].StdDev, 1e-9)
	assert.InDelta(t, 100, teams[1].Average, 1e-9)
	assert.InDelta(t, 20, teams[1].StdDev, 1e-9)

	assert.InDelta(t, 102.5, lg.Average, 1e-9)
	// Team 3 has no scores and inherits the league distribution.
	assert.Equal(t, TeamID(3), teams[2].ID)
	assert.Equal(t, lg.Average, teams[2].Average)
	assert.Equal(t, lg.StdDev, teams[2].StdDev)
}

func TestDeriveStats_StartWeekLimitsHistory(t *testing.T) {
	schedule := Schedule{
		{{Week: 1, HomeTeamID: 1, AwayTeamID: 2, HomeScore: ptr(100), AwayScore: ptr(80), Completed: true}},
		{{Week: 2, HomeTeamID: 1, AwayTeamID: 2, HomeScore: ptr(140), AwayScore: ptr(60), Completed: true}},
	}

	teams, _ := DeriveStats(nil, schedule, 2)
	assert.Equal(t, 100.0, teams[0].Average)

	// Nothing recorded before week 1, so every completed score is used.
	teams, _ = DeriveStats(nil, schedule, 1)
	assert.Equal(t, 120.0, teams[0].Average)
}

func TestDeriveStats_NoHistory(t *testing.T) {
	teams, lg := DeriveStats([]TeamStats{{ID: 1}, {ID: 2}}, nil, 1)
	assert.Equal(t, LeagueStats{Average: DefaultLeagueAverage, StdDev: DefaultLeagueStdDev}, lg)
	for _, team := range teams {
		assert.Equal(t, DefaultLeagueAverage, team.Average)
	}
}

func TestTeamResult_AddMergeScoringData(t *testing.T) {
	a := NewTeamResult(1, 2)
	a.Add(SingleTeamResult{ID: 1, Wins: 3, Losses: 1, PointsFor: 400, PointsAgainst: 350, MadePlayoffs: true, RegularSeasonResult: 1, PlayoffResult: 1})
	a.Add(SingleTeamResult{ID: 1, Wins: 1, Losses: 3, PointsFor: 300, PointsAgainst: 390, LastPlace: true, RegularSeasonResult: 4})

	b := NewTeamResult(1, 2)
	b.Add(SingleTeamResult{ID: 1, Wins: 2, Losses: 1, Ties: 1, PointsFor: 380, PointsAgainst: 380, MadePlayoffs: true, RegularSeasonResult: 2, PlayoffResult: 2})
	b.Add(SingleTeamResult{ID: 1, Wins: 2, Losses: 2, PointsFor: 360, PointsAgainst: 360, MadePlayoffs: true, RegularSeasonResult: 2, PlayoffResult: 3})

	a.Merge(b)
	require.Equal(t, 4, a.Iterations)
	assert.Equal(t, []int{1, 4, 2, 2}, a.RegularSeasonResults)
	assert.Equal(t, []int{1, 0, 2, 3}, a.PlayoffResults)

	d := a.ScoringData(TeamStats{ID: 1, Name: "Alpha", Average: 95, StdDev: 12}, 4)
	assert.Equal(t, "Alpha", d.Name)
	assert.Equal(t, 2.0, d.Wins)
	assert.Equal(t, 1.75, d.Losses)
	assert.Equal(t, 0.25, d.Ties)
	assert.Equal(t, 360.0, d.PointsFor)
	assert.Equal(t, 0.75, d.PlayoffOdds)
	assert.Equal(t, 0.25, d.LastPlaceOdds)
	assert.Equal(t, 0.25, d.ChampionshipOdds)
	assert.Equal(t, []float64{0.25, 0.5, 0, 0.25}, d.RegularSeasonFinishes)
	assert.Equal(t, []float64{0.25, 0.25, 0.25, 0}, d.PlayoffFinishes)

	assert.Equal(t, 2.0, d.RegularSeasonPercentile(0.5))
	assert.Equal(t, 4.0, d.RegularSeasonPercentile(1))
	assert.Equal(t, 2.0, d.PlayoffPercentile(0.5))
}

func TestScoringData_FinishOddsAreExact(t *testing.T) {
	for _, iterations := range []int{3, 7, 10, 1000, 4999} {
		r := NewTeamResult(2, iterations)
		for i := 0; i < iterations; i++ {
			r.Add(SingleTeamResult{ID: 2, MadePlayoffs: true, RegularSeasonResult: 2, PlayoffResult: 2})
		}
		d := r.ScoringData(TeamStats{ID: 2}, 4)
		assert.Equal(t, []float64{0, 1.0, 0, 0}, d.RegularSeasonFinishes, "iterations %d", iterations)
		assert.Equal(t, []float64{0, 1.0, 0, 0}, d.PlayoffFinishes, "iterations %d", iterations)
		assert.Equal(t, 1.0, d.PlayoffOdds)
	}
}

func TestScoringData_NoIterations(t *testing.T) {
	d := NewTeamResult(5, 0).ScoringData(TeamStats{ID: 5, Average: 90}, 3)
	assert.Equal(t, 90.0, d.Average)
	assert.Zero(t, d.Wins)
	assert.Len(t, d.PlayoffFinishes, 3)
	assert.Zero(t, d.PlayoffPercentile(0.5))
}

func TestSortForDisplay(t *testing.T) {
	data := []TeamScoringData{
		{ID: 1, PlayoffOdds: 0.2, LastPlaceOdds: 0.1},
		{ID: 2, PlayoffOdds: 0.9},
		{ID: 3, PlayoffOdds: 0.2, LastPlaceOdds: 0.3},
		{ID: 4, PlayoffOdds: 0.2, LastPlaceOdds: 0.1, Wins: 7},
		{ID: 5, PlayoffOdds: 0.2, LastPlaceOdds: 0.1, Wins: 7, Average: 110},
	}
	SortForDisplay(data)

	ids := make([]TeamID, len(data))
	for i, d := range data {
		ids[i] = d.ID
	}
	assert.Equal(t, []TeamID{2, 3, 5, 4, 1}, ids)
}

func TestChampionshipPredictions(t *testing.T) {
	preds := ChampionshipPredictions([]TeamScoringData{
		{ID: 1, Name: "Alpha", ChampionshipOdds: 0.123456},
		{ID: 2, Name: "Bravo", ChampionshipOdds: 0.6},
		{ID: 3, ChampionshipOdds: 0.276544},
	})
	require.Len(t, preds, 3)
	assert.Equal(t, Prediction{Team: 2, Name: "Bravo", Probability: 60}, preds[0])
	assert.Equal(t, 27.65, preds[1].Probability)
	assert.Equal(t, 12.35, preds[2].Probability)
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, "Projected standings", []TeamScoringData{
		{ID: 1, Name: "Alpha", Wins: 9.5, PlayoffOdds: 0.812},
		{ID: 2, Wins: 4.5},
	})

	out := buf.String()
	assert.Contains(t, out, "Projected standings")
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "Team 2")
	assert.Contains(t, out, "81.2%")
}
