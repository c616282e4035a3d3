package store

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/utakatalp/season-simulator/internal/league"
)

// setupTestStore starts a Postgres container and returns a migrated store.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres integration test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s, err := NewStore(ctx, dsn, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate(ctx))
	return s
}

func ptr(v float64) *float64 { return &v }

func TestNullFloat(t *testing.T) {
	assert.Equal(t, sql.NullFloat64{}, nullFloat(nil))
	assert.Equal(t, sql.NullFloat64{Float64: 98.5, Valid: true}, nullFloat(ptr(98.5)))
	assert.Nil(t, floatPtr(sql.NullFloat64{}))
	assert.Equal(t, 12.0, *floatPtr(sql.NullFloat64{Float64: 12, Valid: true}))
}

func TestStore_Schedule(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertTeams(ctx, []league.TeamStats{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Bravo"}, {ID: 3, Name: "Charlie"}, {ID: 4, Name: "Delta"}}))
	require.NoError(t, s.UpsertTeams(ctx, []league.TeamStats{{ID: 4, Name: "Delta Force"}}))

	teams, err := s.GetTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 4)
	assert.Equal(t, "Delta Force", teams[3].Name)

	schedule := league.GenerateSchedule([]league.TeamID{1, 2, 3, 4}, 3)
	schedule[0][0].HomeScore = ptr(110.4)
	schedule[0][0].AwayScore = ptr(99.1)
	schedule[0][0].Completed = true
	require.NoError(t, s.InitSeason(ctx, 2024, schedule))
	assert.NotZero(t, schedule[0][0].ID)

	loaded, err := s.LoadSchedule(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Len(t, loaded.Matchups(), 6)

	first := loaded[0][0]
	assert.True(t, first.Completed)
	require.True(t, first.Scored())
	assert.Equal(t, 110.4, *first.HomeScore)
	assert.Nil(t, loaded[1][0].HomeScore)

	pending := loaded[2][0]
	season, err := s.RecordScore(ctx, pending.ID, 88, 91, false)
	require.NoError(t, err)
	assert.Equal(t, 2024, season)
	loaded, err = s.LoadSchedule(ctx, 2024)
	require.NoError(t, err)
	assert.True(t, loaded[2][0].Scored())
	assert.False(t, loaded[2][0].Completed)

	_, err = s.RecordScore(ctx, 999999, 1, 2, true)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.LoadSchedule(ctx, 1999)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteSeason(ctx, 2024))
	_, err = s.LoadSchedule(ctx, 2024)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Runs(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	run := &SimulationRun{
		ID:           uuid.New(),
		Season:       2024,
		Params:       league.SimulationParams{Iterations: 1000, StartWeek: 5, UseActualResults: true},
		PlayoffTeams: 2,
		League:       league.LeagueStats{Average: 101.2, StdDev: 17.5},
		Teams: []league.TeamScoringData{
			{ID: 2, Name: "Bravo", Wins: 8.1, PlayoffOdds: 0.9, ChampionshipOdds: 0.6,
				RegularSeasonFinishes: []float64{0.7, 0.3}, PlayoffFinishes: []float64{0.6, 0.3}},
			{ID: 1, Name: "Alpha", Wins: 5.9, PlayoffOdds: 0.1, LastPlaceOdds: 1,
				RegularSeasonFinishes: []float64{0.3, 0.7}, PlayoffFinishes: []float64{0.4, 0.7}},
		},
		Duration:  1500 * time.Millisecond,
		CreatedAt: time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Params, got.Params)
	assert.Equal(t, run.League, got.League)
	assert.Equal(t, run.Duration, got.Duration)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Teams, 2)
	assert.Equal(t, league.TeamID(2), got.Teams[0].ID)
	assert.Equal(t, []float64{0.7, 0.3}, got.Teams[0].RegularSeasonFinishes)
	assert.Equal(t, 1.0, got.Teams[1].LastPlaceOdds)

	_, err = s.GetRun(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
