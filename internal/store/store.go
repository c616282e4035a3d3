package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/season-simulator/internal/league"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps a Postgres connection and provides methods to persist and retrieve league data.
type Store struct {
	DB     *sql.DB
	logger logrus.FieldLogger
}

// SimulationRun is a persisted projection: the inputs that produced it and the per-team
// output in display order.
type SimulationRun struct {
	ID           uuid.UUID                `json:"id"`
	Season       int                      `json:"season"`
	Params       league.SimulationParams  `json:"params"`
	PlayoffTeams int                      `json:"playoff_teams"`
	League       league.LeagueStats       `json:"league"`
	Teams        []league.TeamScoringData `json:"teams"`
	Duration     time.Duration            `json:"duration"`
	CreatedAt    time.Time                `json:"created_at"`
}

// NewStore opens a Postgres connection using the given connection string.
func NewStore(ctx context.Context, connStr string, logger logrus.FieldLogger) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// verify early
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	logger.Info("Database connection established")
	return &Store{DB: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// Migrate creates the necessary tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS teams (
		    id   INT  PRIMARY KEY,
		    name TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS matchups (
		    id         SERIAL PRIMARY KEY,
		    season     INT NOT NULL,
		    week       INT NOT NULL CHECK (week >= 1),
		    home_team  INT NOT NULL REFERENCES teams(id),
		    away_team  INT NOT NULL REFERENCES teams(id),
		    home_score DOUBLE PRECISION,
		    away_score DOUBLE PRECISION,
		    completed  BOOLEAN NOT NULL DEFAULT FALSE,
		    is_playoff BOOLEAN NOT NULL DEFAULT FALSE
		);`,
		`CREATE INDEX IF NOT EXISTS matchups_season_week_idx ON matchups (season, week);`,
		`CREATE TABLE IF NOT EXISTS simulation_runs (
		    id                 UUID PRIMARY KEY,
		    season             INT NOT NULL,
		    iterations         INT NOT NULL,
		    start_week         INT NOT NULL,
		    use_actual_results BOOLEAN NOT NULL,
		    playoff_teams      INT NOT NULL,
		    league_average     DOUBLE PRECISION NOT NULL,
		    league_std_dev     DOUBLE PRECISION NOT NULL,
		    duration_ms        BIGINT NOT NULL,
		    created_at         TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS simulation_team_results (
		    run_id                  UUID NOT NULL REFERENCES simulation_runs(id) ON DELETE CASCADE,
		    team_id                 INT  NOT NULL,
		    position                INT  NOT NULL,
		    name                    TEXT NOT NULL DEFAULT '',
		    average                 DOUBLE PRECISION NOT NULL,
		    std_dev                 DOUBLE PRECISION NOT NULL,
		    wins                    DOUBLE PRECISION NOT NULL,
		    losses                  DOUBLE PRECISION NOT NULL,
		    ties                    DOUBLE PRECISION NOT NULL,
		    points_for              DOUBLE PRECISION NOT NULL,
		    points_against          DOUBLE PRECISION NOT NULL,
		    playoff_odds            DOUBLE PRECISION NOT NULL,
		    last_place_odds         DOUBLE PRECISION NOT NULL,
		    championship_odds       DOUBLE PRECISION NOT NULL,
		    regular_season_finishes DOUBLE PRECISION[] NOT NULL,
		    playoff_finishes        DOUBLE PRECISION[] NOT NULL,
		    PRIMARY KEY (run_id, team_id)
		);`,
	}
	for _, q := range queries {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

// UpsertTeams inserts teams or renames existing ones.
func (s *Store) UpsertTeams(ctx context.Context, teams []league.TeamStats) error {
	const q = `
    INSERT INTO teams (id, name)
    VALUES ($1, $2)
    ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
    `
	for _, t := range teams {
		if _, err := s.DB.ExecContext(ctx, q, int(t.ID), t.Name); err != nil {
			return fmt.Errorf("upserting team %d (%s): %w", t.ID, t.Name, err)
		}
	}
	return nil
}

// GetTeams returns every known team ordered by ID. Only ID and Name are populated.
func (s *Store) GetTeams(ctx context.Context) ([]league.TeamStats, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, name FROM teams ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	var teams []league.TeamStats
	for rows.Next() {
		var t league.TeamStats
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating teams rows: %w", err)
	}
	return teams, nil
}

type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func saveMatchup(ctx context.Context, db execer, season int, m *league.Matchup) error {
	const q = `
INSERT INTO matchups (season, week, home_team, away_team, home_score, away_score, completed, is_playoff)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id
`
	err := db.QueryRowContext(ctx, q,
		season, m.Week, int(m.HomeTeamID), int(m.AwayTeamID),
		nullFloat(m.HomeScore), nullFloat(m.AwayScore),
		m.Completed, m.IsPlayoff,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("saving matchup: %w", err)
	}
	return nil
}

// InitSeason saves every matchup of a schedule in one transaction.
func (s *Store) InitSeason(ctx context.Context, season int, schedule league.Schedule) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin InitSeason tx: %w", err)
	}
	defer tx.Rollback()

	for w := range schedule {
		for i := range schedule[w] {
			m := &schedule[w][i]
			if m.Week == 0 {
				m.Week = w + 1
			}
			if err := saveMatchup(ctx, tx, season, m); err != nil {
				return fmt.Errorf("saving full season: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit InitSeason tx: %w", err)
	}
	return nil
}

// RecordScore sets a matchup's scores and returns the season it belongs to.
// completed marks the result as final.
func (s *Store) RecordScore(ctx context.Context, id int, home, away float64, completed bool) (int, error) {
	const q = `
UPDATE matchups SET home_score = $1, away_score = $2, completed = $3
WHERE id = $4
RETURNING season
`
	var season int
	err := s.DB.QueryRowContext(ctx, q, home, away, completed, id).Scan(&season)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("matchup %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("recording score for matchup %d: %w", id, err)
	}
	return season, nil
}

// LoadSchedule fetches a season's matchups grouped into weeks.
func (s *Store) LoadSchedule(ctx context.Context, season int) (league.Schedule, error) {
	const q = `
SELECT id, week, home_team, away_team, home_score, away_score, completed, is_playoff
FROM matchups
WHERE season = $1
ORDER BY week, id;
`
	rows, err := s.DB.QueryContext(ctx, q, season)
	if err != nil {
		return nil, fmt.Errorf("querying matchups: %w", err)
	}
	defer rows.Close()

	var matchups []league.Matchup
	for rows.Next() {
		var m league.Matchup
		var home, away sql.NullFloat64
		if err := rows.Scan(&m.ID, &m.Week, &m.HomeTeamID, &m.AwayTeamID, &home, &away, &m.Completed, &m.IsPlayoff); err != nil {
			return nil, fmt.Errorf("scanning matchup: %w", err)
		}
		m.HomeScore = floatPtr(home)
		m.AwayScore = floatPtr(away)
		matchups = append(matchups, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matchups: %w", err)
	}
	if len(matchups) == 0 {
		return nil, fmt.Errorf("season %d schedule: %w", season, ErrNotFound)
	}
	return league.BuildSchedule(matchups)
}

// DeleteSeason removes a season's matchups.
func (s *Store) DeleteSeason(ctx context.Context, season int) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM matchups WHERE season = $1`, season)
	if err != nil {
		return fmt.Errorf("deleting season %d matchups: %w", season, err)
	}
	return nil
}

// SaveRun persists a simulation run and its team rows in one transaction.
func (s *Store) SaveRun(ctx context.Context, run *SimulationRun) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin SaveRun tx: %w", err)
	}
	defer tx.Rollback()

	const runQuery = `
INSERT INTO simulation_runs
    (id, season, iterations, start_week, use_actual_results, playoff_teams,
     league_average, league_std_dev, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`
	if _, err := tx.ExecContext(ctx, runQuery,
		run.ID, run.Season, run.Params.Iterations, run.Params.StartWeek, run.Params.UseActualResults,
		run.PlayoffTeams, run.League.Average, run.League.StdDev,
		run.Duration.Milliseconds(), run.CreatedAt,
	); err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	const teamQuery = `
INSERT INTO simulation_team_results
    (run_id, team_id, position, name, average, std_dev, wins, losses, ties,
     points_for, points_against, playoff_odds, last_place_odds, championship_odds,
     regular_season_finishes, playoff_finishes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
`
	for i, t := range run.Teams {
		if _, err := tx.ExecContext(ctx, teamQuery,
			run.ID, int(t.ID), i, t.Name, t.Average, t.StdDev, t.Wins, t.Losses, t.Ties,
			t.PointsFor, t.PointsAgainst, t.PlayoffOdds, t.LastPlaceOdds, t.ChampionshipOdds,
			pq.Array(t.RegularSeasonFinishes), pq.Array(t.PlayoffFinishes),
		); err != nil {
			return fmt.Errorf("inserting run %s team %d: %w", run.ID, t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit SaveRun tx: %w", err)
	}
	return nil
}

// GetRun loads a persisted run. Raw per-iteration distributions are not stored.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*SimulationRun, error) {
	const runQuery = `
SELECT season, iterations, start_week, use_actual_results, playoff_teams,
       league_average, league_std_dev, duration_ms, created_at
FROM simulation_runs
WHERE id = $1
`
	run := &SimulationRun{ID: id}
	var durationMS int64
	err := s.DB.QueryRowContext(ctx, runQuery, id).Scan(
		&run.Season, &run.Params.Iterations, &run.Params.StartWeek, &run.Params.UseActualResults,
		&run.PlayoffTeams, &run.League.Average, &run.League.StdDev, &durationMS, &run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", id, err)
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond

	const teamQuery = `
SELECT team_id, name, average, std_dev, wins, losses, ties, points_for, points_against,
       playoff_odds, last_place_odds, championship_odds, regular_season_finishes, playoff_finishes
FROM simulation_team_results
WHERE run_id = $1
ORDER BY position
`
	rows, err := s.DB.QueryContext(ctx, teamQuery, id)
	if err != nil {
		return nil, fmt.Errorf("querying run %s teams: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t league.TeamScoringData
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Average, &t.StdDev, &t.Wins, &t.Losses, &t.Ties,
			&t.PointsFor, &t.PointsAgainst, &t.PlayoffOdds, &t.LastPlaceOdds, &t.ChampionshipOdds,
			pq.Array(&t.RegularSeasonFinishes), pq.Array(&t.PlayoffFinishes),
		); err != nil {
			return nil, fmt.Errorf("scanning run team row: %w", err)
		}
		run.Teams = append(run.Teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run team rows: %w", err)
	}
	return run, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
