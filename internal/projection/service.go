package projection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/season-simulator/internal/cache"
	"github.com/utakatalp/season-simulator/internal/league"
	"github.com/utakatalp/season-simulator/internal/simulation"
	"github.com/utakatalp/season-simulator/internal/store"
)

// Repository is the persistence the service needs. *store.Store implements it.
type Repository interface {
	GetTeams(ctx context.Context) ([]league.TeamStats, error)
	LoadSchedule(ctx context.Context, season int) (league.Schedule, error)
	SaveRun(ctx context.Context, run *store.SimulationRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*store.SimulationRun, error)
	RecordScore(ctx context.Context, id int, home, away float64, completed bool) (int, error)
}

// Cache is the read-through cache in front of the simulator. *cache.Cache implements it.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	ProjectionKey(season int, params league.SimulationParams, playoffTeams int) string
	RunKey(runID string) string
	InvalidateSeason(ctx context.Context, season int) error
}

// Options bounds the work a single request may ask for.
type Options struct {
	DefaultIterations int
	MaxIterations     int
	MatchupIterations int
	Timeout           time.Duration
}

// Service loads league data, runs projections and keeps their results.
type Service struct {
	repo   Repository
	cache  Cache
	sim    *simulation.Simulator
	opts   Options
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewService wires a projection service. cache may be nil.
func NewService(repo Repository, c Cache, sim *simulation.Simulator, opts Options, logger logrus.FieldLogger) *Service {
	if opts.DefaultIterations <= 0 {
		opts.DefaultIterations = 10000
	}
	if opts.MaxIterations < opts.DefaultIterations {
		opts.MaxIterations = opts.DefaultIterations
	}
	if opts.MatchupIterations <= 0 {
		opts.MatchupIterations = opts.DefaultIterations
	}
	return &Service{
		repo:   repo,
		cache:  c,
		sim:    sim,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Project simulates the rest of a season. A cached projection for the same season and
// parameters is returned without re-running.
func (s *Service) Project(ctx context.Context, season int, params league.SimulationParams) (*store.SimulationRun, error) {
	params, err := s.normalize(params)
	if err != nil {
		return nil, err
	}

	key := ""
	if s.cache != nil {
		key = s.cache.ProjectionKey(season, params, s.sim.PlayoffTeams())
		var cached store.SimulationRun
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.WithError(err).WithField("key", key).Warn("Projection cache read failed")
		}
	}

	in, err := s.loadInput(ctx, season, params.StartWeek)
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	result, err := s.sim.Run(runCtx, in, params)
	if err != nil {
		return nil, fmt.Errorf("simulating season %d: %w", season, err)
	}

	run := &store.SimulationRun{
		ID:           uuid.New(),
		Season:       season,
		Params:       params,
		PlayoffTeams: s.sim.PlayoffTeams(),
		League:       in.League,
		Teams:        summarize(result.Sorted()),
		Duration:     result.Duration,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("saving run: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, run); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Projection cache write failed")
		}
		if err := s.cache.Set(ctx, s.cache.RunKey(run.ID.String()), run); err != nil {
			s.logger.WithError(err).WithField("run_id", run.ID).Warn("Run cache write failed")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"run_id":         run.ID,
		"season":         season,
		"iterations":     params.Iterations,
		"start_week":     params.StartWeek,
		"execution_time": result.Duration,
	}).Info("Season projection stored")
	return run, nil
}

// Run returns a stored projection by ID.
func (s *Service) Run(ctx context.Context, id string) (*store.SimulationRun, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return nil, simulation.ValidationError{Field: "id", Message: fmt.Sprintf("invalid run id %q", id)}
	}

	if s.cache != nil {
		var cached store.SimulationRun
		if err := s.cache.Get(ctx, s.cache.RunKey(runID.String()), &cached); err == nil {
			return &cached, nil
		}
	}

	run, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cache.RunKey(runID.String()), run); err != nil {
			s.logger.WithError(err).WithField("run_id", runID).Warn("Run cache write failed")
		}
	}
	return run, nil
}

// MatchupOdds projects a single game between two teams of a season using every completed
// result of that season.
func (s *Service) MatchupOdds(ctx context.Context, season int, home, away league.TeamID, iterations int) (simulation.MatchupProjection, error) {
	if iterations == 0 {
		iterations = s.opts.MatchupIterations
	}
	if iterations < 0 || iterations > s.opts.MaxIterations {
		return simulation.MatchupProjection{}, simulation.ValidationError{
			Field:   "iterations",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", s.opts.MaxIterations, iterations),
		}
	}

	in, err := s.loadInput(ctx, season, 0)
	if err != nil {
		return simulation.MatchupProjection{}, err
	}
	homeStats, ok := findTeam(in.Teams, home)
	if !ok {
		return simulation.MatchupProjection{}, fmt.Errorf("team %d in season %d: %w", home, season, store.ErrNotFound)
	}
	awayStats, ok := findTeam(in.Teams, away)
	if !ok {
		return simulation.MatchupProjection{}, fmt.Errorf("team %d in season %d: %w", away, season, store.ErrNotFound)
	}
	return s.sim.MatchupOdds(homeStats, awayStats, in.League, iterations)
}

// RecordScore stores a matchup result and drops the cached projections of its season,
// which no longer reflect the recorded games.
func (s *Service) RecordScore(ctx context.Context, matchupID int, home, away float64, completed bool) error {
	var errs simulation.ValidationErrors
	scores := []struct {
		field string
		value float64
	}{{"home_score", home}, {"away_score", away}}
	for _, sc := range scores {
		if math.IsNaN(sc.value) || math.IsInf(sc.value, 0) || sc.value < 0 {
			errs.Errors = append(errs.Errors, simulation.ValidationError{
				Field:   sc.field,
				Message: fmt.Sprintf("must be a non-negative finite number, got %v", sc.value),
			})
		}
	}
	if len(errs.Errors) > 0 {
		return errs
	}

	season, err := s.repo.RecordScore(ctx, matchupID, home, away, completed)
	if err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateSeason(ctx, season); err != nil {
			s.logger.WithError(err).WithField("season", season).Warn("Cache invalidation failed")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"matchup_id": matchupID,
		"season":     season,
		"home_score": home,
		"away_score": away,
		"completed":  completed,
	}).Info("Matchup score recorded")
	return nil
}

// Refresh drops a season's cached projections and recomputes the default one.
func (s *Service) Refresh(ctx context.Context, season int) (*store.SimulationRun, error) {
	if s.cache != nil {
		if err := s.cache.InvalidateSeason(ctx, season); err != nil {
			s.logger.WithError(err).WithField("season", season).Warn("Cache invalidation failed")
		}
	}
	return s.Project(ctx, season, league.SimulationParams{StartWeek: 1, UseActualResults: true})
}

// normalize applies defaults and rejects parameters outside the configured bounds.
func (s *Service) normalize(params league.SimulationParams) (league.SimulationParams, error) {
	if params.Iterations == 0 {
		params.Iterations = s.opts.DefaultIterations
	}
	if params.StartWeek == 0 {
		params.StartWeek = 1
	}

	var errs simulation.ValidationErrors
	if params.Iterations < 0 || params.Iterations > s.opts.MaxIterations {
		errs.Errors = append(errs.Errors, simulation.ValidationError{
			Field:   "iterations",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", s.opts.MaxIterations, params.Iterations),
		})
	}
	if params.StartWeek < 0 {
		errs.Errors = append(errs.Errors, simulation.ValidationError{
			Field:   "start_week",
			Message: fmt.Sprintf("must be positive, got %d", params.StartWeek),
		})
	}
	if len(errs.Errors) > 0 {
		return params, errs
	}
	return params, nil
}

// loadInput builds simulator input for a season: the schedule, the teams that play in it,
// and scoring distributions derived from results before startWeek.
func (s *Service) loadInput(ctx context.Context, season, startWeek int) (simulation.Input, error) {
	schedule, err := s.repo.LoadSchedule(ctx, season)
	if err != nil {
		return simulation.Input{}, fmt.Errorf("loading season %d: %w", season, err)
	}
	roster, err := s.repo.GetTeams(ctx)
	if err != nil {
		return simulation.Input{}, fmt.Errorf("loading teams: %w", err)
	}

	playing := make(map[league.TeamID]bool)
	for _, m := range schedule.Matchups() {
		playing[m.HomeTeamID] = true
		playing[m.AwayTeamID] = true
	}
	active := make([]league.TeamStats, 0, len(playing))
	for _, t := range roster {
		if playing[t.ID] {
			active = append(active, t)
		}
	}

	teams, lg := league.DeriveStats(active, schedule, startWeek)
	return simulation.Input{Teams: teams, League: lg, Schedule: schedule}, nil
}

// summarize drops the per-iteration distributions, which are too large to persist or cache.
func summarize(teams []league.TeamScoringData) []league.TeamScoringData {
	for i := range teams {
		teams[i].RegularSeasonResults = nil
		teams[i].PlayoffResults = nil
	}
	return teams
}

func findTeam(teams []league.TeamStats, id league.TeamID) (league.TeamStats, bool) {
	for _, t := range teams {
		if t.ID == id {
			return t, true
		}
	}
	return league.TeamStats{}, false
}
