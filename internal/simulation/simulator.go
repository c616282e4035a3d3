package simulation

import (
	"context"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/season-simulator/internal/league"
	"github.com/utakatalp/season-simulator/internal/random"
)

// DefaultPlayoffTeams is the usual number of playoff berths in a twelve-team league.
const DefaultPlayoffTeams = 6

// cancelCheckInterval is how many seasons a worker simulates between context checks.
const cancelCheckInterval = 64

// Simulator runs Monte Carlo season projections.
type Simulator struct {
	playoffTeams int
	workers      int
	seed         uint64
	seeded       bool
	logger       logrus.FieldLogger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithPlayoffTeams sets the number of playoff berths.
func WithPlayoffTeams(n int) Option {
	return func(s *Simulator) { s.playoffTeams = n }
}

// WithWorkers sets how many goroutines share the iterations. Values below 1 use one.
func WithWorkers(n int) Option {
	return func(s *Simulator) { s.workers = n }
}

// WithSeed makes runs reproducible: identical inputs, seed and worker count give
// identical results.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		s.seed = seed
		s.seeded = true
	}
}

// WithLogger sets the logger used for run summaries.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Simulator) { s.logger = logger }
}

// New returns a Simulator. By default it uses every CPU and a non-deterministic seed.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		playoffTeams: DefaultPlayoffTeams,
		workers:      runtime.NumCPU(),
		logger:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		s.workers = 1
	}
	return s
}

// PlayoffTeams returns the configured number of playoff berths.
func (s *Simulator) PlayoffTeams() int { return s.playoffTeams }

// Result is the aggregated output of a run.
type Result struct {
	Iterations int                                     `json:"iterations"`
	Teams      map[league.TeamID]league.TeamScoringData `json:"teams"`
	Duration   time.Duration                           `json:"duration"`
}

// Sorted returns the team data in display order.
func (r *Result) Sorted() []league.TeamScoringData {
	out := make([]league.TeamScoringData, 0, len(r.Teams))
	for _, d := range r.Teams {
		out = append(out, d)
	}
	league.SortForDisplay(out)
	return out
}

func (s *Simulator) baseSeed() uint64 {
	if s.seeded {
		return s.seed
	}
	return rand.Uint64()
}

// Run validates the input and simulates params.Iterations independent seasons.
// Iterations are split into contiguous chunks, one per worker, and each worker keeps its
// own random source and partial totals; partials are merged in worker order at the end.
// A cancelled context stops the run and returns the context error.
func (s *Simulator) Run(ctx context.Context, in Input, params league.SimulationParams) (*Result, error) {
	if err := Validate(in, params, s.playoffTeams); err != nil {
		return nil, err
	}
	start := time.Now()
	plan := newSeason(in, params, s.playoffTeams)

	workers := s.workers
	if workers > params.Iterations {
		workers = params.Iterations
	}
	seed := s.baseSeed()

	s.logger.WithFields(logrus.Fields{
		"iterations": params.Iterations,
		"start_week": params.StartWeek,
		"use_actual": params.UseActualResults,
		"teams":      len(in.Teams),
		"workers":    workers,
	}).Debug("Starting season simulation")

	partials := make([][]*league.TeamResult, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		from := w * params.Iterations / workers
		to := (w + 1) * params.Iterations / workers
		wg.Add(1)
		go func(w, from, to int) {
			defer wg.Done()
			partials[w], errs[w] = plan.simulateRange(ctx, random.NewSource(seed, uint64(w)), to-from)
		}(w, from, to)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	totals := partials[0]
	for _, partial := range partials[1:] {
		for i := range totals {
			totals[i].Merge(partial[i])
		}
	}

	result := &Result{
		Iterations: params.Iterations,
		Teams:      make(map[league.TeamID]league.TeamScoringData, len(in.Teams)),
		Duration:   time.Since(start),
	}
	for i, team := range in.Teams {
		result.Teams[team.ID] = totals[i].ScoringData(team, len(in.Teams))
	}

	s.logger.WithFields(logrus.Fields{
		"iterations":     params.Iterations,
		"workers":        workers,
		"execution_time": result.Duration,
	}).Info("Season simulation completed")
	return result, nil
}

// simulateRange runs n seasons into a fresh set of per-team accumulators.
func (s *season) simulateRange(ctx context.Context, src random.Source, n int) ([]*league.TeamResult, error) {
	totals := make([]*league.TeamResult, len(s.teams))
	for i, t := range s.teams {
		totals[i] = league.NewTeamResult(t.ID, n)
	}
	results := make([]league.SingleTeamResult, len(s.teams))
	for i := 0; i < n; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		s.run(src, results)
		for t := range results {
			totals[t].Add(results[t])
		}
	}
	return totals, nil
}
