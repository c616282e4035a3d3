package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/season-simulator/internal/cache"
	"github.com/utakatalp/season-simulator/internal/league"
	"github.com/utakatalp/season-simulator/internal/logger"
	"github.com/utakatalp/season-simulator/internal/simulation"
	"github.com/utakatalp/season-simulator/internal/store"
)

// leagueFile is the on-disk league format. Either schedule or matchups may be given.
// Team distributions are derived from recorded scores when no team carries any, and the
// league distribution when it is absent. A zero std_dev on its own is a valid
// distribution and is kept.
type leagueFile struct {
	Teams    []league.TeamStats `json:"teams"`
	League   league.LeagueStats `json:"league"`
	Schedule league.Schedule    `json:"schedule"`
	Matchups []league.Matchup   `json:"matchups"`
}

func main() {
	var (
		leaguePath   = flag.String("league", "", "league JSON file (teams plus schedule or matchups)")
		demoTeams    = flag.Int("teams", 10, "teams in the generated demo league when -league is not set")
		demoWeeks    = flag.Int("weeks", 14, "regular-season weeks in the generated demo league")
		iterations   = flag.Int("iterations", 10000, "number of simulated seasons")
		startWeek    = flag.Int("start-week", 1, "first week to simulate")
		useActual    = flag.Bool("use-actual", true, "replay recorded scores before the start week")
		playoffTeams = flag.Int("playoff-teams", simulation.DefaultPlayoffTeams, "playoff berths")
		seed         = flag.Uint64("seed", 0, "random seed, 0 for a random run")
		workers      = flag.Int("workers", 0, "worker goroutines, 0 for one per CPU")
		logLevel     = flag.String("log-level", "", "log level")
		deriveStats  = flag.Bool("derive-stats", false, "recompute team and league stats from recorded scores")
		importSeason = flag.Int("import", 0, "store the league as this season in DATABASE_URL before simulating")
	)
	flag.Parse()

	log := logger.New(logger.Options{Level: *logLevel, Development: true, Output: os.Stderr})

	in, err := loadInput(*leaguePath, *demoTeams, *demoWeeks, *startWeek, *deriveStats)
	if err != nil {
		log.Fatalf("Failed to load league: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *importSeason > 0 {
		if err := importLeague(ctx, in, *importSeason, log); err != nil {
			log.Fatalf("Failed to import league: %v", err)
		}
	}

	opts := []simulation.Option{
		simulation.WithPlayoffTeams(*playoffTeams),
		simulation.WithLogger(log),
	}
	if *workers > 0 {
		opts = append(opts, simulation.WithWorkers(*workers))
	}
	if *seed != 0 {
		opts = append(opts, simulation.WithSeed(*seed))
	}
	sim := simulation.New(opts...)

	result, err := sim.Run(ctx, in, league.SimulationParams{
		Iterations:       *iterations,
		StartWeek:        *startWeek,
		UseActualResults: *useActual,
	})
	if err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	table := result.Sorted()
	league.PrintTable(os.Stdout, fmt.Sprintf("Projected standings (%d seasons, %s)", result.Iterations, result.Duration), table)

	fmt.Println()
	fmt.Println("Championship predictions")
	for _, p := range league.ChampionshipPredictions(table) {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("Team %d", p.Team)
		}
		fmt.Printf("%-20s %6.2f%%\n", name, p.Probability)
	}
}

func loadInput(path string, teams, weeks, startWeek int, derive bool) (simulation.Input, error) {
	if path == "" {
		return demoLeague(teams, weeks), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return simulation.Input{}, err
	}
	var f leagueFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return simulation.Input{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	schedule := f.Schedule
	if len(schedule) == 0 && len(f.Matchups) > 0 {
		if schedule, err = league.BuildSchedule(f.Matchups); err != nil {
			return simulation.Input{}, err
		}
	}

	in := simulation.Input{Teams: f.Teams, League: f.League, Schedule: schedule}
	switch {
	case derive || !hasTeamStats(f.Teams):
		in.Teams, in.League = league.DeriveStats(f.Teams, schedule, startWeek)
	case f.League == (league.LeagueStats{}):
		_, in.League = league.DeriveStats(f.Teams, schedule, startWeek)
	}
	return in, nil
}

// hasTeamStats reports whether any team carries a scoring distribution.
func hasTeamStats(teams []league.TeamStats) bool {
	for _, t := range teams {
		if t.Average != 0 || t.StdDev != 0 {
			return true
		}
	}
	return false
}

// demoLeague builds a round-robin league with evenly spread team strengths.
func demoLeague(teams, weeks int) simulation.Input {
	ids := make([]league.TeamID, teams)
	stats := make([]league.TeamStats, teams)
	var sum float64
	for i := range ids {
		ids[i] = league.TeamID(i + 1)
		avg := 95 + 3*float64(i)
		stats[i] = league.TeamStats{ID: ids[i], Name: fmt.Sprintf("Team %d", i+1), Average: avg, StdDev: 18}
		sum += avg
	}
	lg := league.LeagueStats{StdDev: 20}
	if teams > 0 {
		lg.Average = sum / float64(teams)
	}
	return simulation.Input{Teams: stats, League: lg, Schedule: league.GenerateSchedule(ids, weeks)}
}

func importLeague(ctx context.Context, in simulation.Input, season int, log *logrus.Logger) error {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	db, err := store.NewStore(ctx, url, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	if err := db.UpsertTeams(ctx, in.Teams); err != nil {
		return err
	}
	if err := db.DeleteSeason(ctx, season); err != nil {
		return err
	}
	if err := db.InitSeason(ctx, season, in.Schedule); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"season": season, "teams": len(in.Teams), "weeks": len(in.Schedule)}).Info("League imported")

	return invalidateProjections(ctx, os.Getenv("REDIS_URL"), season, log)
}

// invalidateProjections drops the season's cached projections, which describe the schedule
// that was just replaced. An empty or unreachable Redis is skipped with a warning.
func invalidateProjections(ctx context.Context, redisURL string, season int, log *logrus.Logger) error {
	if redisURL == "" {
		return nil
	}
	c, err := cache.Connect(ctx, redisURL, cache.Config{}, log)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, cached projections were not invalidated")
		return nil
	}
	defer c.Close()
	return c.InvalidateSeason(ctx, season)
}
