package simulation

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/utakatalp/season-simulator/internal/league"
)

// ErrInvalidInput is matched by every validation failure.
var ErrInvalidInput = errors.New("invalid simulation input")

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// ValidationErrors collects every problem found in one input.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (e ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	messages := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

func (e ValidationErrors) Unwrap() error { return ErrInvalidInput }

func (e *ValidationErrors) add(field, format string, args ...any) {
	e.Errors = append(e.Errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Input is everything a run needs from the data layer. It is never mutated.
type Input struct {
	Teams    []league.TeamStats `json:"teams"`
	League   league.LeagueStats `json:"league"`
	Schedule league.Schedule    `json:"schedule"`
}

// Validate rejects inputs the simulator cannot run. It is called before any simulation work.
func Validate(in Input, params league.SimulationParams, playoffTeams int) error {
	var errs ValidationErrors
	if params.Iterations <= 0 {
		errs.add("iterations", "must be positive, got %d", params.Iterations)
	}
	validateInput(&errs, in, playoffTeams)
	if len(errs.Errors) > 0 {
		return errs
	}
	return nil
}

func validateInput(errs *ValidationErrors, in Input, playoffTeams int) {
	if len(in.Teams) == 0 {
		errs.add("teams", "at least one team is required")
	}
	if playoffTeams < 0 || playoffTeams > len(in.Teams) {
		errs.add("playoff_teams", "must be between 0 and %d, got %d", len(in.Teams), playoffTeams)
	}
	if !validMoment(in.League.Average) || !validMoment(in.League.StdDev) {
		errs.add("league", "average and std_dev must be finite and non-negative")
	}

	known := make(map[league.TeamID]bool, len(in.Teams))
	for _, t := range in.Teams {
		if known[t.ID] {
			errs.add("teams", "duplicate team %d", t.ID)
		}
		known[t.ID] = true
		if !validMoment(t.Average) || !validMoment(t.StdDev) {
			errs.add("teams", "team %d: average and std_dev must be finite and non-negative", t.ID)
		}
	}

	for i, week := range in.Schedule {
		for _, m := range week {
			field := fmt.Sprintf("schedule[%d]", i+1)
			if !known[m.HomeTeamID] {
				errs.add(field, "unknown home team %d", m.HomeTeamID)
			}
			if !known[m.AwayTeamID] {
				errs.add(field, "unknown away team %d", m.AwayTeamID)
			}
			if m.HomeTeamID == m.AwayTeamID {
				errs.add(field, "team %d cannot play itself", m.HomeTeamID)
			}
			if m.Completed && !m.Scored() {
				errs.add(field, "completed matchup %d has no recorded score", m.ID)
			}
			if m.Scored() {
				home, away := m.Scores()
				if math.IsNaN(home) || math.IsInf(home, 0) || math.IsNaN(away) || math.IsInf(away, 0) {
					errs.add(field, "matchup %d has a non-finite score", m.ID)
				}
			}
		}
	}
}

func validMoment(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
