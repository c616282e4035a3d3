package league

// TeamID identifies a franchise for the lifetime of a league.
type TeamID int

// TeamStats is a team's weekly scoring distribution.
type TeamStats struct {
	ID      TeamID  `json:"id"`
	Name    string  `json:"name,omitempty"`
	Average float64 `json:"average"`
	StdDev  float64 `json:"std_dev"`
}

// LeagueStats is the scoring distribution over every individual score in the league.
type LeagueStats struct {
	Average float64 `json:"average"`
	StdDev  float64 `json:"std_dev"`
}

// Matchup represents one scheduled game between two teams.
// HomeScore and AwayScore are nil until a score has been recorded.
type Matchup struct {
	ID         int      `json:"id,omitempty"`
	Week       int      `json:"week"`
	HomeTeamID TeamID   `json:"home_team_id"`
	AwayTeamID TeamID   `json:"away_team_id"`
	HomeScore  *float64 `json:"home_score,omitempty"`
	AwayScore  *float64 `json:"away_score,omitempty"`
	Completed  bool     `json:"completed"`
	IsPlayoff  bool     `json:"is_playoff"`
}

// Scored reports whether both sides of the matchup have a recorded score.
func (m Matchup) Scored() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// Scores returns the recorded scores, zero when missing.
func (m Matchup) Scores() (home, away float64) {
	if m.HomeScore != nil {
		home = *m.HomeScore
	}
	if m.AwayScore != nil {
		away = *m.AwayScore
	}
	return home, away
}

// Week holds the matchups played in a single week. Order inside a week is not significant.
type Week []Matchup

// Schedule is the season in week order; Schedule[i] is week i+1.
type Schedule []Week

// Matchups returns every matchup in the schedule in week order.
func (s Schedule) Matchups() []Matchup {
	var out []Matchup
	for _, week := range s {
		out = append(out, week...)
	}
	return out
}

// SimulationParams controls a simulation run.
type SimulationParams struct {
	Iterations       int  `json:"iterations"`
	StartWeek        int  `json:"start_week"`
	UseActualResults bool `json:"use_actual_results"`
}

// SingleTeamResult holds one team's outcome for a single simulated season.
type SingleTeamResult struct {
	ID                  TeamID  `json:"id"`
	Wins                int     `json:"wins"`
	Losses              int     `json:"losses"`
	Ties                int     `json:"ties"`
	PointsFor           float64 `json:"points_for"`
	PointsAgainst       float64 `json:"points_against"`
	MadePlayoffs        bool    `json:"made_playoffs"`
	LastPlace           bool    `json:"last_place"`
	RegularSeasonResult int     `json:"regular_season_result"`
	// PlayoffResult is the final playoff placement, 0 when the team missed the playoffs.
	PlayoffResult int `json:"playoff_result"`
}

// Games is the number of regular-season games the team played.
func (r SingleTeamResult) Games() int {
	return r.Wins + r.Losses + r.Ties
}
