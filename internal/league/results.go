package league

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TeamResult accumulates a team's outcomes across simulated seasons.
type TeamResult struct {
	ID            TeamID
	Iterations    int
	Wins          int
	Losses        int
	Ties          int
	PointsFor     float64
	PointsAgainst float64
	MadePlayoffs  int
	LastPlace     int
	Championships int
	// Per-iteration distributions, in iteration order.
	RegularSeasonResults []int
	PlayoffResults       []int
}

// NewTeamResult returns an empty accumulator sized for the expected number of iterations.
func NewTeamResult(id TeamID, capacity int) *TeamResult {
	return &TeamResult{
		ID:                   id,
		RegularSeasonResults: make([]int, 0, capacity),
		PlayoffResults:       make([]int, 0, capacity),
	}
}

// Add folds one season into the running totals.
func (r *TeamResult) Add(s SingleTeamResult) {
	r.Iterations++
	r.Wins += s.Wins
	r.Losses += s.Losses
	r.Ties += s.Ties
	r.PointsFor += s.PointsFor
	r.PointsAgainst += s.PointsAgainst
	if s.MadePlayoffs {
		r.MadePlayoffs++
	}
	if s.LastPlace {
		r.LastPlace++
	}
	if s.PlayoffResult == 1 {
		r.Championships++
	}
	r.RegularSeasonResults = append(r.RegularSeasonResults, s.RegularSeasonResult)
	r.PlayoffResults = append(r.PlayoffResults, s.PlayoffResult)
}

// Merge appends another accumulator's totals and distributions after this one's.
func (r *TeamResult) Merge(o *TeamResult) {
	r.Iterations += o.Iterations
	r.Wins += o.Wins
	r.Losses += o.Losses
	r.Ties += o.Ties
	r.PointsFor += o.PointsFor
	r.PointsAgainst += o.PointsAgainst
	r.MadePlayoffs += o.MadePlayoffs
	r.LastPlace += o.LastPlace
	r.Championships += o.Championships
	r.RegularSeasonResults = append(r.RegularSeasonResults, o.RegularSeasonResults...)
	r.PlayoffResults = append(r.PlayoffResults, o.PlayoffResults...)
}

// TeamScoringData is the per-team summary handed to the presentation layer.
type TeamScoringData struct {
	ID               TeamID  `json:"id"`
	Name             string  `json:"name,omitempty"`
	Average          float64 `json:"average"`
	StdDev           float64 `json:"std_dev"`
	Wins             float64 `json:"wins"`
	Losses           float64 `json:"losses"`
	Ties             float64 `json:"ties"`
	PointsFor        float64 `json:"points_for"`
	PointsAgainst    float64 `json:"points_against"`
	PlayoffOdds      float64 `json:"playoff_odds"`
	LastPlaceOdds    float64 `json:"last_place_odds"`
	ChampionshipOdds float64 `json:"championship_odds"`
	// RegularSeasonFinishes[i] is the probability of finishing the regular season in place i+1.
	RegularSeasonFinishes []float64 `json:"regular_season_finishes"`
	// PlayoffFinishes[i] is the probability of a final playoff placement of i+1.
	PlayoffFinishes      []float64 `json:"playoff_finishes"`
	RegularSeasonResults []int     `json:"regular_season_results,omitempty"`
	PlayoffResults       []int     `json:"playoff_results,omitempty"`
}

// ScoringData normalizes the accumulated totals into per-season means and odds.
// places is the number of teams in the league and sizes the finish arrays.
func (r *TeamResult) ScoringData(team TeamStats, places int) TeamScoringData {
	data := TeamScoringData{
		ID:                    r.ID,
		Name:                  team.Name,
		Average:               team.Average,
		StdDev:                team.StdDev,
		RegularSeasonFinishes: make([]float64, places),
		PlayoffFinishes:       make([]float64, places),
		RegularSeasonResults:  r.RegularSeasonResults,
		PlayoffResults:        r.PlayoffResults,
	}
	if r.Iterations == 0 {
		return data
	}

	n := float64(r.Iterations)
	data.Wins = float64(r.Wins) / n
	data.Losses = float64(r.Losses) / n
	data.Ties = float64(r.Ties) / n
	data.PointsFor = r.PointsFor / n
	data.PointsAgainst = r.PointsAgainst / n
	data.PlayoffOdds = float64(r.MadePlayoffs) / n
	data.LastPlaceOdds = float64(r.LastPlace) / n
	data.ChampionshipOdds = float64(r.Championships) / n

	finishOdds(data.RegularSeasonFinishes, r.RegularSeasonResults, n)
	finishOdds(data.PlayoffFinishes, r.PlayoffResults, n)
	return data
}

// finishOdds counts each place then divides once, so a place held every season is exactly 1.
func finishOdds(odds []float64, results []int, n float64) {
	counts := make([]int, len(odds))
	for _, place := range results {
		if place >= 1 && place <= len(odds) {
			counts[place-1]++
		}
	}
	for i, c := range counts {
		odds[i] = float64(c) / n
	}
}

// RegularSeasonPercentile returns the p-quantile (0..1) of the team's regular-season rank.
func (d TeamScoringData) RegularSeasonPercentile(p float64) float64 {
	return quantile(p, d.RegularSeasonResults)
}

// PlayoffPercentile returns the p-quantile of the team's playoff placement over the
// seasons in which it qualified. It returns 0 if the team never qualified.
func (d TeamScoringData) PlayoffPercentile(p float64) float64 {
	placed := make([]int, 0, len(d.PlayoffResults))
	for _, place := range d.PlayoffResults {
		if place > 0 {
			placed = append(placed, place)
		}
	}
	return quantile(p, placed)
}

func quantile(p float64, values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	xs := make([]float64, len(values))
	for i, v := range values {
		xs[i] = float64(v)
	}
	sort.Float64s(xs)
	return stat.Quantile(p, stat.Empirical, xs, nil)
}

// SortForDisplay orders teams the way standings projections are presented:
// playoff odds, then last-place odds, then expected wins, then scoring average.
func SortForDisplay(data []TeamScoringData) {
	sort.SliceStable(data, func(i, j int) bool {
		a, b := data[i], data[j]
		if a.PlayoffOdds != b.PlayoffOdds {
			return a.PlayoffOdds > b.PlayoffOdds
		}
		if a.LastPlaceOdds != b.LastPlaceOdds {
			return a.LastPlaceOdds > b.LastPlaceOdds
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Average != b.Average {
			return a.Average > b.Average
		}
		return a.ID < b.ID
	})
}

// Prediction is a team's championship probability in percent.
type Prediction struct {
	Team        TeamID  `json:"team_id"`
	Name        string  `json:"name,omitempty"`
	Probability float64 `json:"probability"`
}

// ChampionshipPredictions converts championship odds to percentages rounded to two decimals,
// highest first.
func ChampionshipPredictions(data []TeamScoringData) []Prediction {
	preds := make([]Prediction, 0, len(data))
	for _, d := range data {
		p := d.ChampionshipOdds * 100.0
		preds = append(preds, Prediction{Team: d.ID, Name: d.Name, Probability: math.Round(p*100) / 100})
	}
	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].Probability > preds[j].Probability
	})
	return preds
}
