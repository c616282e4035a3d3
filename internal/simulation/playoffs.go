package simulation

import (
	"fmt"

	"github.com/utakatalp/season-simulator/internal/league"
	"github.com/utakatalp/season-simulator/internal/random"
)

// SeedState is where a playoff team stands in the bracket.
type SeedState int

const (
	Seeded SeedState = iota
	InProgress
	Eliminated
	Champion
)

func (s SeedState) String() string {
	switch s {
	case Seeded:
		return "seeded"
	case InProgress:
		return "in_progress"
	case Eliminated:
		return "eliminated"
	case Champion:
		return "champion"
	default:
		return fmt.Sprintf("SeedState(%d)", int(s))
	}
}

// entrant is one playoff team. round counts the rounds it has entered.
type entrant struct {
	team      int
	seed      int
	state     SeedState
	round     int
	placement int
}

func (e *entrant) enter() {
	if e.state == Seeded || e.state == InProgress {
		e.state = InProgress
		e.round++
	}
}

func (e *entrant) eliminate(placement int) {
	e.state = Eliminated
	e.placement = placement
}

func (e *entrant) crown() {
	e.state = Champion
	e.placement = 1
}

// BracketOrder lists seeds in bracket position for a power-of-two field, so that adjacent
// pairs meet in the first round and the top two seeds can only meet in the final.
// BracketOrder(8) is [1 8 4 5 2 7 3 6].
func BracketOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		n := len(order) * 2
		next := make([]int, 0, n)
		for _, s := range order {
			next = append(next, s, n+1-s)
		}
		order = next
	}
	return order
}

func bracketSize(teams int) int {
	size := 1
	for size < teams {
		size *= 2
	}
	return size
}

// Bracket is a single-elimination playoff for one simulated season.
type Bracket struct {
	entrants []*entrant
	slots    []*entrant // bracket positions; nil is a bye
}

// NewBracket seeds teams (roster indices, best first). Byes go to the top seeds.
func NewBracket(seeds []int) *Bracket {
	b := &Bracket{}
	if len(seeds) == 0 {
		return b
	}
	for i, team := range seeds {
		b.entrants = append(b.entrants, &entrant{team: team, seed: i + 1})
	}
	size := bracketSize(len(seeds))
	for _, seed := range BracketOrder(size) {
		if seed <= len(seeds) {
			b.slots = append(b.slots, b.entrants[seed-1])
		} else {
			b.slots = append(b.slots, nil)
		}
	}
	return b
}

// Play runs the bracket to completion with play deciding each game, better seed first.
func (b *Bracket) Play(play func(better, worse int) (winner, loser int)) {
	if len(b.entrants) == 0 {
		return
	}
	if len(b.entrants) == 1 {
		b.entrants[0].crown()
		return
	}

	current := b.slots
	for len(current) > 1 {
		next := make([]*entrant, 0, len(current)/2)
		var losers []*entrant

		for i := 0; i+1 < len(current); i += 2 {
			x, y := current[i], current[i+1]
			switch {
			case x == nil && y == nil:
				next = append(next, nil)
				continue
			case y == nil:
				x.enter()
				next = append(next, x)
				continue
			case x == nil:
				y.enter()
				next = append(next, y)
				continue
			}
			if y.seed < x.seed {
				x, y = y, x
			}
			x.enter()
			y.enter()
			winner, _ := play(x.team, y.team)
			if winner == x.team {
				next = append(next, x)
				losers = append(losers, y)
			} else {
				next = append(next, y)
				losers = append(losers, x)
			}
		}

		switch len(current) {
		case 2:
			// final
			next[0].crown()
			for _, l := range losers {
				l.eliminate(2)
			}
		case 4:
			b.thirdPlace(losers, play)
		default:
			// Earlier-round losers rank behind everyone still alive, in bracket order.
			for i, l := range losers {
				l.eliminate(len(current)/2 + 1 + i)
			}
		}
		current = next
	}
}

// thirdPlace settles places 3 and 4 between the semifinal losers.
func (b *Bracket) thirdPlace(losers []*entrant, play func(better, worse int) (winner, loser int)) {
	switch len(losers) {
	case 1:
		losers[0].eliminate(3)
	case 2:
		x, y := losers[0], losers[1]
		if y.seed < x.seed {
			x, y = y, x
		}
		winner, _ := play(x.team, y.team)
		if winner == x.team {
			x.eliminate(3)
			y.eliminate(4)
		} else {
			y.eliminate(3)
			x.eliminate(4)
		}
	}
}

// Placements maps roster index to final playoff placement.
func (b *Bracket) Placements() map[int]int {
	out := make(map[int]int, len(b.entrants))
	for _, e := range b.entrants {
		out[e.team] = e.placement
	}
	return out
}

// State returns the bracket state of the team at a roster index.
func (b *Bracket) State(team int) (SeedState, bool) {
	for _, e := range b.entrants {
		if e.team == team {
			return e.state, true
		}
	}
	return Seeded, false
}

// playoffs seeds the top teams from the standings order and records placements.
func (s *season) playoffs(src random.Source, results []league.SingleTeamResult, order []int) {
	if s.playoffTeams == 0 {
		return
	}
	bracket := NewBracket(order[:s.playoffTeams])
	bracket.Play(func(better, worse int) (int, int) {
		return s.playGame(src, better, worse)
	})
	for team, placement := range bracket.Placements() {
		results[team].PlayoffResult = placement
	}
}
