package brackets

import (
	"errors"
	"math/rand"
	"sort"
)

// SwissGenerator pairs players within score groups (wins minus losses),
// trying to avoid rematches from earlier rounds. The best remaining
// unpaired player receives the bye.
type SwissGenerator struct {
	rng *rand.Rand
}

func NewSwissGenerator(rng *rand.Rand) *SwissGenerator {
	return &SwissGenerator{rng: rng}
}

func (g *SwissGenerator) Name() string { return "Swiss" }

func (g *SwissGenerator) Pair(params PairParams) ([]Pairing, error) {
	seats := params.Seats
	if len(seats) < 2 {
		return nil, errors.New("not enough participants to pair a swiss round (minimum 2)")
	}

	standings := make([]Seat, len(seats))
	copy(standings, seats)
	sort.Slice(standings, func(i, j int) bool {
		si, sj := standings[i], standings[j]
		if score(si) != score(sj) {
			return score(si) > score(sj)
		}
		if si.Points != sj.Points {
			return si.Points > sj.Points
		}
		if si.Rating != sj.Rating {
			return si.Rating > sj.Rating
		}
		return si.PlayerID < sj.PlayerID
	})

	paired := make(map[int]bool, len(standings))
	pairings := make([]Pairing, 0, len(standings)/2+1)

	// Walk the standings grouped by score; inside a group, shuffle to
	// vary opponents between tournaments with identical tables.
	for start := 0; start < len(standings); {
		end := start
		for end < len(standings) && score(standings[end]) == score(standings[start]) {
			end++
		}
		group := make([]Seat, end-start)
		copy(group, standings[start:end])
		g.rng.Shuffle(len(group), func(i, j int) {
			group[i], group[j] = group[j], group[i]
		})

		for i := 0; i < len(group); i++ {
			if paired[group[i].PlayerID] {
				continue
			}
			opponent := pickOpponent(group, i, paired, params.History)
			if opponent == nil {
				continue
			}
			pairings = append(pairings, Paired(group[i].PlayerID, opponent.PlayerID))
			paired[group[i].PlayerID] = true
			paired[opponent.PlayerID] = true
		}
		start = end
	}

	// Floaters: players whose score group had an odd size pair down
	// against the next unpaired player in standings order.
	var unpaired []Seat
	for _, s := range standings {
		if !paired[s.PlayerID] {
			unpaired = append(unpaired, s)
		}
	}
	if len(unpaired)%2 == 1 {
		// Best remaining player takes the bye.
		pairings = append(pairings, ByeFor(unpaired[0].PlayerID))
		unpaired = unpaired[1:]
	}
	for i := 0; i+1 < len(unpaired); i += 2 {
		pairings = append(pairings, Paired(unpaired[i].PlayerID, unpaired[i+1].PlayerID))
	}

	return pairings, nil
}

// pickOpponent prefers the first unpaired group member that has not met
// the player before; when every option is a rematch it takes the first
// unpaired one anyway.
func pickOpponent(group []Seat, i int, paired map[int]bool, history map[PairKey]bool) *Seat {
	var fallback *Seat
	for j := i + 1; j < len(group); j++ {
		if paired[group[j].PlayerID] {
			continue
		}
		if !history[KeyFor(group[i].PlayerID, group[j].PlayerID)] {
			return &group[j]
		}
		if fallback == nil {
			fallback = &group[j]
		}
	}
	return fallback
}

func score(s Seat) int {
	return s.Wins - s.Losses
}
