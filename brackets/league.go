package brackets

import (
	"errors"
	"math/rand"
)

// LeagueGenerator pairs every participant each round with fresh random
// pairings. Round scheduling (how many league rounds exist) is decided
// by the round plan, not here.
type LeagueGenerator struct {
	rng *rand.Rand
}

func NewLeagueGenerator(rng *rand.Rand) *LeagueGenerator {
	return &LeagueGenerator{rng: rng}
}

func (g *LeagueGenerator) Name() string { return "League" }

func (g *LeagueGenerator) Pair(params PairParams) ([]Pairing, error) {
	seats := params.Seats
	if len(seats) < 2 {
		return nil, errors.New("not enough participants to pair a league round (minimum 2)")
	}

	bye, pool := byeAndShuffle(g.rng, seats)

	pairings := make([]Pairing, 0, len(pool)/2+1)
	for i := 0; i+1 < len(pool); i += 2 {
		pairings = append(pairings, Paired(pool[i].PlayerID, pool[i+1].PlayerID))
	}
	if bye != nil {
		pairings = append(pairings, ByeFor(bye.PlayerID))
	}
	return pairings, nil
}
