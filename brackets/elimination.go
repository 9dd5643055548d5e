package brackets

import (
	"errors"
	"math/rand"
)

// EliminationGenerator pairs the remaining (non-eliminated) players of
// a knockout round. With an odd count the highest-rated player advances
// on a bye; the rest are paired in randomized order.
type EliminationGenerator struct {
	rng *rand.Rand
}

func NewEliminationGenerator(rng *rand.Rand) *EliminationGenerator {
	return &EliminationGenerator{rng: rng}
}

func (g *EliminationGenerator) Name() string { return "Elimination" }

func (g *EliminationGenerator) Pair(params PairParams) ([]Pairing, error) {
	seats := params.Seats
	if len(seats) < 2 {
		return nil, errors.New("not enough participants to pair an elimination round (minimum 2)")
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
