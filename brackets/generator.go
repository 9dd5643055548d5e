package brackets

import (
	"math/rand"
	"sort"
)

// Seat is one eligible participant entering a round, with the standing
// fields pairing policies need.
type Seat struct {
	PlayerID int
	Rating   int
	Points   int
	Wins     int
	Losses   int
}

// Pairing is one slot of a round: either two seated players or a bye.
type Pairing struct {
	Player1ID int
	Player2ID int
	Bye       bool
}

func Paired(p1, p2 int) Pairing {
	return Pairing{Player1ID: p1, Player2ID: p2}
}

// ByeFor marks a player advancing automatically with no opponent.
func ByeFor(p int) Pairing {
	return Pairing{Player1ID: p, Bye: true}
}

type PairParams struct {
	Seats []Seat
	// History holds unordered player-id pairs that already met in this
	// tournament; swiss pairing avoids repeating them when possible.
	History map[PairKey]bool
}

type PairKey struct {
	Low, High int
}

func KeyFor(a, b int) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Low: a, High: b}
}

// Generator produces the pairings of one round. Implementations take an
// injected *rand.Rand so bracket generation is reproducible under a
// fixed seed.
type Generator interface {
	Pair(params PairParams) ([]Pairing, error)
	Name() string
}

// byeAndShuffle applies the shared pairing policy: with an odd seat
// count the highest-rated seat advances on a bye, everyone else is
// paired in randomized order.
func byeAndShuffle(rng *rand.Rand, seats []Seat) (bye *Seat, pool []Seat) {
	pool = make([]Seat, len(seats))
	copy(pool, seats)
	sortSeatsByRating(pool)

	if len(pool)%2 == 1 {
		b := pool[0]
		bye = &b
		pool = pool[1:]
	}

	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return bye, pool
}

// sortSeatsByRating orders by rating descending with player id as a
// tie-break, so the bye candidate is deterministic.
func sortSeatsByRating(seats []Seat) {
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].Rating != seats[j].Rating {
			return seats[i].Rating > seats[j].Rating
		}
		return seats[i].PlayerID < seats[j].PlayerID
	})
}
