package brackets

import (
	"math/rand"
	"testing"
)

func seatsOf(ratings ...int) []Seat {
	seats := make([]Seat, len(ratings))
	for i, r := range ratings {
		seats[i] = Seat{PlayerID: i + 1, Rating: r}
	}
	return seats
}

func TestEliminationPairEven(t *testing.T) {
	gen := NewEliminationGenerator(rand.New(rand.NewSource(1)))
	pairings, err := gen.Pair(PairParams{Seats: seatsOf(1500, 1400, 1600, 1300)})
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}
	if len(pairings) != 2 {
		t.Fatalf("got %d pairings, want 2", len(pairings))
	}
	seen := map[int]bool{}
	for _, p := range pairings {
		if p.Bye {
			t.Fatalf("unexpected bye with an even field: %+v", p)
		}
		seen[p.Player1ID] = true
		seen[p.Player2ID] = true
	}
	if len(seen) != 4 {
		t.Errorf("players paired = %v, want all 4 exactly once", seen)
	}
}

func TestEliminationPairOddByeGoesToHighestRated(t *testing.T) {
	// Player 3 has the top rating and must take the bye regardless of
	// the shuffle.
	seats := []Seat{
		{PlayerID: 1, Rating: 1450},
		{PlayerID: 2, Rating: 1500},
		{PlayerID: 3, Rating: 1700},
		{PlayerID: 4, Rating: 1480},
		{PlayerID: 5, Rating: 1390},
	}
	for seed := int64(0); seed < 20; seed++ {
		gen := NewEliminationGenerator(rand.New(rand.NewSource(seed)))
		pairings, err := gen.Pair(PairParams{Seats: seats})
		if err != nil {
			t.Fatalf("Pair: %v", err)
		}
		if len(pairings) != 3 {
			t.Fatalf("seed %d: got %d pairings, want 2 matches + 1 bye", seed, len(pairings))
		}
		var byes int
		for _, p := range pairings {
			if p.Bye {
				byes++
				if p.Player1ID != 3 {
					t.Errorf("seed %d: bye went to player %d, want 3", seed, p.Player1ID)
				}
			}
		}
		if byes != 1 {
			t.Errorf("seed %d: %d byes, want 1", seed, byes)
		}
	}
}

func TestEliminationPairDeterministicUnderSeed(t *testing.T) {
	seats := seatsOf(1500, 1400, 1600, 1300, 1450, 1550)
	first, err := NewEliminationGenerator(rand.New(rand.NewSource(42))).Pair(PairParams{Seats: seats})
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}
	second, err := NewEliminationGenerator(rand.New(rand.NewSource(42))).Pair(PairParams{Seats: seats})
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("pairing %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestEliminationPairTooFew(t *testing.T) {
	gen := NewEliminationGenerator(rand.New(rand.NewSource(1)))
	if _, err := gen.Pair(PairParams{Seats: seatsOf(1400)}); err == nil {
		t.Error("expected error with a single participant")
	}
}

func TestSwissPairAvoidsRematch(t *testing.T) {
	// Four players all at 1-0 or 0-1; players 1 and 2 already met, so
	// the pairer must cross the groups differently... here everyone is
	// in one score bracket so the only constraint is no 1v2 repeat.
	seats := []Seat{
		{PlayerID: 1, Wins: 1, Rating: 1500},
		{PlayerID: 2, Wins: 1, Rating: 1490},
		{PlayerID: 3, Wins: 1, Rating: 1480},
		{PlayerID: 4, Wins: 1, Rating: 1470},
	}
	history := map[PairKey]bool{
		KeyFor(1, 2): true,
		KeyFor(3, 4): true,
	}
	for seed := int64(0); seed < 20; seed++ {
		gen := NewSwissGenerator(rand.New(rand.NewSource(seed)))
		pairings, err := gen.Pair(PairParams{Seats: seats, History: history})
		if err != nil {
			t.Fatalf("Pair: %v", err)
		}
		if len(pairings) != 2 {
			t.Fatalf("seed %d: got %d pairings, want 2", seed, len(pairings))
		}
		for _, p := range pairings {
			if history[KeyFor(p.Player1ID, p.Player2ID)] {
				t.Errorf("seed %d: repeated pairing %dv%d", seed, p.Player1ID, p.Player2ID)
			}
		}
	}
}

func TestSwissPairAllowsUnavoidableRematch(t *testing.T) {
	seats := []Seat{
		{PlayerID: 1, Wins: 2, Rating: 1500},
		{PlayerID: 2, Wins: 2, Rating: 1490},
	}
	history := map[PairKey]bool{KeyFor(1, 2): true}
	gen := NewSwissGenerator(rand.New(rand.NewSource(7)))
	pairings, err := gen.Pair(PairParams{Seats: seats, History: history})
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}
	if len(pairings) != 1 || pairings[0].Bye {
		t.Fatalf("got %+v, want the single unavoidable rematch", pairings)
	}
}

func TestSwissPairOddCountGivesByeToBestRemaining(t *testing.T) {
	seats := []Seat{
		{PlayerID: 1, Wins: 2, Rating: 1500},
		{PlayerID: 2, Wins: 1, Losses: 1, Rating: 1490},
		{PlayerID: 3, Wins: 1, Losses: 1, Rating: 1480},
		{PlayerID: 4, Wins: 0, Losses: 2, Rating: 1470},
		{PlayerID: 5, Wins: 0, Losses: 2, Rating: 1460},
	}
	gen := NewSwissGenerator(rand.New(rand.NewSource(3)))
	pairings, err := gen.Pair(PairParams{Seats: seats})
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}
	var bye *Pairing
	paired := map[int]int{}
	for i := range pairings {
		p := pairings[i]
		if p.Bye {
			bye = &pairings[i]
			continue
		}
		paired[p.Player1ID]++
		paired[p.Player2ID]++
	}
	if bye == nil {
		t.Fatal("expected one bye with 5 players")
	}
	if bye.Player1ID != 1 {
		t.Errorf("bye went to player %d, want the 2-0 leader", bye.Player1ID)
	}
	for id, n := range paired {
		if n != 1 {
			t.Errorf("player %d paired %d times", id, n)
		}
	}
}
