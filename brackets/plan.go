package brackets

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
)

// RoundSpec describes one round of a tournament before any pairing
// exists: its number, phase, classification label and series format.
type RoundSpec struct {
	Number int
	Phase  models.RoundPhase
	Label  string
	BestOf int
}

type PlanParams struct {
	Format        models.TournamentFormat
	Participants  int
	GeneralRounds int // swiss rounds, or league iterations (1|2)
	FinalRounds   int // elimination-phase rounds
	GeneralBestOf int
	FinalBestOf   int
}

var (
	ErrTooFewParticipants = errors.New("not enough participants for this format")
	ErrBadRoundCount      = errors.New("invalid round count for this format")
)

// EliminationRounds returns how many knockout rounds N participants
// need: ceil(log2(N)).
func EliminationRounds(n int) int {
	if n < 2 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}

// PlanRounds computes the full ordered round list for a tournament.
func PlanRounds(p PlanParams) ([]RoundSpec, error) {
	if p.Participants < 2 {
		return nil, ErrTooFewParticipants
	}

	switch p.Format {
	case models.FormatElimination:
		return planElimination(p)
	case models.FormatLeague:
		return planLeague(p)
	case models.FormatSwiss:
		return planSwiss(p)
	case models.FormatSwissElimination:
		return planSwissElimination(p)
	default:
		return nil, fmt.Errorf("unsupported tournament format %q", p.Format)
	}
}

func planElimination(p PlanParams) ([]RoundSpec, error) {
	total := EliminationRounds(p.Participants)
	specs := make([]RoundSpec, 0, total)
	for i := 0; i < total; i++ {
		specs = append(specs, RoundSpec{
			Number: i + 1,
			Phase:  models.RoundPhaseFinal,
			Label:  EliminationLabel(total-1-i, i+1),
			BestOf: p.FinalBestOf,
		})
	}
	return specs, nil
}

func planLeague(p PlanParams) ([]RoundSpec, error) {
	iterations := p.GeneralRounds
	if iterations != 1 && iterations != 2 {
		return nil, fmt.Errorf("%w: league iterations must be 1 or 2, got %d", ErrBadRoundCount, iterations)
	}
	perIteration := p.Participants - 1
	total := perIteration * iterations
	specs := make([]RoundSpec, 0, total)
	for i := 0; i < total; i++ {
		leg := "Ida"
		if iterations == 2 && i >= perIteration {
			leg = "Vuelta"
		}
		specs = append(specs, RoundSpec{
			Number: i + 1,
			Phase:  models.RoundPhaseGeneral,
			Label:  fmt.Sprintf("League Round %d (%s)", i+1, leg),
			BestOf: p.GeneralBestOf,
		})
	}
	return specs, nil
}

func planSwiss(p PlanParams) ([]RoundSpec, error) {
	if p.GeneralRounds < 1 || p.GeneralRounds > 10 {
		return nil, fmt.Errorf("%w: swiss rounds must be between 1 and 10, got %d", ErrBadRoundCount, p.GeneralRounds)
	}
	specs := make([]RoundSpec, 0, p.GeneralRounds)
	for i := 0; i < p.GeneralRounds; i++ {
		specs = append(specs, RoundSpec{
			Number: i + 1,
			Phase:  models.RoundPhaseGeneral,
			Label:  fmt.Sprintf("Swiss Round %d", i+1),
			BestOf: p.GeneralBestOf,
		})
	}
	return specs, nil
}

func planSwissElimination(p PlanParams) ([]RoundSpec, error) {
	if p.FinalRounds < 1 {
		return nil, fmt.Errorf("%w: swiss_elimination needs at least one elimination round", ErrBadRoundCount)
	}
	if p.FinalRounds > EliminationRounds(p.Participants) {
		return nil, fmt.Errorf("%w: %d elimination rounds exceed the maximum %d for %d participants",
			ErrBadRoundCount, p.FinalRounds, EliminationRounds(p.Participants), p.Participants)
	}

	specs, err := planSwiss(p)
	if err != nil {
		return nil, err
	}
	cutoff := EliminationCutoff(p.FinalRounds)
	for i := 0; i < p.FinalRounds; i++ {
		remaining := cutoff >> i
		specs = append(specs, RoundSpec{
			Number: len(specs) + 1,
			Phase:  models.RoundPhaseFinal,
			Label:  fmt.Sprintf("%s (%d→%d)", EliminationLabel(p.FinalRounds-1-i, i+1), remaining, remaining/2),
			BestOf: p.FinalBestOf,
		})
	}
	return specs, nil
}

// EliminationCutoff is how many players advance from the swiss phase
// into an elimination phase of the given depth: 2^finalRounds.
func EliminationCutoff(finalRounds int) int {
	return 1 << finalRounds
}

// EliminationLabel names a knockout round by its distance from the
// final: Final, Semifinals, Quarterfinals, Round of 16, else "Round k".
func EliminationLabel(distanceFromFinal, roundNumber int) string {
	switch distanceFromFinal {
	case 0:
		return "Final"
	case 1:
		return "Semifinals"
	case 2:
		return "Quarterfinals"
	case 3:
		return "Round of 16"
	default:
		return fmt.Sprintf("Round %d", roundNumber)
	}
}

// SelectForElimination returns the ids of the top `cutoff` seats by
// tournament points, wins, then rating, which advance from the swiss
// phase; everyone else is cut.
func SelectForElimination(seats []Seat, cutoff int) (advancing, eliminated []int) {
	ranked := make([]Seat, len(seats))
	copy(ranked, seats)
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := ranked[i], ranked[j]
		if si.Points != sj.Points {
			return si.Points > sj.Points
		}
		if si.Wins != sj.Wins {
			return si.Wins > sj.Wins
		}
		if si.Rating != sj.Rating {
			return si.Rating > sj.Rating
		}
		return si.PlayerID < sj.PlayerID
	})

	for i, s := range ranked {
		if i < cutoff {
			advancing = append(advancing, s.PlayerID)
		} else {
			eliminated = append(eliminated, s.PlayerID)
		}
	}
	return advancing, eliminated
}
