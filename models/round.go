package models

import "time"

type RoundStatus string

const (
	RoundPending    RoundStatus = "pending"
	RoundInProgress RoundStatus = "in_progress"
	RoundCompleted  RoundStatus = "completed"
)

type RoundPhase string

const (
	// RoundPhaseGeneral covers swiss rounds, league rounds and the
	// regular part of an elimination bracket.
	RoundPhaseGeneral RoundPhase = "general"
	// RoundPhaseFinal marks elimination-phase rounds (quarterfinals and
	// later, or the whole bracket of a pure elimination tournament).
	RoundPhaseFinal RoundPhase = "final"
)

type Round struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Number       int         `json:"round_number" db:"round_number"`
	Phase        RoundPhase  `json:"phase" db:"phase"`
	// Label is the human classification of the round, e.g. "Semifinals"
	// or "Swiss Round 3".
	Label     string      `json:"label" db:"label"`
	BestOf    int         `json:"best_of" db:"best_of"`
	Status    RoundStatus `json:"status" db:"status"`
	StartedAt *time.Time  `json:"started_at,omitempty" db:"started_at"`
	EndedAt   *time.Time  `json:"ended_at,omitempty" db:"ended_at"`
}
