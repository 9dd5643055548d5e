package models

import "time"

type TournamentFormat string

const (
	FormatElimination      TournamentFormat = "elimination"
	FormatLeague           TournamentFormat = "league"
	FormatSwiss            TournamentFormat = "swiss"
	FormatSwissElimination TournamentFormat = "swiss_elimination"
)

// TournamentStatus progresses registration → prepared → in_progress → finished.
type TournamentStatus string

const (
	TournamentRegistration TournamentStatus = "registration"
	TournamentPrepared     TournamentStatus = "prepared"
	TournamentInProgress   TournamentStatus = "in_progress"
	TournamentFinished     TournamentStatus = "finished"
)

type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Description *string          `json:"description,omitempty" db:"description"`
	CreatorID   int              `json:"creator_id" db:"creator_id"`
	Format      TournamentFormat `json:"format" db:"format"`
	Status      TournamentStatus `json:"status" db:"status"`

	// GeneralRounds: swiss rounds for swiss/swiss_elimination, the
	// iteration count (1 or 2) for league, unused for pure elimination.
	GeneralRounds int `json:"general_rounds" db:"general_rounds"`
	// FinalRounds: elimination-phase rounds (swiss_elimination and
	// elimination formats).
	FinalRounds int `json:"final_rounds" db:"final_rounds"`

	GeneralBestOf int `json:"general_best_of" db:"general_best_of"`
	FinalBestOf   int `json:"final_best_of" db:"final_best_of"`

	TotalRounds  int `json:"total_rounds" db:"total_rounds"`
	CurrentRound int `json:"current_round" db:"current_round"`

	WinnerID   *int       `json:"winner_id,omitempty" db:"winner_id"`
	PreparedAt *time.Time `json:"prepared_at,omitempty" db:"prepared_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`

	Rounds       []Round       `json:"rounds,omitempty" db:"-"`
	Participants []Participant `json:"participants,omitempty" db:"-"`
}
