package models

import "time"

type SeriesStatus string

const (
	SeriesInProgress SeriesStatus = "in_progress"
	SeriesCompleted  SeriesStatus = "completed"
)

// Series is a best-of-N pairing between two players inside one round.
type Series struct {
	ID           int          `json:"id" db:"id"`
	TournamentID int          `json:"tournament_id" db:"tournament_id"`
	RoundID      int          `json:"round_id" db:"round_id"`
	Player1ID    int          `json:"player1_id" db:"player1_id"`
	Player2ID    int          `json:"player2_id" db:"player2_id"`
	BestOf       int          `json:"best_of" db:"best_of"`
	WinsRequired int          `json:"wins_required" db:"wins_required"`
	Player1Wins  int          `json:"player1_wins" db:"player1_wins"`
	Player2Wins  int          `json:"player2_wins" db:"player2_wins"`
	// GamesScheduled counts every game slot ever created for the series,
	// including slots still pending.
	GamesScheduled int          `json:"games_scheduled" db:"games_scheduled"`
	Status         SeriesStatus `json:"status" db:"status"`
	WinnerID       *int         `json:"winner_id,omitempty" db:"winner_id"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}

// WinsRequiredFor returns how many game wins decide a best-of-N series.
func WinsRequiredFor(bestOf int) int {
	return bestOf/2 + 1
}

type SeriesGameStatus string

const (
	SeriesGamePending   SeriesGameStatus = "pending"
	SeriesGameCompleted SeriesGameStatus = "completed"
)

// SeriesGame is one scheduled game slot inside a series. It is linked to
// a ladder Match once that game is reported.
type SeriesGame struct {
	ID           int              `json:"id" db:"id"`
	TournamentID int              `json:"tournament_id" db:"tournament_id"`
	RoundID      int              `json:"round_id" db:"round_id"`
	SeriesID     int              `json:"series_id" db:"series_id"`
	Player1ID    int              `json:"player1_id" db:"player1_id"`
	Player2ID    int              `json:"player2_id" db:"player2_id"`
	Status       SeriesGameStatus `json:"status" db:"status"`
	WinnerID     *int             `json:"winner_id,omitempty" db:"winner_id"`
	MatchID      *int             `json:"match_id,omitempty" db:"match_id"`
	PlayedAt     *time.Time       `json:"played_at,omitempty" db:"played_at"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}
