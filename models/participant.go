package models

import "time"

type Participant struct {
	ID           int  `json:"id" db:"id"`
	TournamentID int  `json:"tournament_id" db:"tournament_id"`
	UserID       int  `json:"user_id" db:"user_id"`
	Accepted     bool `json:"accepted" db:"accepted"`
	// Eliminated marks players cut after the swiss phase of a
	// swiss_elimination tournament, or knocked out of a bracket.
	Eliminated bool `json:"eliminated" db:"eliminated"`

	Points int `json:"tournament_points" db:"tournament_points"`
	Wins   int `json:"tournament_wins" db:"tournament_wins"`
	Losses int `json:"tournament_losses" db:"tournament_losses"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
}
