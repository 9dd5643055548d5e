package models

import "time"

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusConfirmed MatchStatus = "confirmed"
	MatchStatusDisputed  MatchStatus = "disputed"
	MatchStatusCancelled MatchStatus = "cancelled"
)

// Match is a single reported game on the ranked ladder. Ratings are
// applied optimistically when the match is reported; confirmed and
// cancelled are the terminal states.
type Match struct {
	ID       int    `json:"id" db:"id"`
	WinnerID int    `json:"winner_id" db:"winner_id"`
	LoserID  int    `json:"loser_id" db:"loser_id"`
	Map      string `json:"map" db:"map"`

	WinnerFaction string `json:"winner_faction" db:"winner_faction"`
	LoserFaction  string `json:"loser_faction" db:"loser_faction"`

	Status MatchStatus `json:"status" db:"status"`

	WinnerRatingBefore int `json:"winner_elo_before" db:"winner_elo_before"`
	WinnerRatingAfter  int `json:"winner_elo_after" db:"winner_elo_after"`
	LoserRatingBefore  int `json:"loser_elo_before" db:"loser_elo_before"`
	LoserRatingAfter   int `json:"loser_elo_after" db:"loser_elo_after"`

	WinnerComments *string `json:"winner_comments,omitempty" db:"winner_comments"`
	LoserComments  *string `json:"loser_comments,omitempty" db:"loser_comments"`
	ReplayPath     *string `json:"replay_path,omitempty" db:"replay_path"`

	TournamentID *int `json:"tournament_id,omitempty" db:"tournament_id"`
	SeriesGameID *int `json:"series_game_id,omitempty" db:"series_game_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
