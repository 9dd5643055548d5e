package models

import "time"

const (
	// BaselineRating is the rating every player starts from and the
	// baseline the cascade recalculation replays history against.
	BaselineRating = 1400

	// RatedMatchesThreshold is the minimum number of played matches
	// before an unrated player can become rated.
	RatedMatchesThreshold = 10
)

const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

type User struct {
	ID           int       `json:"id" db:"id"`
	Nickname     string    `json:"nickname" db:"nickname"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	Country      *string   `json:"country,omitempty" db:"country"`
	AvatarKey    *string   `json:"-" db:"avatar_key"`

	// Rating record. Mutated only by the rating apply step and the
	// cascade recalculation, never directly by request handlers.
	Rating        int    `json:"elo_rating" db:"elo_rating"`
	IsRated       bool   `json:"is_rated" db:"is_rated"`
	MatchesPlayed int    `json:"matches_played" db:"matches_played"`
	TotalWins     int    `json:"total_wins" db:"total_wins"`
	TotalLosses   int    `json:"total_losses" db:"total_losses"`
	Streak        string `json:"streak" db:"streak"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RatingState is the per-player working set mutated during a cascade
// replay and flushed back to users in one batch.
type RatingState struct {
	Rating        int
	IsRated       bool
	MatchesPlayed int
	TotalWins     int
	TotalLosses   int
	Streak        string
}

func NewRatingState() RatingState {
	return RatingState{Rating: BaselineRating, Streak: "-"}
}
