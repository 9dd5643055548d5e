package services

import (
	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
	"github.com/clmates/wesnoth-tournament-manager-sub001/rating"
)

// GameSnapshot captures both players' ratings around one applied game,
// in the shape stored on the match row.
type GameSnapshot struct {
	WinnerBefore int
	WinnerAfter  int
	LoserBefore  int
	LoserAfter   int
}

// applyGameResult mutates both rating states with the outcome of one
// game and returns the before/after snapshot. New ratings are computed
// from both players' pre-game values, so order does not matter.
func applyGameResult(winner, loser *models.RatingState) GameSnapshot {
	snap := GameSnapshot{
		WinnerBefore: winner.Rating,
		LoserBefore:  loser.Rating,
	}

	snap.WinnerAfter = rating.NewRating(winner.Rating, loser.Rating, rating.Win, winner.MatchesPlayed)
	snap.LoserAfter = rating.NewRating(loser.Rating, winner.Rating, rating.Loss, loser.MatchesPlayed)

	winner.Rating = snap.WinnerAfter
	winner.MatchesPlayed++
	winner.TotalWins++
	winner.Streak = rating.NextStreak(winner.Streak, true)
	winner.IsRated = rating.ShouldBeRated(winner.IsRated, winner.MatchesPlayed, winner.Rating)

	loser.Rating = snap.LoserAfter
	loser.MatchesPlayed++
	loser.TotalLosses++
	loser.Streak = rating.NextStreak(loser.Streak, false)
	loser.IsRated = rating.ShouldBeRated(loser.IsRated, loser.MatchesPlayed, loser.Rating)

	return snap
}

func ratingStateOf(u *models.User) models.RatingState {
	return models.RatingState{
		Rating:        u.Rating,
		IsRated:       u.IsRated,
		MatchesPlayed: u.MatchesPlayed,
		TotalWins:     u.TotalWins,
		TotalLosses:   u.TotalLosses,
		Streak:        u.Streak,
	}
}
