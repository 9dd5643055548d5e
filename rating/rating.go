// Package rating implements the FIDE-style Elo update used on the
// ranked ladder. All functions are pure; callers own persistence.
package rating

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Outcome int

const (
	Loss Outcome = iota
	Win
	Draw
)

func (o Outcome) score() float64 {
	switch o {
	case Win:
		return 1
	case Draw:
		return 0.5
	default:
		return 0
	}
}

// ExpectedScore returns the probability of the player beating the
// opponent: 1 / (1 + 10^((opp-self)/400)).
func ExpectedScore(selfRating, opponentRating int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponentRating-selfRating)/400))
}

// KFactor follows the FIDE schedule: 40 for the first 30 games, then 24
// below 2100. Players at 2100+ use the lower bands regardless of games
// played: 16 up to 2399, 8 from 2400.
func KFactor(selfRating, matchesPlayed int) int {
	switch {
	case selfRating >= 2400:
		return 8
	case selfRating >= 2100:
		return 16
	case matchesPlayed >= 30:
		return 24
	default:
		return 40
	}
}

// NewRating computes the post-game rating, rounded to the nearest
// integer. matchesPlayed is the player's count before this game.
func NewRating(selfRating, opponentRating int, outcome Outcome, matchesPlayed int) int {
	k := float64(KFactor(selfRating, matchesPlayed))
	expected := ExpectedScore(selfRating, opponentRating)
	return int(math.Round(float64(selfRating) + k*(outcome.score()-expected)))
}

// ShouldBeRated applies the qualification hysteresis: a rated player
// becomes unrated as soon as the rating drops below 1400; an unrated
// player becomes rated once they have 10+ games and a rating of 1400 or
// more. matchesPlayed must already include the game being applied.
func ShouldBeRated(currentlyRated bool, matchesPlayed, newRating int) bool {
	if currentlyRated {
		return newRating >= 1400
	}
	return matchesPlayed >= 10 && newRating >= 1400
}

// NextStreak extends a run of same-sign results ("+3", "-2") or resets
// to the new sign with count 1 when the result flips. "-" means no
// games yet.
func NextStreak(current string, won bool) string {
	count, winning := parseStreak(current)
	if won {
		if winning && count > 0 {
			return fmt.Sprintf("+%d", count+1)
		}
		return "+1"
	}
	if !winning && count > 0 {
		return fmt.Sprintf("-%d", count+1)
	}
	return "-1"
}

func parseStreak(s string) (count int, winning bool) {
	if s == "" || s == "-" {
		return 0, false
	}
	if strings.HasPrefix(s, "+") {
		n, err := strconv.Atoi(s[1:])
		if err != nil {
			return 0, false
		}
		return n, true
	}
	if strings.HasPrefix(s, "-") && len(s) > 1 {
		n, err := strconv.Atoi(s[1:])
		if err != nil {
			return 0, false
		}
		return n, false
	}
	return 0, false
}
