package services

import (
	"context"
	"log/slog"

	"github.com/clmates/wesnoth-tournament-manager-sub001/repositories"
)

// SeriesProgressNotifier advances tournaments from series results: when a
// series is decided it runs the completion check on its round, which in
// turn activates the next round or finishes the tournament. Without it
// rounds would only advance when an admin polls check-completion.
type SeriesProgressNotifier struct {
	rounds    RoundService
	roundRepo repositories.RoundRepository
	logger    *slog.Logger
}

func NewSeriesProgressNotifier(rounds RoundService, roundRepo repositories.RoundRepository, logger *slog.Logger) *SeriesProgressNotifier {
	return &SeriesProgressNotifier{
		rounds:    rounds,
		roundRepo: roundRepo,
		logger:    logger,
	}
}

var _ EventSubscriber = (*SeriesProgressNotifier)(nil)

func (n *SeriesProgressNotifier) Notify(ctx context.Context, event Event) {
	if event.Type != EventSeriesCompleted || event.Series == nil {
		return
	}

	round, err := n.roundRepo.GetByID(ctx, event.Series.RoundID)
	if err != nil {
		n.logger.Error("failed to load round for completed series",
			slog.Int("series_id", event.Series.ID),
			slog.Int("round_id", event.Series.RoundID),
			slog.Any("error", err))
		return
	}
	if _, err := n.rounds.CheckRoundCompletion(ctx, round.TournamentID, round.Number); err != nil {
		n.logger.Error("round completion check after series result failed",
			slog.Int("tournament_id", round.TournamentID),
			slog.Int("round", round.Number),
			slog.Any("error", err))
	}
}
