package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/clmates/wesnoth-tournament-manager-sub001/brackets"
	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
	"github.com/clmates/wesnoth-tournament-manager-sub001/repositories"
)

type RoundService interface {
	// ActivateRound pairs the active participants of a pending round and
	// creates its series with their initial game slots. Activating a
	// round that already started is a logged no-op.
	ActivateRound(ctx context.Context, tournamentID, number int) (*models.Round, error)

	// CheckRoundCompletion first self-heals open series that are missing
	// their next game slot, then completes the round if every series has
	// a winner and no game is left pending. Completing the last round
	// finishes the tournament and crowns the champion.
	CheckRoundCompletion(ctx context.Context, tournamentID, number int) (bool, error)
}

type roundService struct {
	tx              TxRunner
	roundRepo       repositories.RoundRepository
	seriesRepo      repositories.SeriesRepository
	participantRepo repositories.ParticipantRepository
	tournamentRepo  repositories.TournamentRepository
	series          SeriesService
	bus             *EventBus
	logger          *slog.Logger
	rng             *rand.Rand
}

func NewRoundService(
	tx TxRunner,
	roundRepo repositories.RoundRepository,
	seriesRepo repositories.SeriesRepository,
	participantRepo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	series SeriesService,
	bus *EventBus,
	logger *slog.Logger,
	rng *rand.Rand,
) RoundService {
	return &roundService{
		tx:              tx,
		roundRepo:       roundRepo,
		seriesRepo:      seriesRepo,
		participantRepo: participantRepo,
		tournamentRepo:  tournamentRepo,
		series:          series,
		bus:             bus,
		logger:          logger,
		rng:             rng,
	}
}

func (s *roundService) ActivateRound(ctx context.Context, tournamentID, number int) (*models.Round, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, translateTournamentErr(err)
	}
	if tournament.Status != models.TournamentPrepared && tournament.Status != models.TournamentInProgress {
		return nil, ErrTournamentNotPrepared
	}

	round, err := s.roundRepo.GetByNumber(ctx, tournamentID, number)
	if err != nil {
		return nil, translateRoundErr(err)
	}
	if round.Status != models.RoundPending {
		s.logger.Warn("round already activated, skipping",
			slog.Int("tournament_id", tournamentID),
			slog.Int("round", number),
			slog.String("status", string(round.Status)))
		return round, nil
	}

	participants, err := s.participantRepo.ListAccepted(ctx, tournamentID, true)
	if err != nil {
		return nil, err
	}
	seats := seatsFrom(participants)

	// Entering the knockout phase of a swiss_elimination tournament cuts
	// the field down to the bracket size first.
	var toEliminate []int
	if tournament.Format == models.FormatSwissElimination && round.Phase == models.RoundPhaseFinal && number == tournament.GeneralRounds+1 {
		cutoff := brackets.EliminationCutoff(tournament.FinalRounds)
		advancing, eliminated := brackets.SelectForElimination(seats, cutoff)
		toEliminate = eliminated
		seats = filterSeats(seats, advancing)
	}

	params := brackets.PairParams{Seats: seats}
	if tournament.Format == models.FormatSwiss || tournament.Format == models.FormatSwissElimination {
		history, err := s.pairHistory(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
		params.History = history
	}

	pairings, err := s.generatorFor(tournament.Format, round.Phase).Pair(params)
	if err != nil {
		if errors.Is(err, brackets.ErrTooFewParticipants) {
			return nil, ErrNotEnoughParticipants
		}
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.participantRepo.MarkEliminated(ctx, exec, tournamentID, toEliminate); err != nil {
			return err
		}
		for _, pairing := range pairings {
			if pairing.Bye {
				if err := s.participantRepo.AddByePoints(ctx, exec, tournamentID, pairing.Player1ID, SeriesWinPoints); err != nil {
					return err
				}
				continue
			}
			if err := s.createSeriesWithGames(ctx, exec, tournament.ID, round, pairing); err != nil {
				return err
			}
		}
		if err := s.roundRepo.MarkStarted(ctx, exec, round.ID); err != nil {
			return translateRoundErr(err)
		}
		return translateTournamentErr(s.tournamentRepo.SetCurrentRound(ctx, exec, tournamentID, number))
	})
	if err != nil {
		return nil, err
	}

	round.Status = models.RoundInProgress
	s.bus.Publish(ctx, Event{Type: EventRoundStarted, Round: round, TournamentID: tournamentID})
	return round, nil
}

// createSeriesWithGames pre-creates as many game slots as one side
// needs to win, so a sweep finishes without ever waiting on scheduling.
func (s *roundService) createSeriesWithGames(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, round *models.Round, pairing brackets.Pairing) error {
	winsRequired := models.WinsRequiredFor(round.BestOf)
	series := &models.Series{
		TournamentID:   tournamentID,
		RoundID:        round.ID,
		Player1ID:      pairing.Player1ID,
		Player2ID:      pairing.Player2ID,
		BestOf:         round.BestOf,
		WinsRequired:   winsRequired,
		GamesScheduled: winsRequired,
		Status:         models.SeriesInProgress,
	}
	if err := s.seriesRepo.Create(ctx, exec, series); err != nil {
		return err
	}
	for i := 0; i < winsRequired; i++ {
		game := &models.SeriesGame{
			TournamentID: tournamentID,
			RoundID:      round.ID,
			SeriesID:     series.ID,
			Player1ID:    series.Player1ID,
			Player2ID:    series.Player2ID,
			Status:       models.SeriesGamePending,
		}
		if err := s.seriesRepo.CreateGame(ctx, exec, game); err != nil {
			return err
		}
	}
	return nil
}

func (s *roundService) CheckRoundCompletion(ctx context.Context, tournamentID, number int) (bool, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return false, translateTournamentErr(err)
	}
	round, err := s.roundRepo.GetByNumber(ctx, tournamentID, number)
	if err != nil {
		return false, translateRoundErr(err)
	}
	if round.Status == models.RoundCompleted {
		return true, nil
	}
	if round.Status != models.RoundInProgress {
		return false, nil
	}

	seriesList, err := s.seriesRepo.ListByRound(ctx, round.ID)
	if err != nil {
		return false, err
	}

	// Self-heal before judging completion: an open series may be missing
	// its next game slot after a crash or race.
	healed := 0
	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, series := range seriesList {
			if series.Status != models.SeriesInProgress {
				continue
			}
			created, err := s.series.EnsureNextGame(ctx, exec, series.ID)
			if err != nil {
				return err
			}
			if created {
				healed++
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if healed > 0 {
		s.logger.Warn("created missing series games during completion check",
			slog.Int("round_id", round.ID), slog.Int("created", healed))
		return false, nil
	}

	for _, series := range seriesList {
		if series.Status != models.SeriesCompleted || series.WinnerID == nil {
			return false, nil
		}
	}
	pending, err := s.seriesRepo.CountPendingGamesByRound(ctx, round.ID)
	if err != nil {
		return false, err
	}
	if pending > 0 {
		return false, nil
	}

	knockout := round.Phase == models.RoundPhaseFinal || tournament.Format == models.FormatElimination
	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if knockout {
			losers := make([]int, 0, len(seriesList))
			for _, series := range seriesList {
				loserID, err := opponentOf(&series, *series.WinnerID)
				if err != nil {
					return err
				}
				losers = append(losers, loserID)
			}
			if err := s.participantRepo.MarkEliminated(ctx, exec, tournamentID, losers); err != nil {
				return err
			}
		}
		return translateRoundErr(s.roundRepo.MarkCompleted(ctx, exec, round.ID))
	})
	if err != nil {
		return false, err
	}

	round.Status = models.RoundCompleted
	s.bus.Publish(ctx, Event{Type: EventRoundCompleted, Round: round, TournamentID: tournamentID})

	if number >= tournament.TotalRounds {
		if err := s.finishTournament(ctx, tournament); err != nil {
			return true, err
		}
		return true, nil
	}
	// The next round starts as soon as this one closes.
	if _, err := s.ActivateRound(ctx, tournamentID, number+1); err != nil {
		return true, err
	}
	return true, nil
}

func (s *roundService) finishTournament(ctx context.Context, tournament *models.Tournament) error {
	// Standings order decides the champion: points, then series wins,
	// then current rating.
	ranked, err := s.participantRepo.ListAccepted(ctx, tournament.ID, false)
	if err != nil {
		return err
	}
	if len(ranked) == 0 {
		return fmt.Errorf("tournament %d has no participants to rank", tournament.ID)
	}
	championID := ranked[0].UserID

	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		return translateTournamentErr(s.tournamentRepo.Finish(ctx, exec, tournament.ID, championID))
	})
	if err != nil {
		return err
	}

	s.logger.Info("tournament finished",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("champion_id", championID))
	s.bus.Publish(ctx, Event{
		Type:         EventTournamentFinished,
		TournamentID: tournament.ID,
		WinnerID:     championID,
	})
	return nil
}

func (s *roundService) generatorFor(format models.TournamentFormat, phase models.RoundPhase) brackets.Generator {
	if phase == models.RoundPhaseFinal || format == models.FormatElimination {
		return brackets.NewEliminationGenerator(s.rng)
	}
	if format == models.FormatLeague {
		return brackets.NewLeagueGenerator(s.rng)
	}
	return brackets.NewSwissGenerator(s.rng)
}

func (s *roundService) pairHistory(ctx context.Context, tournamentID int) (map[brackets.PairKey]bool, error) {
	previous, err := s.seriesRepo.ListPairHistory(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	history := make(map[brackets.PairKey]bool, len(previous))
	for _, series := range previous {
		history[brackets.KeyFor(series.Player1ID, series.Player2ID)] = true
	}
	return history, nil
}

func seatsFrom(participants []models.Participant) []brackets.Seat {
	seats := make([]brackets.Seat, 0, len(participants))
	for _, p := range participants {
		seat := brackets.Seat{
			PlayerID: p.UserID,
			Points:   p.Points,
			Wins:     p.Wins,
			Losses:   p.Losses,
		}
		if p.User != nil {
			seat.Rating = p.User.Rating
		}
		seats = append(seats, seat)
	}
	return seats
}

func filterSeats(seats []brackets.Seat, keep []int) []brackets.Seat {
	keepSet := make(map[int]bool, len(keep))
	for _, id := range keep {
		keepSet[id] = true
	}
	filtered := seats[:0]
	for _, seat := range seats {
		if keepSet[seat.PlayerID] {
			filtered = append(filtered, seat)
		}
	}
	return filtered
}

func translateRoundErr(err error) error {
	if errors.Is(err, repositories.ErrRoundNotFound) {
		return ErrRoundNotFound
	}
	return err
}

func translateTournamentErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTournamentNameConflict):
		return ErrTournamentNameConflict
	default:
		return err
	}
}
