package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
	"github.com/clmates/wesnoth-tournament-manager-sub001/repositories"
)

// SeriesWinPoints is what a decided series is worth in the tournament
// standings, byes included.
const SeriesWinPoints = 1

type SeriesService interface {
	// RecordGameResult links a freshly reported match to its series game
	// slot, advances the series score and schedules the next game when
	// the series is still open. The match is created here so its
	// tournament linkage comes from the series. Runs inside the caller's
	// transaction.
	RecordGameResult(ctx context.Context, exec repositories.SQLExecutor, gameID, winnerID int, match *models.Match) (*models.Series, error)

	// EnsureNextGame creates the next pending game slot if the series is
	// open, below its best-of cap and has no pending game. Reports
	// whether a game was created.
	EnsureNextGame(ctx context.Context, exec repositories.SQLExecutor, seriesID int) (bool, error)

	// ReopenForCancelledGame rolls a cancelled game out of its series:
	// the game slot goes back to pending and, if that game had decided
	// the series, the series reopens and standings are rolled back.
	ReopenForCancelledGame(ctx context.Context, exec repositories.SQLExecutor, gameID int) error

	GetByID(ctx context.Context, id int) (*models.Series, error)
	ListGames(ctx context.Context, seriesID int) ([]models.SeriesGame, error)
}

type seriesService struct {
	seriesRepo      repositories.SeriesRepository
	matchRepo       repositories.MatchRepository
	participantRepo repositories.ParticipantRepository
	logger          *slog.Logger
}

func NewSeriesService(
	seriesRepo repositories.SeriesRepository,
	matchRepo repositories.MatchRepository,
	participantRepo repositories.ParticipantRepository,
	logger *slog.Logger,
) SeriesService {
	return &seriesService{
		seriesRepo:      seriesRepo,
		matchRepo:       matchRepo,
		participantRepo: participantRepo,
		logger:          logger,
	}
}

func (s *seriesService) RecordGameResult(ctx context.Context, exec repositories.SQLExecutor, gameID, winnerID int, match *models.Match) (*models.Series, error) {
	game, err := s.seriesRepo.GetGameByID(ctx, exec, gameID)
	if err != nil {
		return nil, translateSeriesErr(err)
	}
	if game.Status != models.SeriesGamePending {
		return nil, ErrGameAlreadyReported
	}

	series, err := s.seriesRepo.GetForUpdate(ctx, exec, game.SeriesID)
	if err != nil {
		return nil, translateSeriesErr(err)
	}
	if series.Status == models.SeriesCompleted {
		return nil, ErrSeriesAlreadyDecided
	}

	loserID, err := opponentOf(series, winnerID)
	if err != nil {
		return nil, err
	}
	if match.LoserID != loserID {
		return nil, ErrPlayersNotInSeries
	}

	match.TournamentID = &series.TournamentID
	if err := s.matchRepo.Create(ctx, exec, match); err != nil {
		return nil, translateMatchErr(err)
	}
	if err := s.seriesRepo.CompleteGame(ctx, exec, game.ID, winnerID, match.ID); err != nil {
		return nil, translateSeriesErr(err)
	}

	if winnerID == series.Player1ID {
		series.Player1Wins++
	} else {
		series.Player2Wins++
	}

	if series.Player1Wins >= series.WinsRequired || series.Player2Wins >= series.WinsRequired {
		series.Status = models.SeriesCompleted
		series.WinnerID = &winnerID
		if err := s.participantRepo.AddWin(ctx, exec, series.TournamentID, winnerID, SeriesWinPoints); err != nil {
			return nil, err
		}
		if err := s.participantRepo.AddLoss(ctx, exec, series.TournamentID, loserID); err != nil {
			return nil, err
		}
	} else if _, err := s.ensureNextGameLocked(ctx, exec, series); err != nil {
		return nil, err
	}

	if err := s.seriesRepo.Update(ctx, exec, series); err != nil {
		return nil, translateSeriesErr(err)
	}
	return series, nil
}

func (s *seriesService) EnsureNextGame(ctx context.Context, exec repositories.SQLExecutor, seriesID int) (bool, error) {
	series, err := s.seriesRepo.GetForUpdate(ctx, exec, seriesID)
	if err != nil {
		return false, translateSeriesErr(err)
	}
	created, err := s.ensureNextGameLocked(ctx, exec, series)
	if err != nil {
		return false, err
	}
	if created {
		if err := s.seriesRepo.Update(ctx, exec, series); err != nil {
			return false, translateSeriesErr(err)
		}
	}
	return created, nil
}

// ensureNextGameLocked assumes the series row is already locked. It
// mutates games_scheduled on the passed series; the caller persists it.
func (s *seriesService) ensureNextGameLocked(ctx context.Context, exec repositories.SQLExecutor, series *models.Series) (bool, error) {
	if series.Status != models.SeriesInProgress {
		return false, nil
	}
	if series.GamesScheduled >= series.BestOf {
		return false, nil
	}
	if series.Player1Wins >= series.WinsRequired || series.Player2Wins >= series.WinsRequired {
		return false, nil
	}
	pending, err := s.seriesRepo.CountPendingGames(ctx, exec, series.ID)
	if err != nil {
		return false, err
	}
	if pending > 0 {
		return false, nil
	}

	game := &models.SeriesGame{
		TournamentID: series.TournamentID,
		RoundID:      series.RoundID,
		SeriesID:     series.ID,
		Player1ID:    series.Player1ID,
		Player2ID:    series.Player2ID,
		Status:       models.SeriesGamePending,
	}
	if err := s.seriesRepo.CreateGame(ctx, exec, game); err != nil {
		return false, err
	}
	series.GamesScheduled++
	return true, nil
}

func (s *seriesService) ReopenForCancelledGame(ctx context.Context, exec repositories.SQLExecutor, gameID int) error {
	game, err := s.seriesRepo.GetGameByID(ctx, exec, gameID)
	if err != nil {
		return translateSeriesErr(err)
	}
	if game.Status != models.SeriesGameCompleted || game.WinnerID == nil {
		// Nothing to roll back.
		return nil
	}

	series, err := s.seriesRepo.GetForUpdate(ctx, exec, game.SeriesID)
	if err != nil {
		return translateSeriesErr(err)
	}

	gameWinner := *game.WinnerID
	gameLoser, err := opponentOf(series, gameWinner)
	if err != nil {
		return err
	}

	if gameWinner == series.Player1ID {
		series.Player1Wins--
	} else {
		series.Player2Wins--
	}

	if series.Status == models.SeriesCompleted {
		s.logger.Warn("reopening decided series after validated dispute",
			slog.Int("series_id", series.ID), slog.Int("game_id", gameID))
		series.Status = models.SeriesInProgress
		series.WinnerID = nil
		if err := s.participantRepo.RevokeWin(ctx, exec, series.TournamentID, gameWinner, SeriesWinPoints); err != nil {
			return err
		}
		if err := s.participantRepo.RevokeLoss(ctx, exec, series.TournamentID, gameLoser); err != nil {
			return err
		}
	}

	if err := s.seriesRepo.ReopenGame(ctx, exec, gameID); err != nil {
		return translateSeriesErr(err)
	}
	return s.seriesRepo.Update(ctx, exec, series)
}

func (s *seriesService) GetByID(ctx context.Context, id int) (*models.Series, error) {
	series, err := s.seriesRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateSeriesErr(err)
	}
	return series, nil
}

func (s *seriesService) ListGames(ctx context.Context, seriesID int) ([]models.SeriesGame, error) {
	if _, err := s.seriesRepo.GetByID(ctx, seriesID); err != nil {
		return nil, translateSeriesErr(err)
	}
	return s.seriesRepo.ListGamesBySeries(ctx, seriesID)
}

func opponentOf(series *models.Series, playerID int) (int, error) {
	switch playerID {
	case series.Player1ID:
		return series.Player2ID, nil
	case series.Player2ID:
		return series.Player1ID, nil
	default:
		return 0, ErrPlayersNotInSeries
	}
}

func translateSeriesErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrSeriesNotFound):
		return ErrSeriesNotFound
	case errors.Is(err, repositories.ErrSeriesGameNotFound):
		return ErrSeriesGameNotFound
	default:
		return fmt.Errorf("series operation failed: %w", err)
	}
}
