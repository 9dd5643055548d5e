package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
	"github.com/clmates/wesnoth-tournament-manager-sub001/repositories"
)

type ReportMatchInput struct {
	WinnerID      int
	LoserID       int
	Map           string
	WinnerFaction string
	LoserFaction  string
	Comments      *string
	ReplayPath    *string

	// SeriesGameID links the reported game to a tournament series slot.
	// Nil for plain ladder games.
	SeriesGameID *int
}

type MatchService interface {
	Report(ctx context.Context, input ReportMatchInput) (*models.Match, error)
	Confirm(ctx context.Context, matchID, actorID int, comments *string) (*models.Match, error)
	Dispute(ctx context.Context, matchID, actorID int, comments string) (*models.Match, error)

	// ResolveDispute is the admin decision on a disputed match. validate
	// cancels the match and triggers a full history recalculation;
	// otherwise the dispute is rejected and the match confirmed as
	// reported.
	ResolveDispute(ctx context.Context, matchID int, validate bool) (*models.Match, error)

	// AttachReplay records the storage key of an uploaded replay file.
	// Only the two players of the match may attach one.
	AttachReplay(ctx context.Context, matchID, actorID int, key string) error

	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListDisputed(ctx context.Context) ([]models.Match, error)
	ListByPlayer(ctx context.Context, playerID, limit int) ([]models.Match, error)
}

type matchService struct {
	tx        TxRunner
	matchRepo repositories.MatchRepository
	userRepo  repositories.UserRepository
	series    SeriesService
	recalc    Recalculator
	bus       *EventBus
	logger    *slog.Logger

	// ratingGate serializes rating writes against the cascade
	// recalculation. Shared with the recalc service.
	ratingGate *sync.Mutex
}

func NewMatchService(
	tx TxRunner,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	series SeriesService,
	recalc Recalculator,
	bus *EventBus,
	logger *slog.Logger,
	ratingGate *sync.Mutex,
) MatchService {
	return &matchService{
		tx:         tx,
		matchRepo:  matchRepo,
		userRepo:   userRepo,
		series:     series,
		recalc:     recalc,
		bus:        bus,
		logger:     logger,
		ratingGate: ratingGate,
	}
}

// Report records a finished game and applies the rating change
// immediately, before the loser has confirmed. A later validated
// dispute cancels the match and replays history.
func (s *matchService) Report(ctx context.Context, input ReportMatchInput) (*models.Match, error) {
	if input.WinnerID == input.LoserID {
		return nil, ErrSelfMatchForbidden
	}
	if input.Map == "" || input.WinnerFaction == "" || input.LoserFaction == "" {
		return nil, fmt.Errorf("%w: map and factions are required", ErrValidationFailed)
	}

	s.ratingGate.Lock()
	defer s.ratingGate.Unlock()

	var (
		match           *models.Match
		completedSeries *models.Series
	)
	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		// Lock both rating rows in id order to avoid deadlocks between
		// concurrent reports.
		firstID, secondID := input.WinnerID, input.LoserID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}
		first, err := s.userRepo.GetRatingForUpdate(ctx, exec, firstID)
		if err != nil {
			return translateUserErr(err)
		}
		second, err := s.userRepo.GetRatingForUpdate(ctx, exec, secondID)
		if err != nil {
			return translateUserErr(err)
		}

		winner, loser := first, second
		if winner.ID != input.WinnerID {
			winner, loser = second, first
		}

		winnerState := ratingStateOf(winner)
		loserState := ratingStateOf(loser)
		snap := applyGameResult(&winnerState, &loserState)

		match = &models.Match{
			WinnerID:           input.WinnerID,
			LoserID:            input.LoserID,
			Map:                input.Map,
			WinnerFaction:      input.WinnerFaction,
			LoserFaction:       input.LoserFaction,
			Status:             models.MatchStatusPending,
			WinnerRatingBefore: snap.WinnerBefore,
			WinnerRatingAfter:  snap.WinnerAfter,
			LoserRatingBefore:  snap.LoserBefore,
			LoserRatingAfter:   snap.LoserAfter,
			WinnerComments:     input.Comments,
			ReplayPath:         input.ReplayPath,
			SeriesGameID:       input.SeriesGameID,
		}

		if input.SeriesGameID != nil {
			series, err := s.series.RecordGameResult(ctx, exec, *input.SeriesGameID, input.WinnerID, match)
			if err != nil {
				return err
			}
			if series.Status == models.SeriesCompleted {
				completedSeries = series
			}
		} else if err := s.matchRepo.Create(ctx, exec, match); err != nil {
			return translateMatchErr(err)
		}

		if err := s.userRepo.UpdateRating(ctx, exec, winner.ID, winnerState); err != nil {
			return err
		}
		return s.userRepo.UpdateRating(ctx, exec, loser.ID, loserState)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, Event{Type: EventMatchReported, Match: match})
	if completedSeries != nil {
		s.bus.Publish(ctx, Event{
			Type:         EventSeriesCompleted,
			Series:       completedSeries,
			TournamentID: completedSeries.TournamentID,
			WinnerID:     *completedSeries.WinnerID,
		})
	}
	return match, nil
}

func (s *matchService) Confirm(ctx context.Context, matchID, actorID int, comments *string) (*models.Match, error) {
	match, err := s.loserAction(ctx, matchID, actorID, models.MatchStatusConfirmed, comments)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(ctx, Event{Type: EventMatchConfirmed, Match: match})
	return match, nil
}

func (s *matchService) Dispute(ctx context.Context, matchID, actorID int, comments string) (*models.Match, error) {
	if comments == "" {
		return nil, fmt.Errorf("%w: a dispute needs an explanation", ErrValidationFailed)
	}
	match, err := s.loserAction(ctx, matchID, actorID, models.MatchStatusDisputed, &comments)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(ctx, Event{Type: EventMatchDisputed, Match: match})
	return match, nil
}

// loserAction moves a pending match to confirmed or disputed. Only the
// losing player may respond to a report.
func (s *matchService) loserAction(ctx context.Context, matchID, actorID int, to models.MatchStatus, comments *string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, translateMatchErr(err)
	}
	if match.LoserID != actorID {
		return nil, ErrOnlyLoserMayRespond
	}
	if match.Status != models.MatchStatusPending {
		return nil, fmt.Errorf("%w: match %d is %s", ErrMatchNotActionable, matchID, match.Status)
	}

	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.UpdateStatus(ctx, exec, matchID, models.MatchStatusPending, to); err != nil {
			return translateMatchErr(err)
		}
		if comments != nil {
			return s.matchRepo.SetLoserComments(ctx, exec, matchID, *comments)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	match.Status = to
	match.LoserComments = comments
	return match, nil
}

func (s *matchService) ResolveDispute(ctx context.Context, matchID int, validate bool) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, translateMatchErr(err)
	}
	if match.Status != models.MatchStatusDisputed {
		return nil, fmt.Errorf("%w: match %d is %s", ErrMatchNotActionable, matchID, match.Status)
	}

	if !validate {
		err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
			return translateMatchErr(s.matchRepo.UpdateStatus(ctx, exec, matchID,
				models.MatchStatusDisputed, models.MatchStatusConfirmed))
		})
		if err != nil {
			return nil, err
		}
		match.Status = models.MatchStatusConfirmed
		s.bus.Publish(ctx, Event{Type: EventDisputeRejected, Match: match})
		return match, nil
	}

	// Cancellation, series reopen and the history replay commit as one
	// unit: a failed replay rolls the cancellation back, so the whole
	// resolution call is safe to retry.
	s.ratingGate.Lock()
	defer s.ratingGate.Unlock()

	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.UpdateStatus(ctx, exec, matchID,
			models.MatchStatusDisputed, models.MatchStatusCancelled); err != nil {
			return translateMatchErr(err)
		}
		if match.SeriesGameID != nil {
			if err := s.series.ReopenForCancelledGame(ctx, exec, *match.SeriesGameID); err != nil {
				return err
			}
		}
		// The cancelled match invalidates every rating computed after it.
		return s.recalc.ReplayAll(ctx, exec)
	})
	if err != nil {
		s.logger.Error("validated dispute resolution failed",
			slog.Int("match_id", matchID), slog.Any("error", err))
		return nil, err
	}
	match.Status = models.MatchStatusCancelled

	s.bus.Publish(ctx, Event{Type: EventDisputeValidated, Match: match})
	return match, nil
}

func (s *matchService) AttachReplay(ctx context.Context, matchID, actorID int, key string) error {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return translateMatchErr(err)
	}
	if actorID != match.WinnerID && actorID != match.LoserID {
		return ErrForbiddenOperation
	}
	return s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		return translateMatchErr(s.matchRepo.SetReplayPath(ctx, exec, matchID, key))
	})
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateMatchErr(err)
	}
	return match, nil
}

func (s *matchService) ListDisputed(ctx context.Context) ([]models.Match, error) {
	return s.matchRepo.ListByStatus(ctx, models.MatchStatusDisputed)
}

func (s *matchService) ListByPlayer(ctx context.Context, playerID, limit int) ([]models.Match, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.matchRepo.ListByPlayer(ctx, playerID, limit)
}

func translateMatchErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchPlayerInvalid):
		return fmt.Errorf("%w: unknown player", ErrValidationFailed)
	default:
		return err
	}
}

func translateUserErr(err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}
