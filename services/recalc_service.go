package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
	"github.com/clmates/wesnoth-tournament-manager-sub001/repositories"
)

type Recalculator interface {
	// RecalculateAll rebuilds every player's rating record by replaying
	// the full non-cancelled match history from the baseline, rewriting
	// the per-match rating snapshots along the way. The whole rebuild is
	// one transaction.
	RecalculateAll(ctx context.Context) error

	// ReplayAll runs the same rebuild inside the caller's transaction so
	// the caller can make other writes (cancelling the disputed match,
	// reopening its series slot) atomic with the replay. The caller must
	// hold the rating gate.
	ReplayAll(ctx context.Context, exec repositories.SQLExecutor) error
}

type recalcService struct {
	tx        TxRunner
	matchRepo repositories.MatchRepository
	userRepo  repositories.UserRepository
	logger    *slog.Logger

	// ratingGate keeps reports from interleaving with a replay. Shared
	// with the match service.
	ratingGate *sync.Mutex
}

func NewRecalcService(
	tx TxRunner,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
	ratingGate *sync.Mutex,
) Recalculator {
	return &recalcService{
		tx:         tx,
		matchRepo:  matchRepo,
		userRepo:   userRepo,
		logger:     logger,
		ratingGate: ratingGate,
	}
}

func (s *recalcService) RecalculateAll(ctx context.Context) error {
	s.ratingGate.Lock()
	defer s.ratingGate.Unlock()

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.ReplayAll(ctx, exec)
	})
	if err != nil {
		s.logger.Error("rating recalculation failed", slog.Any("error", err))
	}
	return err
}

func (s *recalcService) ReplayAll(ctx context.Context, exec repositories.SQLExecutor) error {
	started := time.Now()
	var replayed int

	ids, err := s.userRepo.ListIDs(ctx)
	if err != nil {
		return err
	}

	// Every player restarts from the baseline, including players with no
	// surviving matches.
	arena := make(map[int]*models.RatingState, len(ids))
	for _, id := range ids {
		state := models.NewRatingState()
		arena[id] = &state
	}

	matches, err := s.matchRepo.ListChronological(ctx, exec)
	if err != nil {
		return err
	}

	for i := range matches {
		match := &matches[i]
		winner := stateFor(arena, match.WinnerID)
		loser := stateFor(arena, match.LoserID)

		snap := applyGameResult(winner, loser)
		replayed++

		if snap.WinnerBefore != match.WinnerRatingBefore ||
			snap.WinnerAfter != match.WinnerRatingAfter ||
			snap.LoserBefore != match.LoserRatingBefore ||
			snap.LoserAfter != match.LoserRatingAfter {
			err := s.matchRepo.UpdateRatingSnapshot(ctx, exec, match.ID,
				snap.WinnerBefore, snap.WinnerAfter, snap.LoserBefore, snap.LoserAfter)
			if err != nil {
				return err
			}
		}
	}

	for id, state := range arena {
		if err := s.userRepo.UpdateRating(ctx, exec, id, *state); err != nil {
			return err
		}
	}

	s.logger.Info("rating recalculation finished",
		slog.Int("matches_replayed", replayed),
		slog.Duration("took", time.Since(started)))
	return nil
}

// stateFor covers matches referencing players missing from the id scan,
// which can only happen if a player row was removed underneath us.
func stateFor(arena map[int]*models.RatingState, id int) *models.RatingState {
	if state, ok := arena[id]; ok {
		return state
	}
	state := models.NewRatingState()
	arena[id] = &state
	return &state
}
