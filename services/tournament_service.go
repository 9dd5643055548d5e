package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/clmates/wesnoth-tournament-manager-sub001/brackets"
	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
	"github.com/clmates/wesnoth-tournament-manager-sub001/repositories"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name          string
	Description   *string
	CreatorID     int
	Format        models.TournamentFormat
	GeneralRounds int
	FinalRounds   int
	GeneralBestOf int
	FinalBestOf   int
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error)
	Register(ctx context.Context, tournamentID, userID int) (*models.Participant, error)

	// Prepare computes the full round plan from the accepted participant
	// count and persists it, moving the tournament out of registration.
	Prepare(ctx context.Context, tournamentID int) (*models.Tournament, error)
}

type tournamentService struct {
	tx              TxRunner
	tournamentRepo  repositories.TournamentRepository
	roundRepo       repositories.RoundRepository
	participantRepo repositories.ParticipantRepository
	logger          *slog.Logger
}

func NewTournamentService(
	tx TxRunner,
	tournamentRepo repositories.TournamentRepository,
	roundRepo repositories.RoundRepository,
	participantRepo repositories.ParticipantRepository,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tx:              tx,
		tournamentRepo:  tournamentRepo,
		roundRepo:       roundRepo,
		participantRepo: participantRepo,
		logger:          logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	switch input.Format {
	case models.FormatElimination, models.FormatLeague, models.FormatSwiss, models.FormatSwissElimination:
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrValidationFailed, input.Format)
	}
	if !validBestOf(input.GeneralBestOf) || !validBestOf(input.FinalBestOf) {
		return nil, fmt.Errorf("%w: best-of must be 1, 3 or 5", ErrValidationFailed)
	}

	tournament := &models.Tournament{
		Name:          input.Name,
		Description:   input.Description,
		CreatorID:     input.CreatorID,
		Format:        input.Format,
		Status:        models.TournamentRegistration,
		GeneralRounds: input.GeneralRounds,
		FinalRounds:   input.FinalRounds,
		GeneralBestOf: input.GeneralBestOf,
		FinalBestOf:   input.FinalBestOf,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, translateTournamentErr(err)
	}
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateTournamentErr(err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rounds, err := s.roundRepo.ListByTournament(gCtx, id)
		if err != nil {
			return err
		}
		tournament.Rounds = rounds
		return nil
	})
	g.Go(func() error {
		participants, err := s.participantRepo.ListAccepted(gCtx, id, false)
		if err != nil {
			return err
		}
		tournament.Participants = participants
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error) {
	return s.tournamentRepo.List(ctx, status)
}

func (s *tournamentService) Register(ctx context.Context, tournamentID, userID int) (*models.Participant, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, translateTournamentErr(err)
	}
	if tournament.Status != models.TournamentRegistration {
		return nil, fmt.Errorf("%w: registration is closed", ErrValidationFailed)
	}

	participant := &models.Participant{
		TournamentID: tournamentID,
		UserID:       userID,
		Accepted:     true,
	}
	if err := s.participantRepo.Create(ctx, participant); err != nil {
		if errors.Is(err, repositories.ErrParticipantConflict) {
			return nil, ErrRegistrationConflict
		}
		return nil, err
	}
	return participant, nil
}

func (s *tournamentService) Prepare(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, translateTournamentErr(err)
	}
	if tournament.Status != models.TournamentRegistration {
		return nil, fmt.Errorf("%w: tournament is %s", ErrValidationFailed, tournament.Status)
	}

	participants, err := s.participantRepo.ListAccepted(ctx, tournamentID, false)
	if err != nil {
		return nil, err
	}

	plan, err := brackets.PlanRounds(brackets.PlanParams{
		Format:        tournament.Format,
		Participants:  len(participants),
		GeneralRounds: tournament.GeneralRounds,
		FinalRounds:   tournament.FinalRounds,
		GeneralBestOf: tournament.GeneralBestOf,
		FinalBestOf:   tournament.FinalBestOf,
	})
	if err != nil {
		switch {
		case errors.Is(err, brackets.ErrTooFewParticipants):
			return nil, ErrNotEnoughParticipants
		case errors.Is(err, brackets.ErrBadRoundCount):
			return nil, fmt.Errorf("%w: %v", ErrBadRoundConfiguration, err)
		default:
			return nil, err
		}
	}

	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		// Preparing again from registration replaces any stale plan.
		if err := s.roundRepo.DeleteByTournament(ctx, exec, tournamentID); err != nil {
			return err
		}
		for _, spec := range plan {
			round := &models.Round{
				TournamentID: tournamentID,
				Number:       spec.Number,
				Phase:        spec.Phase,
				Label:        spec.Label,
				BestOf:       spec.BestOf,
				Status:       models.RoundPending,
			}
			if err := s.roundRepo.Create(ctx, exec, round); err != nil {
				return err
			}
		}
		return translateTournamentErr(s.tournamentRepo.SetPrepared(ctx, exec, tournamentID, len(plan)))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tournament prepared",
		slog.Int("tournament_id", tournamentID),
		slog.String("format", string(tournament.Format)),
		slog.Int("participants", len(participants)),
		slog.Int("rounds", len(plan)))

	return s.GetByID(ctx, tournamentID)
}

func validBestOf(n int) bool {
	return n == 1 || n == 3 || n == 5
}
