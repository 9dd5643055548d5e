package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
)

var ErrRoundNotFound = errors.New("round not found")

type RoundRepository interface {
	Create(ctx context.Context, exec SQLExecutor, round *models.Round) error
	GetByID(ctx context.Context, id int) (*models.Round, error)
	GetByNumber(ctx context.Context, tournamentID, number int) (*models.Round, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Round, error)
	MarkStarted(ctx context.Context, exec SQLExecutor, id int) error
	MarkCompleted(ctx context.Context, exec SQLExecutor, id int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

const roundColumns = `
	id, tournament_id, round_number, phase, label, best_of, status, started_at, ended_at`

func scanRound(row interface{ Scan(...interface{}) error }) (*models.Round, error) {
	var rnd models.Round
	err := row.Scan(
		&rnd.ID, &rnd.TournamentID, &rnd.Number, &rnd.Phase, &rnd.Label,
		&rnd.BestOf, &rnd.Status, &rnd.StartedAt, &rnd.EndedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rnd, nil
}

func (r *postgresRoundRepository) Create(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	query := `
		INSERT INTO rounds (tournament_id, round_number, phase, label, best_of, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := exec.QueryRowContext(ctx, query,
		round.TournamentID,
		round.Number,
		round.Phase,
		round.Label,
		round.BestOf,
		round.Status,
	).Scan(&round.ID)

	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, id int) (*models.Round, error) {
	query := `SELECT` + roundColumns + ` FROM rounds WHERE id = $1`

	round, err := scanRound(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to get round %d: %w", id, err)
	}
	return round, nil
}

func (r *postgresRoundRepository) GetByNumber(ctx context.Context, tournamentID, number int) (*models.Round, error) {
	query := `SELECT` + roundColumns + ` FROM rounds WHERE tournament_id = $1 AND round_number = $2`

	round, err := scanRound(r.db.QueryRowContext(ctx, query, tournamentID, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to get round %d of tournament %d: %w", number, tournamentID, err)
	}
	return round, nil
}

func (r *postgresRoundRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Round, error) {
	query := `SELECT` + roundColumns + ` FROM rounds WHERE tournament_id = $1 ORDER BY round_number`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds of tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	var rounds []models.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round row: %w", err)
		}
		rounds = append(rounds, *round)
	}
	return rounds, rows.Err()
}

func (r *postgresRoundRepository) MarkStarted(ctx context.Context, exec SQLExecutor, id int) error {
	query := `
		UPDATE rounds
		SET status = $1, started_at = NOW()
		WHERE id = $2 AND status = $3`

	result, err := exec.ExecContext(ctx, query, models.RoundInProgress, id, models.RoundPending)
	if err != nil {
		return fmt.Errorf("failed to start round %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) MarkCompleted(ctx context.Context, exec SQLExecutor, id int) error {
	query := `
		UPDATE rounds
		SET status = $1, ended_at = NOW()
		WHERE id = $2 AND status = $3`

	result, err := exec.ExecContext(ctx, query, models.RoundCompleted, id, models.RoundInProgress)
	if err != nil {
		return fmt.Errorf("failed to complete round %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	_, err := exec.ExecContext(ctx, `DELETE FROM rounds WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to delete rounds of tournament %d: %w", tournamentID, err)
	}
	return nil
}
