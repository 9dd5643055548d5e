package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentNameConflict   = errors.New("tournament name conflict")
	ErrTournamentCreatorInvalid = errors.New("tournament creator invalid")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error)

	// UpdateStatus guards the transition with the expected current status.
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.TournamentStatus) error
	SetPrepared(ctx context.Context, exec SQLExecutor, id, totalRounds int) error
	SetCurrentRound(ctx context.Context, exec SQLExecutor, id, round int) error
	Finish(ctx context.Context, exec SQLExecutor, id, winnerID int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	id, name, description, creator_id, format, status,
	general_rounds, final_rounds, general_best_of, final_best_of,
	total_rounds, current_round, winner_id, prepared_at, finished_at, created_at`

func scanTournament(row interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	var t models.Tournament
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.CreatorID, &t.Format, &t.Status,
		&t.GeneralRounds, &t.FinalRounds, &t.GeneralBestOf, &t.FinalBestOf,
		&t.TotalRounds, &t.CurrentRound, &t.WinnerID, &t.PreparedAt, &t.FinishedAt, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			name, description, creator_id, format, status,
			general_rounds, final_rounds, general_best_of, final_best_of)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		tournament.Name,
		tournament.Description,
		tournament.CreatorID,
		tournament.Format,
		tournament.Status,
		tournament.GeneralRounds,
		tournament.FinalRounds,
		tournament.GeneralBestOf,
		tournament.FinalBestOf,
	).Scan(&tournament.ID, &tournament.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrTournamentNameConflict
			case "23503":
				return ErrTournamentCreatorInvalid
			}
		}
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	tournament, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return tournament, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments`
	var args []interface{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	var list []models.Tournament
	for rows.Next() {
		tournament, err := scanTournament(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		list = append(list, *tournament)
	}
	return list, rows.Err()
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2 AND status = $3`

	result, err := exec.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update status of tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetPrepared(ctx context.Context, exec SQLExecutor, id, totalRounds int) error {
	query := `
		UPDATE tournaments
		SET status = $1, total_rounds = $2, prepared_at = NOW()
		WHERE id = $3 AND status = $4`

	result, err := exec.ExecContext(ctx, query,
		models.TournamentPrepared, totalRounds, id, models.TournamentRegistration)
	if err != nil {
		return fmt.Errorf("failed to mark tournament %d prepared: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetCurrentRound(ctx context.Context, exec SQLExecutor, id, round int) error {
	query := `UPDATE tournaments SET status = $1, current_round = $2 WHERE id = $3`

	result, err := exec.ExecContext(ctx, query, models.TournamentInProgress, round, id)
	if err != nil {
		return fmt.Errorf("failed to set current round of tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Finish(ctx context.Context, exec SQLExecutor, id, winnerID int) error {
	query := `
		UPDATE tournaments
		SET status = $1, winner_id = $2, finished_at = NOW()
		WHERE id = $3 AND status = $4`

	result, err := exec.ExecContext(ctx, query,
		models.TournamentFinished, winnerID, id, models.TournamentInProgress)
	if err != nil {
		return fmt.Errorf("failed to finish tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
