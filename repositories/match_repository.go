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
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchPlayerInvalid = errors.New("match references unknown player")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)

	// UpdateStatus moves a match between lifecycle states. fromStatus
	// guards the transition; a zero row count means the match was not in
	// the expected state (or does not exist).
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.MatchStatus) error
	SetLoserComments(ctx context.Context, exec SQLExecutor, id int, comments string) error
	SetReplayPath(ctx context.Context, exec SQLExecutor, id int, path string) error
	UpdateRatingSnapshot(ctx context.Context, exec SQLExecutor, id int, winnerBefore, winnerAfter, loserBefore, loserAfter int) error

	// ListChronological returns every non-cancelled match in the order
	// the cascade replays them.
	ListChronological(ctx context.Context, exec SQLExecutor) ([]models.Match, error)
	ListByStatus(ctx context.Context, status models.MatchStatus) ([]models.Match, error)
	ListByPlayer(ctx context.Context, playerID, limit int) ([]models.Match, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, winner_id, loser_id, map, winner_faction, loser_faction, status,
	winner_elo_before, winner_elo_after, loser_elo_before, loser_elo_after,
	winner_comments, loser_comments, replay_path, tournament_id, series_game_id,
	created_at, updated_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID, &m.WinnerID, &m.LoserID, &m.Map, &m.WinnerFaction, &m.LoserFaction, &m.Status,
		&m.WinnerRatingBefore, &m.WinnerRatingAfter, &m.LoserRatingBefore, &m.LoserRatingAfter,
		&m.WinnerComments, &m.LoserComments, &m.ReplayPath, &m.TournamentID, &m.SeriesGameID,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (
			winner_id, loser_id, map, winner_faction, loser_faction, status,
			winner_elo_before, winner_elo_after, loser_elo_before, loser_elo_after,
			winner_comments, replay_path, tournament_id, series_game_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		match.WinnerID,
		match.LoserID,
		match.Map,
		match.WinnerFaction,
		match.LoserFaction,
		match.Status,
		match.WinnerRatingBefore,
		match.WinnerRatingAfter,
		match.LoserRatingBefore,
		match.LoserRatingAfter,
		match.WinnerComments,
		match.ReplayPath,
		match.TournamentID,
		match.SeriesGameID,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrMatchPlayerInvalid
		}
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`

	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.MatchStatus) error {
	query := `
		UPDATE matches
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`

	result, err := exec.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update status of match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetLoserComments(ctx context.Context, exec SQLExecutor, id int, comments string) error {
	query := `
		UPDATE matches
		SET loser_comments = $1, updated_at = NOW()
		WHERE id = $2`

	result, err := exec.ExecContext(ctx, query, comments, id)
	if err != nil {
		return fmt.Errorf("failed to set loser comments for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetReplayPath(ctx context.Context, exec SQLExecutor, id int, path string) error {
	query := `
		UPDATE matches
		SET replay_path = $1, updated_at = NOW()
		WHERE id = $2`

	result, err := exec.ExecContext(ctx, query, path, id)
	if err != nil {
		return fmt.Errorf("failed to set replay path for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateRatingSnapshot(ctx context.Context, exec SQLExecutor, id int, winnerBefore, winnerAfter, loserBefore, loserAfter int) error {
	query := `
		UPDATE matches
		SET winner_elo_before = $1, winner_elo_after = $2,
		    loser_elo_before = $3, loser_elo_after = $4, updated_at = NOW()
		WHERE id = $5`

	result, err := exec.ExecContext(ctx, query, winnerBefore, winnerAfter, loserBefore, loserAfter, id)
	if err != nil {
		return fmt.Errorf("failed to rewrite rating snapshot of match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) ListChronological(ctx context.Context, exec SQLExecutor) ([]models.Match, error) {
	query := `SELECT` + matchColumns + `
		FROM matches
		WHERE status != $1
		ORDER BY created_at ASC, id ASC`

	rows, err := exec.QueryContext(ctx, query, models.MatchStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches chronologically: %w", err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

func (r *postgresMatchRepository) ListByStatus(ctx context.Context, status models.MatchStatus) ([]models.Match, error) {
	query := `SELECT` + matchColumns + `
		FROM matches
		WHERE status = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches by status: %w", err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

func (r *postgresMatchRepository) ListByPlayer(ctx context.Context, playerID, limit int) ([]models.Match, error) {
	query := `SELECT` + matchColumns + `
		FROM matches
		WHERE (winner_id = $1 OR loser_id = $1) AND status != $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, playerID, models.MatchStatusCancelled, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of player %d: %w", playerID, err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

func collectMatches(rows *sql.Rows) ([]models.Match, error) {
	var matches []models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, *match)
	}
	return matches, rows.Err()
}
