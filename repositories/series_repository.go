package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
)

var (
	ErrSeriesNotFound     = errors.New("series not found")
	ErrSeriesGameNotFound = errors.New("series game not found")
)

type SeriesRepository interface {
	Create(ctx context.Context, exec SQLExecutor, series *models.Series) error
	GetByID(ctx context.Context, id int) (*models.Series, error)
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Series, error)
	Update(ctx context.Context, exec SQLExecutor, series *models.Series) error
	ListByRound(ctx context.Context, roundID int) ([]models.Series, error)

	// ListPairHistory returns every player pair that has already met in
	// the tournament, for rematch avoidance in swiss pairing.
	ListPairHistory(ctx context.Context, tournamentID int) ([]models.Series, error)

	CreateGame(ctx context.Context, exec SQLExecutor, game *models.SeriesGame) error

	// GetGameByID reads through the caller's executor so status prechecks
	// see the transaction's own view of the slot.
	GetGameByID(ctx context.Context, exec SQLExecutor, id int) (*models.SeriesGame, error)
	CompleteGame(ctx context.Context, exec SQLExecutor, gameID, winnerID, matchID int) error
	ReopenGame(ctx context.Context, exec SQLExecutor, gameID int) error
	ListGamesBySeries(ctx context.Context, seriesID int) ([]models.SeriesGame, error)
	CountPendingGames(ctx context.Context, exec SQLExecutor, seriesID int) (int, error)
	CountPendingGamesByRound(ctx context.Context, roundID int) (int, error)
}

type postgresSeriesRepository struct {
	db *sql.DB
}

func NewPostgresSeriesRepository(db *sql.DB) SeriesRepository {
	return &postgresSeriesRepository{db: db}
}

const seriesColumns = `
	id, tournament_id, round_id, player1_id, player2_id, best_of, wins_required,
	player1_wins, player2_wins, games_scheduled, status, winner_id, created_at, updated_at`

func scanSeries(row interface{ Scan(...interface{}) error }) (*models.Series, error) {
	var s models.Series
	err := row.Scan(
		&s.ID, &s.TournamentID, &s.RoundID, &s.Player1ID, &s.Player2ID, &s.BestOf, &s.WinsRequired,
		&s.Player1Wins, &s.Player2Wins, &s.GamesScheduled, &s.Status, &s.WinnerID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *postgresSeriesRepository) Create(ctx context.Context, exec SQLExecutor, series *models.Series) error {
	query := `
		INSERT INTO series (tournament_id, round_id, player1_id, player2_id, best_of, wins_required, games_scheduled, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		series.TournamentID,
		series.RoundID,
		series.Player1ID,
		series.Player2ID,
		series.BestOf,
		series.WinsRequired,
		series.GamesScheduled,
		series.Status,
	).Scan(&series.ID, &series.CreatedAt, &series.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create series: %w", err)
	}
	return nil
}

func (r *postgresSeriesRepository) GetByID(ctx context.Context, id int) (*models.Series, error) {
	query := `SELECT` + seriesColumns + ` FROM series WHERE id = $1`

	series, err := scanSeries(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeriesNotFound
		}
		return nil, fmt.Errorf("failed to get series %d: %w", id, err)
	}
	return series, nil
}

func (r *postgresSeriesRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Series, error) {
	query := `SELECT` + seriesColumns + ` FROM series WHERE id = $1 FOR UPDATE`

	series, err := scanSeries(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeriesNotFound
		}
		return nil, fmt.Errorf("failed to lock series %d: %w", id, err)
	}
	return series, nil
}

func (r *postgresSeriesRepository) Update(ctx context.Context, exec SQLExecutor, series *models.Series) error {
	query := `
		UPDATE series
		SET player1_wins = $1, player2_wins = $2, games_scheduled = $3,
		    status = $4, winner_id = $5, updated_at = NOW()
		WHERE id = $6`

	result, err := exec.ExecContext(ctx, query,
		series.Player1Wins,
		series.Player2Wins,
		series.GamesScheduled,
		series.Status,
		series.WinnerID,
		series.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update series %d: %w", series.ID, err)
	}
	return checkAffectedRows(result, ErrSeriesNotFound)
}

func (r *postgresSeriesRepository) ListByRound(ctx context.Context, roundID int) ([]models.Series, error) {
	query := `SELECT` + seriesColumns + ` FROM series WHERE round_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list series of round %d: %w", roundID, err)
	}
	defer rows.Close()
	return collectSeries(rows)
}

func (r *postgresSeriesRepository) ListPairHistory(ctx context.Context, tournamentID int) ([]models.Series, error) {
	query := `SELECT` + seriesColumns + ` FROM series WHERE tournament_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pair history of tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()
	return collectSeries(rows)
}

func collectSeries(rows *sql.Rows) ([]models.Series, error) {
	var list []models.Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan series row: %w", err)
		}
		list = append(list, *series)
	}
	return list, rows.Err()
}

const seriesGameColumns = `
	id, tournament_id, round_id, series_id, player1_id, player2_id,
	status, winner_id, match_id, played_at, created_at`

func scanSeriesGame(row interface{ Scan(...interface{}) error }) (*models.SeriesGame, error) {
	var g models.SeriesGame
	err := row.Scan(
		&g.ID, &g.TournamentID, &g.RoundID, &g.SeriesID, &g.Player1ID, &g.Player2ID,
		&g.Status, &g.WinnerID, &g.MatchID, &g.PlayedAt, &g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *postgresSeriesRepository) CreateGame(ctx context.Context, exec SQLExecutor, game *models.SeriesGame) error {
	query := `
		INSERT INTO series_games (tournament_id, round_id, series_id, player1_id, player2_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		game.TournamentID,
		game.RoundID,
		game.SeriesID,
		game.Player1ID,
		game.Player2ID,
		game.Status,
	).Scan(&game.ID, &game.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create series game: %w", err)
	}
	return nil
}

func (r *postgresSeriesRepository) GetGameByID(ctx context.Context, exec SQLExecutor, id int) (*models.SeriesGame, error) {
	query := `SELECT` + seriesGameColumns + ` FROM series_games WHERE id = $1`

	game, err := scanSeriesGame(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeriesGameNotFound
		}
		return nil, fmt.Errorf("failed to get series game %d: %w", id, err)
	}
	return game, nil
}

func (r *postgresSeriesRepository) CompleteGame(ctx context.Context, exec SQLExecutor, gameID, winnerID, matchID int) error {
	query := `
		UPDATE series_games
		SET status = $1, winner_id = $2, match_id = $3, played_at = NOW()
		WHERE id = $4 AND status = $5`

	result, err := exec.ExecContext(ctx, query,
		models.SeriesGameCompleted, winnerID, matchID, gameID, models.SeriesGamePending)
	if err != nil {
		return fmt.Errorf("failed to complete series game %d: %w", gameID, err)
	}
	return checkAffectedRows(result, ErrSeriesGameNotFound)
}

func (r *postgresSeriesRepository) ReopenGame(ctx context.Context, exec SQLExecutor, gameID int) error {
	query := `
		UPDATE series_games
		SET status = $1, winner_id = NULL, match_id = NULL, played_at = NULL
		WHERE id = $2`

	result, err := exec.ExecContext(ctx, query, models.SeriesGamePending, gameID)
	if err != nil {
		return fmt.Errorf("failed to reopen series game %d: %w", gameID, err)
	}
	return checkAffectedRows(result, ErrSeriesGameNotFound)
}

func (r *postgresSeriesRepository) ListGamesBySeries(ctx context.Context, seriesID int) ([]models.SeriesGame, error) {
	query := `SELECT` + seriesGameColumns + ` FROM series_games WHERE series_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games of series %d: %w", seriesID, err)
	}
	defer rows.Close()

	var games []models.SeriesGame
	for rows.Next() {
		game, err := scanSeriesGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan series game row: %w", err)
		}
		games = append(games, *game)
	}
	return games, rows.Err()
}

func (r *postgresSeriesRepository) CountPendingGames(ctx context.Context, exec SQLExecutor, seriesID int) (int, error) {
	query := `SELECT COUNT(*) FROM series_games WHERE series_id = $1 AND status = $2`

	var count int
	err := exec.QueryRowContext(ctx, query, seriesID, models.SeriesGamePending).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending games of series %d: %w", seriesID, err)
	}
	return count, nil
}

func (r *postgresSeriesRepository) CountPendingGamesByRound(ctx context.Context, roundID int) (int, error) {
	query := `SELECT COUNT(*) FROM series_games WHERE round_id = $1 AND status = $2`

	var count int
	err := r.db.QueryRowContext(ctx, query, roundID, models.SeriesGamePending).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending games of round %d: %w", roundID, err)
	}
	return count, nil
}
