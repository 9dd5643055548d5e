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
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantConflict = errors.New("participant already registered")
)

type ParticipantRepository interface {
	Create(ctx context.Context, participant *models.Participant) error
	ListAccepted(ctx context.Context, tournamentID int, activeOnly bool) ([]models.Participant, error)
	AddWin(ctx context.Context, exec SQLExecutor, tournamentID, userID, points int) error
	AddLoss(ctx context.Context, exec SQLExecutor, tournamentID, userID int) error
	RevokeWin(ctx context.Context, exec SQLExecutor, tournamentID, userID, points int) error
	RevokeLoss(ctx context.Context, exec SQLExecutor, tournamentID, userID int) error
	AddByePoints(ctx context.Context, exec SQLExecutor, tournamentID, userID, points int) error
	MarkEliminated(ctx context.Context, exec SQLExecutor, tournamentID int, userIDs []int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	query := `
		INSERT INTO participants (tournament_id, user_id, accepted)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		participant.TournamentID,
		participant.UserID,
		participant.Accepted,
	).Scan(&participant.ID, &participant.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrParticipantConflict
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// ListAccepted joins the player record so pairing can read current
// ratings. Results are ordered by tournament standing.
func (r *postgresParticipantRepository) ListAccepted(ctx context.Context, tournamentID int, activeOnly bool) ([]models.Participant, error) {
	query := `
		SELECT
			p.id, p.tournament_id, p.user_id, p.accepted, p.eliminated,
			p.tournament_points, p.tournament_wins, p.tournament_losses, p.created_at,
			u.id, u.nickname, u.elo_rating, u.is_rated, u.matches_played, u.streak
		FROM participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.tournament_id = $1 AND p.accepted = TRUE`
	if activeOnly {
		query += ` AND p.eliminated = FALSE`
	}
	query += `
		ORDER BY p.tournament_points DESC, p.tournament_wins DESC, u.elo_rating DESC, p.user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		var u models.User
		err := rows.Scan(
			&p.ID, &p.TournamentID, &p.UserID, &p.Accepted, &p.Eliminated,
			&p.Points, &p.Wins, &p.Losses, &p.CreatedAt,
			&u.ID, &u.Nickname, &u.Rating, &u.IsRated, &u.MatchesPlayed, &u.Streak,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		p.User = &u
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *postgresParticipantRepository) AddWin(ctx context.Context, exec SQLExecutor, tournamentID, userID, points int) error {
	query := `
		UPDATE participants
		SET tournament_points = tournament_points + $1, tournament_wins = tournament_wins + 1
		WHERE tournament_id = $2 AND user_id = $3`

	result, err := exec.ExecContext(ctx, query, points, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to add win for user %d in tournament %d: %w", userID, tournamentID, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) AddLoss(ctx context.Context, exec SQLExecutor, tournamentID, userID int) error {
	query := `
		UPDATE participants
		SET tournament_losses = tournament_losses + 1
		WHERE tournament_id = $1 AND user_id = $2`

	result, err := exec.ExecContext(ctx, query, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to add loss for user %d in tournament %d: %w", userID, tournamentID, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

// RevokeWin undoes a previously awarded series win, used when a
// validated dispute reopens a decided series.
func (r *postgresParticipantRepository) RevokeWin(ctx context.Context, exec SQLExecutor, tournamentID, userID, points int) error {
	query := `
		UPDATE participants
		SET tournament_points = tournament_points - $1, tournament_wins = tournament_wins - 1
		WHERE tournament_id = $2 AND user_id = $3`

	result, err := exec.ExecContext(ctx, query, points, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke win for user %d in tournament %d: %w", userID, tournamentID, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) RevokeLoss(ctx context.Context, exec SQLExecutor, tournamentID, userID int) error {
	query := `
		UPDATE participants
		SET tournament_losses = tournament_losses - 1
		WHERE tournament_id = $1 AND user_id = $2`

	result, err := exec.ExecContext(ctx, query, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke loss for user %d in tournament %d: %w", userID, tournamentID, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

// AddByePoints awards a free win without incrementing losses anywhere.
func (r *postgresParticipantRepository) AddByePoints(ctx context.Context, exec SQLExecutor, tournamentID, userID, points int) error {
	return r.AddWin(ctx, exec, tournamentID, userID, points)
}

func (r *postgresParticipantRepository) MarkEliminated(ctx context.Context, exec SQLExecutor, tournamentID int, userIDs []int) error {
	if len(userIDs) == 0 {
		return nil
	}
	query := `
		UPDATE participants
		SET eliminated = TRUE
		WHERE tournament_id = $1 AND user_id = ANY($2)`

	_, err := exec.ExecContext(ctx, query, tournamentID, pq.Array(userIDs))
	if err != nil {
		return fmt.Errorf("failed to eliminate participants of tournament %d: %w", tournamentID, err)
	}
	return nil
}
