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
	ErrUserNotFound         = errors.New("user not found")
	ErrUserEmailConflict    = errors.New("user email conflict")
	ErrUserNicknameConflict = errors.New("user nickname conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetRatingForUpdate reads a player's rating record with a row lock,
	// so it must run inside a transaction.
	GetRatingForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.User, error)
	UpdateRating(ctx context.Context, exec SQLExecutor, id int, state models.RatingState) error

	ListIDs(ctx context.Context) ([]int, error)
	ListLeaderboard(ctx context.Context, limit int) ([]models.User, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `
	id, nickname, email, password_hash, role, country, avatar_key,
	elo_rating, is_rated, matches_played, total_wins, total_losses, streak,
	created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Nickname, &u.Email, &u.PasswordHash, &u.Role, &u.Country, &u.AvatarKey,
		&u.Rating, &u.IsRated, &u.MatchesPlayed, &u.TotalWins, &u.TotalLosses, &u.Streak,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (nickname, email, password_hash, role, country, elo_rating, streak)
		VALUES ($1, $2, $3, $4, $5, $6, '-')
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Nickname,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Country,
		models.BaselineRating,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "users_email_key":
				return ErrUserEmailConflict
			case "users_nickname_key":
				return ErrUserNicknameConflict
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.Rating = models.BaselineRating
	user.Streak = "-"
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id %d: %w", id, err)
	}
	return user, nil
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *postgresUserRepository) GetRatingForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

	user, err := scanUser(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to lock user %d: %w", id, err)
	}
	return user, nil
}

func (r *postgresUserRepository) UpdateRating(ctx context.Context, exec SQLExecutor, id int, state models.RatingState) error {
	query := `
		UPDATE users
		SET elo_rating = $1, is_rated = $2, matches_played = $3,
		    total_wins = $4, total_losses = $5, streak = $6, updated_at = NOW()
		WHERE id = $7`

	result, err := exec.ExecContext(ctx, query,
		state.Rating,
		state.IsRated,
		state.MatchesPlayed,
		state.TotalWins,
		state.TotalLosses,
		state.Streak,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update rating for user %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) ListIDs(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresUserRepository) ListLeaderboard(ctx context.Context, limit int) ([]models.User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE is_rated = TRUE
		ORDER BY elo_rating DESC, matches_played DESC, id ASC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}
