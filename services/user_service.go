package services

import (
	"context"
	"errors"

	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
	"github.com/clmates/wesnoth-tournament-manager-sub001/repositories"
)

const defaultLeaderboardSize = 100

type UserService interface {
	GetProfile(ctx context.Context, id int) (*models.User, error)

	// Leaderboard lists rated players by rating.
	Leaderboard(ctx context.Context, limit int) ([]models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultLeaderboardSize
	}
	return s.userRepo.ListLeaderboard(ctx, limit)
}
