package service

import (
	"context"

	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/repository"
)

// UserService serves public profiles.
type UserService struct {
	users repository.UserRepository
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetProfile returns the public view of a user.
func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}
