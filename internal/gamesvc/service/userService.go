package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vediprashant/bluff-api/internal/gamesvc/models"
	"github.com/vediprashant/bluff-api/internal/gamesvc/store"
)

// UserService struct represents the user service layer
type UserService struct {
	userStore *store.UserStore
}

// NewUserService creates a new UserService instance
func NewUserService(userStore *store.UserStore) *UserService {
	return &UserService{
		userStore: userStore,
	}
}

// GetOrCreateUser checks if a user exists and creates them if not. The
// identity itself comes from the JWT; these rows only back foreign keys.
func (s *UserService) GetOrCreateUser(ctx context.Context, userInfo models.User) (*models.User, error) {
	existingUser, err := s.userStore.GetByID(ctx, userInfo.UserId)
	if err != nil {
		log.Infof("user %d not found, creating: %v", userInfo.UserId, err)

		userInfo.Status = "ACTIVE"
		userId, err := s.userStore.CreateUser(ctx, userInfo)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		userInfo.UserId = userId
		return &userInfo, nil
	}

	return existingUser, nil
}
