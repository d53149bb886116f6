package core

import (
	"context"
	"errors"
	"fmt"

	"help-from-founder-go/internal/db"
	"help-from-founder-go/internal/models"
	"help-from-founder-go/internal/policy"
)

// userService implements the UserService interface.
type userService struct {
	userRepo db.UserRepository
}

// NewUserService creates a new UserService instance.
func NewUserService(userRepo db.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// GetOrCreate retrieves the profile of a signed-in actor. If it doesn't exist,
// it is created from the identity-provider claims.
func (s *userService) GetOrCreate(ctx context.Context, actor models.Identity, photoURL string) (*models.User, bool, error) {
	if !actor.IsAuthenticated() {
		return nil, false, fmt.Errorf("%w: sign-in required", ErrForbidden)
	}

	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to get user by ID '%s' from repository: %w", actor.UserID, err)
	}

	newUser := &models.User{
		ID:          actor.UserID,
		Email:       actor.Email,
		DisplayName: actor.DisplayName,
		PhotoURL:    photoURL,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		// A concurrent initialize from another tab won the race.
		if errors.Is(err, db.ErrAlreadyExists) {
			user, getErr := s.userRepo.GetByID(ctx, actor.UserID)
			if getErr != nil {
				return nil, false, fmt.Errorf("failed to get user by ID '%s' after create conflict: %w", actor.UserID, getErr)
			}
			return user, false, nil
		}
		return nil, false, fmt.Errorf("failed to create user (id: %s) after not found: %w", actor.UserID, err)
	}
	return newUser, true, nil
}

// GetByID retrieves a user by their ID.
func (s *userService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user by ID '%s' from repository: %w", userID, err)
	}
	return user, nil
}

// Update applies the fields of req that were sent to the actor's own profile.
func (s *userService) Update(ctx context.Context, actor models.Identity, req models.UpdateUserRequest) (*models.User, error) {
	if !policy.CanWriteUser(actor, actor.UserID) {
		return nil, fmt.Errorf("%w: sign-in required to edit a profile", ErrForbidden)
	}
	user, err := s.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.PhotoURL != nil {
		user.PhotoURL = *req.PhotoURL
	}
	if req.Website != nil {
		user.Website = *req.Website
	}
	if req.Social != nil {
		user.Social = *req.Social
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user '%s': %w", actor.UserID, err)
	}
	return s.GetByID(ctx, actor.UserID)
}
