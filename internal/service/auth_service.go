package service

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

// AuthService handles authentication-related business logic
type AuthService struct {
	userRepo domain.UserRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// AuthResult represents the result of an authentication operation
type AuthResult struct {
	User      *domain.User
	IsNewUser bool
}

// AuthenticateUser handles the flow after the identity provider callback.
// Creates the user row on first login.
func (s *AuthService) AuthenticateUser(subjectID, email string, name *string) (*AuthResult, error) {
	existing, err := s.userRepo.GetBySubject(subjectID)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		log.Error().Err(err).Str("subject_id", subjectID).Msg("Failed to look up user")
		return nil, err
	}
	isNew := existing == nil

	user, err := s.userRepo.CreateOrGetBySubject(subjectID, email, name)
	if err != nil {
		log.Error().Err(err).Str("subject_id", subjectID).Msg("Failed to create or get user")
		return nil, err
	}

	if isNew {
		log.Info().Str("user_id", user.ID.String()).Msg("Created new user")
	}
	return &AuthResult{User: user, IsNewUser: isNew}, nil
}

// GetUser retrieves a user by internal ID
func (s *AuthService) GetUser(id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(id)
}

// UpdateUserName changes the display name for a user
func (s *AuthService) UpdateUserName(subjectID, name string) (*domain.User, error) {
	return s.userRepo.UpdateName(subjectID, name)
}
