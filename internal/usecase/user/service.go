package user

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/interview-assistant/errors"
	"github.com/johnquangdev/interview-assistant/internal/domain/entities"
	"github.com/johnquangdev/interview-assistant/internal/domain/repositories"
)

// Service manages the user handle registry. Handles are plain labels that
// sessions point at; there is no authentication.
type Service struct {
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewService creates a new user service
func NewService(users repositories.UserRepository, logger *zap.Logger) *Service {
	return &Service{
		users:  users,
		logger: logger,
	}
}

// CreateInput carries the fields for registering a handle
type CreateInput struct {
	Handle      string
	DisplayName string
	Email       *string
}

// Create registers a new handle. Handles are unique; registering an
// existing one is a conflict, not an upsert.
func (s *Service) Create(ctx context.Context, input CreateInput) (*entities.User, error) {
	if _, err := s.users.FindByHandle(ctx, input.Handle); err == nil {
		return nil, entities.ErrUserAlreadyExists
	} else if !errors.Is(err, entities.ErrUserNotFound) {
		return nil, apperrors.ErrDBQueryFailed("find user by handle", err)
	}

	user := entities.NewUser(input.Handle, input.DisplayName)
	user.Email = input.Email
	if err := user.Validate(); err != nil {
		return nil, apperrors.ErrInvalidArgument(err.Error())
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.ErrDBQueryFailed("create user", err)
	}

	if s.logger != nil {
		s.logger.Info("✅ User registered",
			zap.String("handle", user.Handle),
			zap.String("user_id", user.ID.String()),
		)
	}

	return user, nil
}

// GetByHandle looks up one registered handle.
func (s *Service) GetByHandle(ctx context.Context, handle string) (*entities.User, error) {
	return s.users.FindByHandle(ctx, handle)
}
