package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/interview-assistant/internal/domain/entities"
)

// UserRepository defines the interface for user handle data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *entities.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)

	// FindByHandle finds a user by handle
	FindByHandle(ctx context.Context, handle string) (*entities.User, error)

	// Update updates a user
	Update(ctx context.Context, user *entities.User) error

	// List returns a paginated list of users
	List(ctx context.Context, limit, offset int) ([]*entities.User, error)
}
