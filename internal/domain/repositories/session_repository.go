package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/interview-assistant/internal/domain/entities"
)

// SessionRepository defines the interface for interview session index rows
type SessionRepository interface {
	// Create creates a new session row
	Create(ctx context.Context, session *entities.InterviewSession) error

	// FindByID finds a session by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.InterviewSession, error)

	// Update persists changes to a session row
	Update(ctx context.Context, session *entities.InterviewSession) error

	// Delete removes a session row
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByHandle returns sessions for one user handle, newest first
	ListByHandle(ctx context.Context, handle string, limit, offset int) ([]*entities.InterviewSession, error)
}
