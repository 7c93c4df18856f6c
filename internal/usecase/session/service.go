package session

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/interview-assistant/errors"
	"github.com/johnquangdev/interview-assistant/internal/domain/entities"
	"github.com/johnquangdev/interview-assistant/internal/domain/repositories"
	"github.com/johnquangdev/interview-assistant/internal/infrastructure/cache"
	"github.com/johnquangdev/interview-assistant/internal/usecase/turn"
	"github.com/johnquangdev/interview-assistant/pkg/notify"
)

const (
	// maxListKeys bounds one listing pass over the object store.
	maxListKeys = 2000

	// fetchWorkers bounds concurrent manifest downloads during
	// aggregation.
	fetchWorkers = 8
)

// Service coordinates interview session lifecycle: index rows in Postgres,
// turn artifacts in the object store, aggregation, history, notifications.
type Service struct {
	sessions repositories.SessionRepository
	users    repositories.UserRepository
	store    repositories.ObjectStore
	cache    cache.Store
	notifier notify.Dispatcher
	logger   *zap.Logger
}

// NewService creates a new session service
func NewService(
	sessions repositories.SessionRepository,
	users repositories.UserRepository,
	store repositories.ObjectStore,
	cacheStore cache.Store,
	notifier notify.Dispatcher,
	logger *zap.Logger,
) *Service {
	return &Service{
		sessions: sessions,
		users:    users,
		store:    store,
		cache:    cacheStore,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateInput carries the fields for opening a session
type CreateInput struct {
	Handle string
	Topic  string
}

// Create opens a new interview session for an existing user handle
func (s *Service) Create(ctx context.Context, input CreateInput) (*entities.InterviewSession, error) {
	if _, err := s.users.FindByHandle(ctx, input.Handle); err != nil {
		return nil, err
	}

	session := entities.NewInterviewSession(input.Handle, input.Topic)
	if err := session.Validate(); err != nil {
		return nil, apperrors.ErrInvalidArgument(err.Error())
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperrors.ErrDBQueryFailed("create session", err)
	}

	if s.logger != nil {
		s.logger.Info("✅ Session created",
			zap.String("session_id", session.ID.String()),
			zap.String("handle", input.Handle),
		)
	}

	return session, nil
}

// Detail is the full view of one session: the index row, the stored
// manifest when finalized, and every readable turn.
type Detail struct {
	Session  *entities.InterviewSession
	Manifest *entities.SessionManifest
	Turns    []*entities.TurnManifest
	Skipped  []SkippedTurn
}

// Get returns the session detail, reading turns from the object store.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	row, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	turns, skipped, err := s.collectTurns(ctx, id.String())
	if err != nil {
		return nil, err
	}

	detail := &Detail{
		Session: row,
		Turns:   turns,
		Skipped: skipped,
	}

	if row.ManifestKey != "" {
		data, err := s.store.Get(ctx, row.ManifestKey)
		if err == nil {
			var manifest entities.SessionManifest
			if unmarshalErr := json.Unmarshal(data, &manifest); unmarshalErr == nil {
				detail.Manifest = &manifest
			}
		} else if s.logger != nil {
			s.logger.Warn("⚠️ Session manifest unreadable",
				zap.String("session_id", id.String()),
				zap.String("key", row.ManifestKey),
				zap.Error(err),
			)
		}
	}

	return detail, nil
}

// Delete removes every stored artifact of a session and its index row.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.sessions.FindByID(ctx, id); err != nil {
		return err
	}

	objects, err := s.store.List(ctx, turn.SessionPrefix(id.String()), 0)
	if err != nil {
		return apperrors.ErrStorageFailed("list session objects", err)
	}

	for _, obj := range objects {
		if err := s.store.Delete(ctx, obj.Key); err != nil {
			return apperrors.ErrStorageFailed("delete session object", err).
				WithDetail("key", obj.Key)
		}
	}

	if err := s.sessions.Delete(ctx, id); err != nil {
		return apperrors.ErrDBQueryFailed("delete session", err)
	}

	s.invalidateHistory(ctx)

	if s.logger != nil {
		s.logger.Info("✅ Session deleted",
			zap.String("session_id", id.String()),
			zap.Int("objects_removed", len(objects)),
		)
	}

	return nil
}

// ListByHandle returns the index rows of one user's sessions.
func (s *Service) ListByHandle(ctx context.Context, handle string, limit, offset int) ([]*entities.InterviewSession, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.sessions.ListByHandle(ctx, handle, limit, offset)
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("list sessions", err)
	}
	return rows, nil
}
