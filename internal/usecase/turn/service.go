package turn

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/interview-assistant/errors"
	"github.com/johnquangdev/interview-assistant/internal/domain/entities"
	"github.com/johnquangdev/interview-assistant/internal/domain/repositories"
)

// MIMEManifest is the content type of turn and session manifests.
const MIMEManifest = "application/json"

// MIMEReplyAudio is the content type of synthesized reply audio.
const MIMEReplyAudio = "audio/mpeg"

// Service persists per-turn artifacts to the object store
type Service struct {
	store  repositories.ObjectStore
	logger *zap.Logger
}

// NewService creates a new turn persistence service
func NewService(store repositories.ObjectStore, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// SaveInput carries one completed turn into storage
type SaveInput struct {
	SessionID      string
	Turn           int
	Audio          []byte // WAV
	CreatedAt      time.Time
	DurationMs     int64
	Transcript     string
	AssistantReply string
	Provider       string

	// Optional synthesized reply
	ReplyAudio           []byte // MP3
	ReplyAudioDurationMs int64
}

// Saved reports where the turn's artifacts landed
type Saved struct {
	AudioKey    string
	AudioURL    string
	ManifestKey string
	ManifestURL string
	ReplyKey    string
	ReplyURL    string
	Manifest    *entities.TurnManifest
}

// Save writes a turn's artifacts: audio, optional reply audio, manifest
// last. The manifest is the commit point: aggregation only counts turns
// whose manifest exists, so a failure partway leaves at worst an orphan
// audio object, never a manifest pointing at nothing. Any write failure is
// fatal for the turn.
func (s *Service) Save(ctx context.Context, input SaveInput) (*Saved, error) {
	if _, err := uuid.Parse(input.SessionID); err != nil {
		return nil, apperrors.ErrInvalidArgument("session ID must be a valid UUID")
	}
	if input.Turn < 1 {
		return nil, apperrors.ErrInvalidArgument("turn number must be 1 or greater")
	}
	if len(input.Audio) == 0 {
		return nil, apperrors.ErrInvalidArgument("turn audio must not be empty")
	}

	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	saved := &Saved{
		AudioKey:    AudioKey(input.SessionID, input.Turn),
		ManifestKey: ManifestKey(input.SessionID, input.Turn),
	}

	audioURL, err := s.store.Put(ctx, saved.AudioKey, input.Audio, "audio/wav")
	if err != nil {
		return nil, apperrors.ErrStorageFailed("put turn audio", err).
			WithDetail("key", saved.AudioKey)
	}
	saved.AudioURL = audioURL

	var replyURL *string
	if len(input.ReplyAudio) > 0 {
		saved.ReplyKey = ReplyAudioKey(input.SessionID, input.Turn)
		url, err := s.store.Put(ctx, saved.ReplyKey, input.ReplyAudio, MIMEReplyAudio)
		if err != nil {
			return nil, apperrors.ErrStorageFailed("put reply audio", err).
				WithDetail("key", saved.ReplyKey)
		}
		saved.ReplyURL = url
		replyURL = &url
	}

	manifest := &entities.TurnManifest{
		SessionID:                input.SessionID,
		Turn:                     input.Turn,
		CreatedAt:                createdAt.UTC(),
		DurationMs:               input.DurationMs,
		UserAudioURL:             audioURL,
		Transcript:               input.Transcript,
		AssistantReply:           input.AssistantReply,
		Provider:                 input.Provider,
		AssistantAudioURL:        replyURL,
		AssistantAudioDurationMs: input.ReplyAudioDurationMs,
	}

	payload, err := json.Marshal(manifest)
	if err != nil {
		return nil, apperrors.ErrProcessingFailed(err)
	}

	manifestURL, err := s.store.Put(ctx, saved.ManifestKey, payload, MIMEManifest)
	if err != nil {
		return nil, apperrors.ErrStorageFailed("put turn manifest", err).
			WithDetail("key", saved.ManifestKey)
	}
	saved.ManifestURL = manifestURL
	saved.Manifest = manifest

	if s.logger != nil {
		s.logger.Info("✅ Turn artifacts stored",
			zap.String("session_id", input.SessionID),
			zap.Int("turn", input.Turn),
			zap.Int64("duration_ms", input.DurationMs),
			zap.Bool("has_reply_audio", replyURL != nil),
		)
	}

	return saved, nil
}

// Load reads one turn manifest back from storage.
func (s *Service) Load(ctx context.Context, sessionID string, turn int) (*entities.TurnManifest, error) {
	key := ManifestKey(sessionID, turn)

	data, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, apperrors.ErrStorageFailed("get turn manifest", err).
			WithDetail("key", key)
	}

	manifest, err := entities.DecodeTurnManifest(data)
	if err != nil {
		return nil, apperrors.ErrProcessingFailed(err).WithDetail("key", key)
	}

	return manifest, nil
}
