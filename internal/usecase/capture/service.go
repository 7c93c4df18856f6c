package capture

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/interview-assistant/errors"
	"github.com/johnquangdev/interview-assistant/internal/audio"
	"github.com/johnquangdev/interview-assistant/internal/domain/entities"
	"github.com/johnquangdev/interview-assistant/internal/domain/repositories"
	"github.com/johnquangdev/interview-assistant/internal/infrastructure/cache"
	"github.com/johnquangdev/interview-assistant/internal/usecase/turn"
	"github.com/johnquangdev/interview-assistant/pkg/config"
)

// calibrationTTL keeps a cached baseline usable for one sitting. The session
// row keeps a durable copy as fallback.
const calibrationTTL = 2 * time.Hour

func calibrationKey(sessionID string) string {
	return "calibration:" + sessionID
}

// Transcriber converts captured turn audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// ReplyGenerator produces the interviewer's follow-up for a transcript and
// labels which provider produced it.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, topic, transcript string) (string, error)
	Provider() string
}

// SpeechSynthesizer renders reply text to audio. The reply track is an
// optional artifact; a disabled or failing synthesizer never fails a turn.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Enabled() bool
}

// Service runs the interactive capture flow: calibrate the noise floor,
// record one answer, transcribe it, generate the interviewer's reply, and
// persist the turn. The process owns a single input device, so captures are
// serialized behind one guard.
type Service struct {
	sessions    repositories.SessionRepository
	turns       *turn.Service
	source      audio.Source
	cache       cache.Store
	transcriber Transcriber
	replier     ReplyGenerator
	speech      SpeechSynthesizer
	cfg         *config.CaptureConfig
	logger      *zap.Logger

	mu     sync.Mutex
	busy   bool
	tokens map[string]*audio.CancelToken

	// Retry tuning, overridable in tests
	retryInitial    time.Duration
	retryMaxElapsed time.Duration
}

// NewService creates a new capture service
func NewService(
	sessions repositories.SessionRepository,
	turns *turn.Service,
	source audio.Source,
	cacheStore cache.Store,
	transcriber Transcriber,
	replier ReplyGenerator,
	speech SpeechSynthesizer,
	cfg *config.CaptureConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		sessions:        sessions,
		turns:           turns,
		source:          source,
		cache:           cacheStore,
		transcriber:     transcriber,
		replier:         replier,
		speech:          speech,
		cfg:             cfg,
		logger:          logger,
		tokens:          make(map[string]*audio.CancelToken),
		retryInitial:    2 * time.Second,
		retryMaxElapsed: 30 * time.Second,
	}
}

// acquire claims the capture graph. Calibration and recording share one
// input device, so a second caller is rejected, not queued.
func (s *Service) acquire(sessionID string) (*audio.CancelToken, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return nil, nil, apperrors.ErrCaptureBusy(sessionID)
	}
	s.busy = true
	token := audio.NewCancelToken()
	s.tokens[sessionID] = token

	release := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.busy = false
		if s.tokens[sessionID] == token {
			delete(s.tokens, sessionID)
		}
	}
	return token, release, nil
}

// Calibrate measures the session's ambient noise floor and stores it in the
// cache and on the index row. A zero duration uses the configured default.
func (s *Service) Calibrate(ctx context.Context, sessionID uuid.UUID, duration time.Duration) (entities.CalibrationResult, error) {
	row, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return entities.CalibrationResult{}, err
	}
	if row.IsFinalized() {
		return entities.CalibrationResult{}, apperrors.ErrSessionFinalized(sessionID.String())
	}

	_, release, err := s.acquire(sessionID.String())
	if err != nil {
		return entities.CalibrationResult{}, err
	}
	defer release()

	if duration <= 0 && s.cfg != nil {
		duration = s.cfg.CalibrationDuration()
	}

	result, err := audio.Calibrate(ctx, s.source, duration)
	if err != nil {
		if errors.Is(err, audio.ErrSourceUnavailable) || errors.Is(err, audio.ErrSourceClosed) {
			return entities.CalibrationResult{}, apperrors.ErrHardwareUnavailable(err)
		}
		return entities.CalibrationResult{}, apperrors.ErrProcessingFailed(err)
	}

	s.storeBaseline(ctx, row, result)

	if s.logger != nil {
		s.logger.Info("🎙️ Session calibrated",
			zap.String("session_id", sessionID.String()),
			zap.Float64("baseline", result.Baseline),
			zap.Int("samples", result.SampleCount),
		)
	}

	return result, nil
}

// storeBaseline caches the fresh baseline and snapshots it on the index
// row. Neither failure invalidates the calibration itself.
func (s *Service) storeBaseline(ctx context.Context, row *entities.InterviewSession, result entities.CalibrationResult) {
	if s.cache != nil {
		value := strconv.FormatFloat(result.Baseline, 'g', -1, 64)
		if err := s.cache.Set(ctx, calibrationKey(row.ID.String()), value, calibrationTTL); err != nil && s.logger != nil {
			s.logger.Warn("⚠️ Baseline cache write failed",
				zap.String("session_id", row.ID.String()),
				zap.Error(err),
			)
		}
	}

	row.SetBaseline(result.Baseline)
	if err := s.sessions.Update(ctx, row); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Baseline row update failed",
			zap.String("session_id", row.ID.String()),
			zap.Error(err),
		)
	}
}

// baseline loads the calibrated noise floor: cache first, then the index
// row snapshot.
func (s *Service) baseline(ctx context.Context, row *entities.InterviewSession) (float64, bool) {
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, calibrationKey(row.ID.String())); err == nil && ok {
			if v, parseErr := strconv.ParseFloat(raw, 64); parseErr == nil && v > 0 {
				return v, true
			}
		}
	}
	if row.Baseline > 0 {
		return row.Baseline, true
	}
	return 0, false
}

// TurnInput tunes one capture attempt. Turn zero means "next turn for this
// session"; MaxWait zero falls back to the configured listen window.
type TurnInput struct {
	Turn    int
	MaxWait time.Duration
}

// TurnOutcome reports one capture attempt. Started false means no speech
// crossed the start threshold within the listen window; that outcome stores
// nothing and is not an error.
type TurnOutcome struct {
	Started        bool      `json:"started"`
	Reason         string    `json:"reason"`
	Turn           int       `json:"turn"`
	DurationMs     int64     `json:"durationMs"`
	Transcript     string    `json:"transcript"`
	AssistantReply string    `json:"assistantReply"`
	Provider       string    `json:"provider"`
	AudioURL       string    `json:"audioUrl"`
	ManifestURL    string    `json:"manifestUrl"`
	ReplyAudioURL  string    `json:"replyAudioUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CaptureTurn records one answer and runs it through the full pipeline:
// segment, transcribe, generate the reply, synthesize it when enabled, and
// persist every artifact.
func (s *Service) CaptureTurn(ctx context.Context, sessionID uuid.UUID, input TurnInput) (*TurnOutcome, error) {
	row, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if row.IsFinalized() {
		return nil, apperrors.ErrSessionFinalized(sessionID.String())
	}

	turnNumber := input.Turn
	if turnNumber == 0 {
		turnNumber = row.TurnCount + 1
	}
	if turnNumber < 1 {
		return nil, apperrors.ErrInvalidArgument("turn number must be 1 or greater")
	}

	baseline, ok := s.baseline(ctx, row)
	if !ok {
		return nil, apperrors.ErrCalibrationRequired(sessionID.String())
	}

	token, release, err := s.acquire(sessionID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	captured, err := audio.Record(ctx, s.source, s.recorderConfig(baseline, input.MaxWait), token)
	if err != nil {
		if errors.Is(err, audio.ErrSourceUnavailable) || errors.Is(err, audio.ErrSourceClosed) {
			return nil, apperrors.ErrHardwareUnavailable(err)
		}
		return nil, apperrors.ErrProcessingFailed(err)
	}

	if !captured.Started {
		if s.logger != nil {
			s.logger.Info("🔇 No speech detected",
				zap.String("session_id", sessionID.String()),
				zap.Int("turn", turnNumber),
				zap.String("reason", captured.Reason.String()),
			)
		}
		return &TurnOutcome{
			Started: false,
			Reason:  captured.Reason.String(),
			Turn:    turnNumber,
		}, nil
	}

	wav, err := audio.EncodeWAV(captured.Samples, captured.SampleRate)
	if err != nil {
		return nil, apperrors.ErrProcessingFailed(err)
	}

	transcript, err := s.transcribe(ctx, wav)
	if err != nil {
		return nil, apperrors.ErrTranscriptionFailed(err)
	}

	reply, err := s.generateReply(ctx, row.Topic, transcript)
	if err != nil {
		return nil, apperrors.ErrReplyGenerationFailed(err)
	}

	var replyAudio []byte
	if s.speech != nil && s.speech.Enabled() {
		replyAudio, err = s.speech.Synthesize(ctx, reply)
		if err != nil {
			// The reply track is optional; the turn persists without it.
			if s.logger != nil {
				s.logger.Warn("⚠️ Reply synthesis failed",
					zap.String("session_id", sessionID.String()),
					zap.Int("turn", turnNumber),
					zap.Error(err),
				)
			}
			replyAudio = nil
		}
	}

	saved, err := s.turns.Save(ctx, turn.SaveInput{
		SessionID:      sessionID.String(),
		Turn:           turnNumber,
		Audio:          wav,
		CreatedAt:      captured.StartedAt.UTC(),
		DurationMs:     captured.DurationMs(),
		Transcript:     transcript,
		AssistantReply: reply,
		Provider:       s.providerLabel(),
		ReplyAudio:     replyAudio,
	})
	if err != nil {
		return nil, err
	}

	if turnNumber > row.TurnCount {
		row.TurnCount = turnNumber
		row.UpdatedAt = time.Now()
		if err := s.sessions.Update(ctx, row); err != nil && s.logger != nil {
			s.logger.Warn("⚠️ Turn counter update failed",
				zap.String("session_id", sessionID.String()),
				zap.Error(err),
			)
		}
	}

	if s.logger != nil {
		s.logger.Info("✅ Turn captured",
			zap.String("session_id", sessionID.String()),
			zap.Int("turn", turnNumber),
			zap.Int64("duration_ms", captured.DurationMs()),
			zap.String("reason", captured.Reason.String()),
			zap.Bool("has_reply_audio", len(replyAudio) > 0),
		)
	}

	return &TurnOutcome{
		Started:        true,
		Reason:         captured.Reason.String(),
		Turn:           turnNumber,
		DurationMs:     captured.DurationMs(),
		Transcript:     transcript,
		AssistantReply: reply,
		Provider:       s.providerLabel(),
		AudioURL:       saved.AudioURL,
		ManifestURL:    saved.ManifestURL,
		ReplyAudioURL:  saved.ReplyURL,
		CreatedAt:      saved.Manifest.CreatedAt,
	}, nil
}

// Cancel requests a cooperative stop of the session's active capture. The
// recorder observes the token within one frame interval. Returns false when
// nothing was running for that session.
func (s *Service) Cancel(sessionID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[sessionID.String()]
	if !ok {
		return false
	}
	token.Cancel()

	if s.logger != nil {
		s.logger.Info("🛑 Capture cancellation requested",
			zap.String("session_id", sessionID.String()),
		)
	}
	return true
}

// Probe opens and immediately releases the input device, verifying capture
// would be possible without recording anything.
func (s *Service) Probe(ctx context.Context) error {
	_, release, err := s.acquire("probe")
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.source.Start(ctx); err != nil {
		return apperrors.ErrHardwareUnavailable(err)
	}
	if err := s.source.Stop(); err != nil {
		return apperrors.ErrHardwareUnavailable(err)
	}
	return nil
}

// recorderConfig builds the segmentation config from tuning plus the
// session baseline.
func (s *Service) recorderConfig(baseline float64, maxWait time.Duration) audio.RecorderConfig {
	cfg := audio.RecorderConfig{Baseline: baseline}
	if s.cfg != nil {
		cfg.StartThreshold = s.cfg.StartThreshold
		cfg.StopThreshold = s.cfg.StopThreshold
		cfg.MinDuration = time.Duration(s.cfg.MinDurationMs) * time.Millisecond
		cfg.MaxDuration = time.Duration(s.cfg.MaxDurationMs) * time.Millisecond
		cfg.Silence = time.Duration(s.cfg.SilenceMs) * time.Millisecond
		cfg.Grace = time.Duration(s.cfg.GraceMs) * time.Millisecond
		cfg.MaxWait = time.Duration(s.cfg.MaxWaitMs) * time.Millisecond
	}
	if maxWait > 0 {
		cfg.MaxWait = maxWait
	}
	return cfg
}

func (s *Service) providerLabel() string {
	if s.replier != nil {
		return s.replier.Provider()
	}
	return ""
}

// transcribe retries transient provider failures with the same backoff
// tuning the rest of the system uses for external calls.
func (s *Service) transcribe(ctx context.Context, wav []byte) (string, error) {
	var transcript string
	operation := func() error {
		var err error
		transcript, err = s.transcriber.Transcribe(ctx, wav)
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(s.newBackOff(), ctx)); err != nil {
		return "", err
	}
	return transcript, nil
}

func (s *Service) generateReply(ctx context.Context, topic, transcript string) (string, error) {
	var reply string
	operation := func() error {
		var err error
		reply, err = s.replier.GenerateReply(ctx, topic, transcript)
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(s.newBackOff(), ctx)); err != nil {
		return "", err
	}
	return reply, nil
}

func (s *Service) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryInitial
	bo.MaxElapsedTime = s.retryMaxElapsed
	bo.MaxInterval = 10 * time.Second
	return bo
}
