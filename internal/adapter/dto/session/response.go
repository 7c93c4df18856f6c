package session

import (
	"time"

	"github.com/johnquangdev/interview-assistant/internal/domain/entities"
)

// SessionResponse represents a session index row in responses
type SessionResponse struct {
	ID           string     `json:"id"`
	UserHandle   string     `json:"user_handle"`
	Topic        string     `json:"topic,omitempty"`
	Status       string     `json:"status"`
	Baseline     float64    `json:"baseline,omitempty"`
	CalibratedAt *time.Time `json:"calibrated_at,omitempty"`
	TurnCount    int        `json:"turn_count"`
	DurationMs   int64      `json:"duration_ms"`
	ManifestKey  string     `json:"manifest_key,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CalibrateResponse reports the measured noise floor
type CalibrateResponse struct {
	SessionID   string    `json:"session_id"`
	Baseline    float64   `json:"baseline"`
	SampleCount int       `json:"sample_count"`
	MeasuredAt  time.Time `json:"measured_at"`
}

// TurnResponse represents one capture attempt. Started false means no
// speech crossed the threshold; nothing was stored.
type TurnResponse struct {
	Started        bool       `json:"started"`
	Reason         string     `json:"reason,omitempty"`
	Turn           int        `json:"turn"`
	DurationMs     int64      `json:"duration_ms,omitempty"`
	Transcript     string     `json:"transcript,omitempty"`
	AssistantReply string     `json:"assistant_reply,omitempty"`
	Provider       string     `json:"provider,omitempty"`
	AudioURL       string     `json:"audio_url,omitempty"`
	ManifestURL    string     `json:"manifest_url,omitempty"`
	ReplyAudioURL  string     `json:"reply_audio_url,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}

// CancelResponse reports whether a running capture was found to cancel
type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// SkippedTurnResponse names a stored turn that aggregation could not read
type SkippedTurnResponse struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// NotificationResponse reports the finalize email outcome
type NotificationResponse struct {
	Attempted bool   `json:"attempted"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// FinalizeResponse is the full finalize outcome. The manifest is the
// stored aggregation document and keeps its persisted field names.
type FinalizeResponse struct {
	Session      *SessionResponse          `json:"session"`
	Manifest     *entities.SessionManifest `json:"manifest"`
	ManifestKey  string                    `json:"manifest_key"`
	ManifestURL  string                    `json:"manifest_url"`
	Skipped      []SkippedTurnResponse     `json:"skipped,omitempty"`
	Notification *NotificationResponse     `json:"notification,omitempty"`
}

// SessionDetailResponse is the enriched single-session view: the index
// row, the stored manifest when finalized, and every readable turn.
type SessionDetailResponse struct {
	Session  *SessionResponse          `json:"session"`
	Manifest *entities.SessionManifest `json:"manifest,omitempty"`
	Turns    []*entities.TurnManifest  `json:"turns"`
	Skipped  []SkippedTurnResponse     `json:"skipped,omitempty"`
}

// HistoryTurnResponse is one turn inside a history page entry
type HistoryTurnResponse struct {
	Turn        int        `json:"turn"`
	ManifestKey string     `json:"manifest_key"`
	AudioURL    string     `json:"audio_url,omitempty"`
	Transcript  string     `json:"transcript,omitempty"`
	DurationMs  int64      `json:"duration_ms,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	Enriched    bool       `json:"enriched"`
}

// SessionSummaryResponse is one session in the history listing
type SessionSummaryResponse struct {
	SessionID    string                 `json:"session_id"`
	TurnCount    int                    `json:"turn_count"`
	LatestTurnAt *time.Time             `json:"latest_turn_at,omitempty"`
	Finalized    bool                   `json:"finalized"`
	ManifestKey  string                 `json:"manifest_key,omitempty"`
	Turns        []*HistoryTurnResponse `json:"turns"`
}

// HistoryResponse is one page of session history, newest first
type HistoryResponse struct {
	Sessions []*SessionSummaryResponse `json:"sessions"`
	Page     int                       `json:"page"`
	Limit    int                       `json:"limit"`
	Total    int                       `json:"total"`
}

// ListResponse is one user's sessions from the index
type ListResponse struct {
	Sessions []*SessionResponse `json:"sessions"`
}
