package entities

import (
	"encoding/json"
	"fmt"
	"time"
)

// TranscriptPreviewLimit bounds the transcript excerpt stored per turn in
// a session manifest.
const TranscriptPreviewLimit = 160

// TurnManifest is the persisted JSON record written next to each turn's
// audio object. Field names are the wire contract; do not rename.
type TurnManifest struct {
	SessionID                string    `json:"sessionId"`
	Turn                     int       `json:"turn"`
	CreatedAt                time.Time `json:"createdAt"`
	DurationMs               int64     `json:"durationMs"`
	UserAudioURL             string    `json:"userAudioUrl"`
	Transcript               string    `json:"transcript"`
	AssistantReply           string    `json:"assistantReply"`
	Provider                 string    `json:"provider"`
	AssistantAudioURL        *string   `json:"assistantAudioUrl"`
	AssistantAudioDurationMs int64     `json:"assistantAudioDurationMs"`
}

// SessionTotals aggregates the readable turns of a session.
type SessionTotals struct {
	Turns      int   `json:"turns"`
	DurationMs int64 `json:"durationMs"`
}

// SessionManifestTurn is the truncated per-turn view inside a session
// manifest: preview transcript plus full artifact locators.
type SessionManifestTurn struct {
	Turn       int       `json:"turn"`
	Audio      string    `json:"audio"`
	Manifest   string    `json:"manifest"`
	Transcript string    `json:"transcript"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SessionManifest is the persisted aggregation result for one session.
// StartedAt/EndedAt are derived from turn timestamps and are null for a
// session with zero readable turns.
type SessionManifest struct {
	SessionID string                `json:"sessionId"`
	StartedAt *time.Time            `json:"startedAt"`
	EndedAt   *time.Time            `json:"endedAt"`
	Totals    SessionTotals         `json:"totals"`
	Turns     []SessionManifestTurn `json:"turns"`
}

// ManifestDecodeError reports why a persisted manifest could not be
// decoded. Aggregation treats it as a signal to skip the entry, never to
// abort the whole session.
type ManifestDecodeError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ManifestDecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("turn manifest decode: field %q %s", e.Field, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("turn manifest decode: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("turn manifest decode: %s", e.Reason)
}

func (e *ManifestDecodeError) Unwrap() error {
	return e.Err
}

// turnManifestJSON mirrors TurnManifest with pointer fields so missing
// keys are distinguishable from zero values during strict decoding.
type turnManifestJSON struct {
	SessionID                *string `json:"sessionId"`
	Turn                     *int    `json:"turn"`
	CreatedAt                *string `json:"createdAt"`
	DurationMs               *int64  `json:"durationMs"`
	UserAudioURL             *string `json:"userAudioUrl"`
	Transcript               *string `json:"transcript"`
	AssistantReply           *string `json:"assistantReply"`
	Provider                 *string `json:"provider"`
	AssistantAudioURL        *string `json:"assistantAudioUrl"`
	AssistantAudioDurationMs *int64  `json:"assistantAudioDurationMs"`
}

// DecodeTurnManifest parses and validates a persisted turn manifest.
// Identity fields (sessionId, turn, createdAt) and the audio locator are
// required; a wrong JSON type anywhere fails the decode. durationMs
// follows the aggregation contract: missing or negative contributes 0
// rather than failing the turn.
func DecodeTurnManifest(raw []byte) (*TurnManifest, error) {
	var j turnManifestJSON
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, &ManifestDecodeError{Reason: "malformed JSON", Err: err}
	}

	if j.SessionID == nil || *j.SessionID == "" {
		return nil, &ManifestDecodeError{Field: "sessionId", Reason: "missing or empty"}
	}
	if j.Turn == nil {
		return nil, &ManifestDecodeError{Field: "turn", Reason: "missing"}
	}
	if *j.Turn < 1 {
		return nil, &ManifestDecodeError{Field: "turn", Reason: "must be a positive integer"}
	}
	if j.CreatedAt == nil {
		return nil, &ManifestDecodeError{Field: "createdAt", Reason: "missing"}
	}
	createdAt, err := time.Parse(time.RFC3339, *j.CreatedAt)
	if err != nil {
		return nil, &ManifestDecodeError{Field: "createdAt", Reason: "not ISO-8601", Err: err}
	}
	if j.UserAudioURL == nil || *j.UserAudioURL == "" {
		return nil, &ManifestDecodeError{Field: "userAudioUrl", Reason: "missing or empty"}
	}

	m := &TurnManifest{
		SessionID:         *j.SessionID,
		Turn:              *j.Turn,
		CreatedAt:         createdAt,
		UserAudioURL:      *j.UserAudioURL,
		AssistantAudioURL: j.AssistantAudioURL,
	}
	if j.DurationMs != nil && *j.DurationMs > 0 {
		m.DurationMs = *j.DurationMs
	}
	if j.Transcript != nil {
		m.Transcript = *j.Transcript
	}
	if j.AssistantReply != nil {
		m.AssistantReply = *j.AssistantReply
	}
	if j.Provider != nil {
		m.Provider = *j.Provider
	}
	if j.AssistantAudioDurationMs != nil && *j.AssistantAudioDurationMs > 0 {
		m.AssistantAudioDurationMs = *j.AssistantAudioDurationMs
	}
	return m, nil
}

// PreviewTranscript truncates a transcript to the manifest preview length,
// rune-safe so multi-byte text is never cut mid-character.
func PreviewTranscript(transcript string) string {
	runes := []rune(transcript)
	if len(runes) <= TranscriptPreviewLimit {
		return transcript
	}
	return string(runes[:TranscriptPreviewLimit])
}
