package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SessionStatus defines the lifecycle of an interview session
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusFinalized SessionStatus = "finalized"
)

// IsValid checks if the session status is valid
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusActive, SessionStatusFinalized:
		return true
	}
	return false
}

// InterviewSession is the database index row for one guided interview.
// Object storage remains the source of truth for turn artifacts; this row
// tracks lifecycle and the finalize snapshot for cheap listing queries.
type InterviewSession struct {
	ID         uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	UserHandle string        `json:"user_handle" gorm:"type:varchar(64);index;not null"`
	Topic      string        `json:"topic" gorm:"type:varchar(255)"`
	Status     SessionStatus `json:"status" gorm:"type:varchar(32);default:'active';not null;index"`

	// Calibration
	Baseline     float64    `json:"baseline" gorm:"type:double precision;default:0"`
	CalibratedAt *time.Time `json:"calibrated_at,omitempty" gorm:"type:timestamp"`

	// Finalize snapshot
	TurnCount   int            `json:"turn_count" gorm:"default:0;not null"`
	DurationMs  int64          `json:"duration_ms" gorm:"default:0;not null"`
	Totals      datatypes.JSON `json:"totals" gorm:"type:jsonb;default:'{}'"`
	ManifestKey string         `json:"manifest_key" gorm:"type:varchar(500)"`
	StartedAt   *time.Time     `json:"started_at,omitempty" gorm:"type:timestamp"`
	EndedAt     *time.Time     `json:"ended_at,omitempty" gorm:"type:timestamp"`

	// Timestamps
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewInterviewSession creates a new active session for a user handle
func NewInterviewSession(userHandle, topic string) *InterviewSession {
	now := time.Now()
	return &InterviewSession{
		ID:         uuid.New(),
		UserHandle: userHandle,
		Topic:      topic,
		Status:     SessionStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsFinalized checks if the session has been finalized
func (s *InterviewSession) IsFinalized() bool {
	return s.Status == SessionStatusFinalized
}

// SetBaseline records the calibration result on the index row
func (s *InterviewSession) SetBaseline(baseline float64) {
	now := time.Now()
	s.Baseline = baseline
	s.CalibratedAt = &now
	s.UpdatedAt = now
}

// MarkFinalized stores the aggregation snapshot. Re-finalizing overwrites
// the snapshot with the recomputed values (finalize is idempotent).
func (s *InterviewSession) MarkFinalized(turnCount int, durationMs int64, totals datatypes.JSON, manifestKey string, startedAt, endedAt *time.Time) {
	s.Status = SessionStatusFinalized
	s.TurnCount = turnCount
	s.DurationMs = durationMs
	s.Totals = totals
	s.ManifestKey = manifestKey
	s.StartedAt = startedAt
	s.EndedAt = endedAt
	s.UpdatedAt = time.Now()
}

// Validate validates session data
func (s *InterviewSession) Validate() error {
	if s.UserHandle == "" {
		return ErrInvalidHandle
	}
	if !s.Status.IsValid() {
		return ErrInvalidSessionStatus
	}
	return nil
}
