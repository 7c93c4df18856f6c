package entities

import (
	"encoding/json"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// User represents an interview participant identified by a plain handle.
// There is no authentication: a handle is just a label sessions point at.
type User struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Handle      string    `json:"handle" gorm:"type:varchar(64);uniqueIndex;not null"`
	DisplayName string    `json:"display_name" gorm:"type:varchar(255);not null"`

	// Notification target, optional. Finalize summaries are mailed here
	// when dispatch is configured.
	Email *string `json:"email,omitempty" gorm:"type:varchar(255)"`

	// Preferences (stored as JSONB in PostgreSQL)
	NotificationPreferences datatypes.JSON `json:"notification_preferences" gorm:"type:jsonb;default:'{}'"`

	// Timestamps
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

var handlePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,62}[a-z0-9]$`)

// NewUser creates a new user with default values
func NewUser(handle, displayName string) *User {
	now := time.Now()

	// Default notification preferences
	notifPrefs, _ := json.Marshal(map[string]interface{}{
		"email_on_finalize": true,
	})

	return &User{
		ID:                      uuid.New(),
		Handle:                  handle,
		DisplayName:             displayName,
		NotificationPreferences: notifPrefs,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
}

// Validate validates user data
func (u *User) Validate() error {
	if !handlePattern.MatchString(u.Handle) {
		return ErrInvalidHandle
	}
	if u.DisplayName == "" {
		return ErrInvalidDisplayName
	}
	return nil
}

// WantsFinalizeEmail reports whether finalize summaries should be mailed.
func (u *User) WantsFinalizeEmail() bool {
	if u.Email == nil || *u.Email == "" {
		return false
	}
	var prefs map[string]interface{}
	if err := json.Unmarshal(u.NotificationPreferences, &prefs); err != nil {
		return true
	}
	if v, ok := prefs["email_on_finalize"].(bool); ok {
		return v
	}
	return true
}
