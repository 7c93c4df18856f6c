package user

import "time"

// UserResponse represents a user handle in responses
type UserResponse struct {
	ID                      string                 `json:"id"`
	Handle                  string                 `json:"handle"`
	DisplayName             string                 `json:"display_name"`
	Email                   *string                `json:"email,omitempty"`
	NotificationPreferences map[string]interface{} `json:"notification_preferences,omitempty"`
	CreatedAt               time.Time              `json:"created_at"`
	UpdatedAt               time.Time              `json:"updated_at"`
}
