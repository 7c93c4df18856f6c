package presenter

import (
	"encoding/json"

	userDTO "github.com/johnquangdev/interview-assistant/internal/adapter/dto/user"
	"github.com/johnquangdev/interview-assistant/internal/domain/entities"
)

// ToUserResponse converts a User entity to UserResponse DTO
func ToUserResponse(u *entities.User) *userDTO.UserResponse {
	if u == nil {
		return nil
	}

	var notificationPrefs map[string]interface{}
	if u.NotificationPreferences != nil {
		json.Unmarshal(u.NotificationPreferences, &notificationPrefs)
	}

	return &userDTO.UserResponse{
		ID:                      u.ID.String(),
		Handle:                  u.Handle,
		DisplayName:             u.DisplayName,
		Email:                   u.Email,
		NotificationPreferences: notificationPrefs,
		CreatedAt:               u.CreatedAt,
		UpdatedAt:               u.UpdatedAt,
	}
}
