package user

// CreateUserRequest registers a handle for interview sessions
type CreateUserRequest struct {
	Handle      string  `json:"handle" validate:"required,min=3,max=64"`
	DisplayName string  `json:"display_name" validate:"required,min=1,max=255"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
}
