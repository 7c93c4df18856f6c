package session

// CreateSessionRequest opens a session for an existing user handle
type CreateSessionRequest struct {
	UserHandle string `json:"user_handle" validate:"required,min=3,max=64"`
	Topic      string `json:"topic" validate:"max=255"`
}

// CalibrateRequest tunes how long the noise floor is sampled. Zero keeps
// the configured default.
type CalibrateRequest struct {
	DurationMs int `query:"duration_ms" validate:"omitempty,min=200,max=30000"`
}

// CaptureTurnRequest starts one voice-activated capture. Turn zero means
// the next turn for the session; MaxWaitMs zero keeps the configured
// listen window.
type CaptureTurnRequest struct {
	Turn      int `json:"turn" validate:"omitempty,min=1"`
	MaxWaitMs int `json:"max_wait_ms" validate:"omitempty,min=100,max=600000"`
}

// HistoryRequest represents query parameters for the session history page
type HistoryRequest struct {
	Page  int `query:"page" validate:"omitempty,min=1"`
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

// ListByHandleRequest represents query parameters for one user's sessions
type ListByHandleRequest struct {
	Handle string `query:"handle" validate:"required,min=3,max=64"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}
