package entities

import "errors"

// Domain errors
var (
	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidHandle      = errors.New("invalid handle")
	ErrInvalidDisplayName = errors.New("invalid display name")

	// Session errors
	ErrSessionNotFound      = errors.New("session not found")
	ErrInvalidSessionStatus = errors.New("invalid session status")
	ErrInvalidTurnNumber    = errors.New("turn number must be a positive integer")

	// Generic errors
	ErrInvalidRequest = errors.New("invalid request")
)
