package models

import "auth-be/internal/entities"

// Envelope statuses
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// TokenResponse represents the response after signing up or logging in
type TokenResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"` // JWT token
}

// MessageResponse is a success acknowledgment without a payload
type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// UserProfile is the public view of a user
type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserDataResponse represents the response for GET /authentication/getUserData
type UserDataResponse struct {
	Status string       `json:"status"`
	Data   UserDataBody `json:"data"`
}

type UserDataBody struct {
	User UserProfile `json:"user"`
	Data string      `json:"data"`
}

// NewUserProfile converts a user entity to its public view
func NewUserProfile(u *entities.User) UserProfile {
	return UserProfile{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}
