package dto

import "time"

// SignupRequest payload for new accounts.
type SignupRequest struct {
	FirstName string  `json:"firstName" validate:"required,max=100"`
	LastName  string  `json:"lastName" validate:"max=100"`
	Email     string  `json:"email" validate:"required,email,max=254"`
	Password  string  `json:"password" validate:"required"`
	Role      string  `json:"role" validate:"required,role"`
	ClubID    *string `json:"clubId,omitempty" validate:"omitempty,max=64"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	FirstName string    `json:"firstName"`
	ClubID    *string   `json:"clubId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IdentityResponse describes the caller attached by the authentication gate.
type IdentityResponse struct {
	Subject string `json:"subject"`
	Role    string `json:"role"`
}
