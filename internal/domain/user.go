package domain

import "time"

// User is the stored credential record for a registered account.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	ClubID       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
